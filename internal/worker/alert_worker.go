package worker

// alert_worker.go
// Processes low-stock alert jobs from QueueLowStock.
// Sends a notification email to the purchasing address via SMTP, guarded by
// the mail circuit breaker so a downed relay never backs up the queue.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"
	"github.com/janesh-web3/RMS-demo-sub001/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertWorker processes low-stock alert jobs from QueueLowStock.
type AlertWorker struct {
	mailer          *infra.Mailer
	cb              *infra.CircuitBreaker
	purchasingEmail string
}

// NewAlertWorker wires the SMTP mailer and its circuit breaker.
func NewAlertWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, purchasingEmail string) *AlertWorker {
	return &AlertWorker{mailer: mailer, cb: cb, purchasingEmail: purchasingEmail}
}

// Process sends one low-stock notification.
func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) {
	var event dto.StockEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return
	}
	if w.purchasingEmail == "" {
		log.Warn().Msg("alert_worker: no purchasing email configured — skipping")
		return
	}

	subject := fmt.Sprintf("Low stock: %s", event.Name)
	body := fmt.Sprintf(
		"Stock item %q dropped to %s and crossed its minimum threshold.\n\n"+
			"Review the reorder report or restock manually.\n",
		event.Name, event.NewQuantity.String())

	err := w.cb.Execute(func() error {
		return w.mailer.Send(w.purchasingEmail, subject, body, "")
	})
	if err != nil {
		log.Error().Err(err).Str("item", event.Name).Msg("alert_worker: failed to send alert")
		return
	}
	log.Info().Str("item", event.Name).Msg("alert_worker: low stock alert sent")
}
