package worker

// report_worker.go
// Processes reorder report jobs from QueueReport.
// Computes the current reorder suggestions, renders them to PDF and emails the
// file to purchasing. Retries are the scheduler's concern — a failed run is
// logged and the next nightly tick regenerates from scratch.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/infra"
	"github.com/janesh-web3/RMS-demo-sub001/internal/service"

	"github.com/rs/zerolog/log"
)

// ReportJobPayload is the job envelope sent to QueueReport.
type ReportJobPayload struct {
	WindowDays int     `json:"window_days"`
	ToEmail    *string `json:"to_email,omitempty"` // overrides the configured purchasing address
}

// ReportWorker generates and delivers the reorder PDF report.
type ReportWorker struct {
	analytics       service.AnalyticsService
	mailer          *infra.Mailer
	cb              *infra.CircuitBreaker
	pdfStoragePath  string
	purchasingEmail string
}

func NewReportWorker(
	analytics service.AnalyticsService,
	mailer *infra.Mailer,
	cb *infra.CircuitBreaker,
	pdfStoragePath string,
	purchasingEmail string,
) *ReportWorker {
	return &ReportWorker{
		analytics:       analytics,
		mailer:          mailer,
		cb:              cb,
		pdfStoragePath:  pdfStoragePath,
		purchasingEmail: purchasingEmail,
	}
}

// Process handles a single report job:
//  1. Compute reorder suggestions over the requested window
//  2. Render the PDF to the storage path
//  3. Email the file to purchasing through the circuit breaker
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("report_worker: invalid payload")
		return
	}

	report, err := w.analytics.ReorderSuggestions(ctx, payload.WindowDays)
	if err != nil {
		log.Error().Err(err).Msg("report_worker: failed to compute suggestions")
		return
	}

	pdfPath, err := infra.GenerateReorderPDF(report, w.pdfStoragePath)
	if err != nil {
		log.Error().Err(err).Msg("report_worker: failed to generate PDF")
		return
	}

	to := w.purchasingEmail
	if payload.ToEmail != nil && *payload.ToEmail != "" {
		to = *payload.ToEmail
	}
	if to == "" {
		log.Warn().Str("pdf", pdfPath).Msg("report_worker: no recipient configured, PDF generated only")
		return
	}

	subject := fmt.Sprintf("Reorder report %s", time.Now().Format("2006-01-02"))
	body := fmt.Sprintf("%d items suggested for reorder. Report attached.\n", len(report.Suggestions))

	sendErr := w.cb.Execute(func() error {
		return w.mailer.Send(to, subject, body, pdfPath)
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Str("to", to).Msg("report_worker: failed to send report")
		return
	}
	log.Info().Str("to", to).Int("suggestions", len(report.Suggestions)).
		Msg("report_worker: reorder report sent")
}
