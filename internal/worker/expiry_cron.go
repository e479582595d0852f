package worker

// expiry_cron.go
// Background goroutine that periodically sweeps for stock items expiring
// inside the configured horizon and emails a digest to purchasing. Uses the
// circuit breaker to avoid hammering a downed SMTP relay. It also schedules
// the nightly reorder report.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/infra"
	"github.com/janesh-web3/RMS-demo-sub001/internal/service"

	"github.com/rs/zerolog/log"
)

const expiryTickInterval = 24 * time.Hour

// ExpiryCronConfig holds all dependencies for the sweep goroutine.
type ExpiryCronConfig struct {
	Analytics       service.AnalyticsService
	Mailer          *infra.Mailer
	CB              *infra.CircuitBreaker
	Dispatcher      *Dispatcher
	HorizonDays     int
	WindowDays      int
	PurchasingEmail string
}

// StartExpiryCron launches a background goroutine that runs one sweep at
// startup and then daily. It respects the context for graceful shutdown.
func StartExpiryCron(ctx context.Context, cfg ExpiryCronConfig) {
	go func() {
		ticker := time.NewTicker(expiryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("expiry_cron: started")
		runSweep(ctx, cfg)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("expiry_cron: shutting down")
				return
			case <-ticker.C:
				runSweep(ctx, cfg)
			}
		}
	}()
}

func runSweep(ctx context.Context, cfg ExpiryCronConfig) {
	// Queue the reorder report regardless of expiry findings — purchasing
	// wants it daily.
	if cfg.Dispatcher != nil {
		if err := cfg.Dispatcher.EnqueueReorderReport(ctx, ReportJobPayload{WindowDays: cfg.WindowDays}); err != nil {
			log.Error().Err(err).Msg("expiry_cron: failed to enqueue reorder report")
		}
	}

	items, err := cfg.Analytics.ExpiringSoon(ctx, cfg.HorizonDays)
	if err != nil {
		log.Error().Err(err).Msg("expiry_cron: failed to query expiring items")
		return
	}
	if len(items) == 0 {
		return
	}

	log.Info().Int("count", len(items)).Msg("expiry_cron: items expiring soon")

	if cfg.PurchasingEmail == "" {
		return
	}
	// If CB is open, skip the digest — the next daily tick recomputes anyway.
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("expiry_cron: circuit breaker is open, skipping digest")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d stock items expire within %d days:\n\n", len(items), cfg.HorizonDays)
	for _, it := range items {
		fmt.Fprintf(&b, "  %-30s %s left, expires %s (%d days)\n",
			it.Name, it.Quantity.String(), it.ExpirationDate.Format("2006-01-02"), it.DaysLeft)
	}

	subject := fmt.Sprintf("Expiring stock digest %s", time.Now().Format("2006-01-02"))
	sendErr := cfg.CB.Execute(func() error {
		return cfg.Mailer.Send(cfg.PurchasingEmail, subject, b.String(), "")
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Msg("expiry_cron: failed to send digest")
		return
	}
	log.Info().Int("items", len(items)).Msg("expiry_cron: digest sent")
}
