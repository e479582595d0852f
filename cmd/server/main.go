package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/config"
	"github.com/janesh-web3/RMS-demo-sub001/internal/infra"
	"github.com/janesh-web3/RMS-demo-sub001/internal/router"
	"github.com/janesh-web3/RMS-demo-sub001/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, deps := router.New(cfg, db, rdb)

	// Async workers: low-stock alert emails and the reorder PDF report. Wired
	// here (composition root) so the pool has the same mailer and circuit
	// breaker the cron uses.
	handlers := worker.Handlers{
		Alert:  worker.NewAlertWorker(deps.Mailer, deps.MailCB, cfg.PurchasingEmail),
		Report: worker.NewReportWorker(deps.Analytics, deps.Mailer, deps.MailCB, cfg.PDFStoragePath, cfg.PurchasingEmail),
	}
	worker.StartWorkerPool(ctx, rdb, handlers, cfg.WorkerPoolSize)

	// Daily sweep: expiring stock digest + reorder report scheduling.
	worker.StartExpiryCron(ctx, worker.ExpiryCronConfig{
		Analytics:       deps.Analytics,
		Mailer:          deps.Mailer,
		CB:              deps.MailCB,
		Dispatcher:      deps.Dispatcher,
		HorizonDays:     cfg.ExpiryHorizonDays,
		WindowDays:      cfg.ReorderWindowDays,
		PurchasingEmail: cfg.PurchasingEmail,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("inventory ledger backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
