package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/janesh-web3/RMS-demo-sub001/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueLowStock = "jobs:lowstock"
	QueueReport   = "jobs:report"

	// StockEventsChannel carries every committed stock mutation for live
	// subscribers (kitchen displays, dashboards).
	StockEventsChannel = "stock:events"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists and publishes stock events.
// The worker pool dequeues jobs via BRPOP. Dispatcher satisfies the engine's
// notifier contract so services never import this package's internals.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// PublishStockEvent broadcasts a committed mutation. Best effort — a dropped
// event never fails the mutation that produced it.
func (d *Dispatcher) PublishStockEvent(ctx context.Context, event dto.StockEvent) {
	if d == nil || d.rdb == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("dispatcher: marshal stock event")
		return
	}
	if err := d.rdb.Publish(ctx, StockEventsChannel, data).Err(); err != nil {
		log.Warn().Err(err).Msg("dispatcher: publish stock event")
	}
}

// EnqueueLowStockAlert pushes an alert job for a threshold crossing.
func (d *Dispatcher) EnqueueLowStockAlert(ctx context.Context, event dto.StockEvent) {
	if d == nil || d.rdb == nil {
		return
	}
	if err := d.enqueue(ctx, QueueLowStock, "lowstock_alert", event); err != nil {
		log.Error().Err(err).Str("stock_item_id", event.StockItemID).
			Msg("dispatcher: enqueue low stock alert")
	}
}

// EnqueueReorderReport pushes a report generation job.
func (d *Dispatcher) EnqueueReorderReport(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueReport, "reorder_report", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handlers routes job types to their processors.
type Handlers struct {
	Alert  *AlertWorker
	Report *ReportWorker
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers Handlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers Handlers, id int) {
	queues := []string{QueueLowStock, QueueReport}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	switch job.Type {
	case "lowstock_alert":
		if handlers.Alert != nil {
			handlers.Alert.Process(ctx, job.Payload)
		}
	case "reorder_report":
		if handlers.Report != nil {
			handlers.Report.Process(ctx, job.Payload)
		}
	default:
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "unknown job type", 0)
	}
}
