// Package worker consumes queued podcast jobs from RabbitMQ and runs them
// through the generation pipeline with a bounded pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"doccast/internal/podcast"
	"doccast/shared/rabbitmq"
)

// Processor executes a single podcast job.
type Processor interface {
	Run(ctx context.Context, jobID string) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Processor     Processor
	Concurrency   int
	JobTimeout    time.Duration
	PrefetchCount int
	QueueName     string
}

// Worker represents the background podcast worker
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	processor     Processor
	concurrency   int
	jobTimeout    time.Duration
	prefetchCount int
	queueName     string
	workerID      string
	jobsChan      chan *podcast.Message
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		processor:     cfg.Processor,
		concurrency:   cfg.Concurrency,
		jobTimeout:    cfg.JobTimeout,
		prefetchCount: cfg.PrefetchCount,
		queueName:     cfg.QueueName,
		workerID:      fmt.Sprintf("worker-%s", uuid.NewString()[:8]),
		jobsChan:      make(chan *podcast.Message),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing jobs until ctx is canceled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	w.logger.Info("Worker dispatcher stopped, waiting for in-flight jobs")
	w.wg.Wait()
	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

// processJob runs a single job under the configured timeout
func (w *Worker) processJob(ctx context.Context, msg *podcast.Message) error {
	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.String("worker_id", w.workerID),
	)

	jobCtx := ctx
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}

	return w.processor.Run(jobCtx, msg.JobID)
}
