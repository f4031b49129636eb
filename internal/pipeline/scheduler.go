// Package pipeline drives podcast jobs from submission through script
// generation and audio synthesis. The Scheduler runs in the API process and
// enqueues work, the Orchestrator runs in the worker process and executes it.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"doccast/internal/podcast"
	"doccast/internal/services"
)

// Publisher sends a message body to the work queue.
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Scheduler accepts podcast requests, records them, and hands them to the
// queue for asynchronous processing.
type Scheduler struct {
	store  podcast.Store
	queue  Publisher
	logger *slog.Logger
}

func NewScheduler(store podcast.Store, queue Publisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{store: store, queue: queue, logger: logger}
}

// Start validates the request, persists a job record in its initial state,
// and publishes the job id to the queue. If publishing fails the record is
// removed so a failed submission leaves nothing behind.
func (s *Scheduler) Start(ctx context.Context, documentIDs []string, targetLength string) (*podcast.Job, error) {
	if len(documentIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one document id is required", services.ErrInvalidInput)
	}
	for _, id := range documentIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: document ids must not be empty", services.ErrInvalidInput)
		}
	}
	if !podcast.ValidLength(targetLength) {
		return nil, fmt.Errorf("%w: invalid target length %q", services.ErrInvalidInput, targetLength)
	}

	job := podcast.NewJob(uuid.NewString(), documentIDs, targetLength)
	if err := s.store.Put(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to record job: %w", err)
	}

	body, err := json.Marshal(podcast.Message{JobID: job.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode job message: %w", err)
	}

	if err := s.queue.PublishWithRetry(ctx, body, "application/json"); err != nil {
		if delErr := s.store.Delete(ctx, job.ID); delErr != nil {
			s.logger.Error("Failed to remove unqueued job record",
				slog.String("job_id", job.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	s.logger.Info("Podcast job queued",
		slog.String("job_id", job.ID),
		slog.String("target_length", targetLength),
		slog.Int("documents", len(documentIDs)),
	)

	return job, nil
}
