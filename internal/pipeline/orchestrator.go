package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"doccast/internal/artifacts"
	"doccast/internal/audio"
	"doccast/internal/podcast"
	"doccast/internal/services"
)

// ErrJobFailed marks errors for jobs that were terminally failed and cleaned
// up. Such jobs must not be retried: their records no longer exist.
var ErrJobFailed = errors.New("job failed")

// ScriptGenerator produces a two-speaker script from a document's content.
type ScriptGenerator interface {
	Generate(ctx context.Context, documentID, targetLength string) (podcast.Script, error)
}

// AudioSynthesizer renders a script to an audio file and reports progress.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, script podcast.Script, outputName string, pause time.Duration, obs audio.ProgressObserver) (string, float64, error)
}

// Orchestrator executes a queued podcast job end to end: script generation,
// artifact persistence, audio synthesis, and status updates along the way.
type Orchestrator struct {
	store     podcast.Store
	artifacts *artifacts.Store
	scripts   ScriptGenerator
	audio     AudioSynthesizer
	pause     time.Duration
	logger    *slog.Logger
}

func NewOrchestrator(store podcast.Store, art *artifacts.Store, scripts ScriptGenerator, synth AudioSynthesizer, pause time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		artifacts: art,
		scripts:   scripts,
		audio:     synth,
		pause:     pause,
		logger:    logger,
	}
}

// synthesisProgress maps per-line synthesis progress onto the back half of
// the job's progress range.
type synthesisProgress struct {
	ctx    context.Context
	o      *Orchestrator
	jobID  string
	logger *slog.Logger
}

func (p *synthesisProgress) OnProgress(completed, total int) {
	if total <= 0 {
		return
	}
	progress := 50 + (50*completed)/total
	if err := p.o.store.Update(p.ctx, p.jobID, podcast.Update{Progress: podcast.Int(progress)}); err != nil {
		p.logger.Warn("Failed to record synthesis progress",
			slog.String("job_id", p.jobID),
			slog.String("error", err.Error()),
		)
	}
}

// Run executes the job identified by jobID. On failure the job record is
// marked failed and then removed along with any partial artifacts, so a
// failed job leaves no trace beyond the logs.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}

	logger := o.logger.With(slog.String("job_id", jobID))
	logger.Info("Processing podcast job",
		slog.String("target_length", job.TargetLength),
		slog.Int("documents", len(job.DocumentIDs)),
	)

	if err := o.generate(ctx, job, logger); err != nil {
		o.fail(ctx, jobID, err, logger)
		return fmt.Errorf("%w: %w", ErrJobFailed, err)
	}

	logger.Info("Podcast job complete")
	return nil
}

func (o *Orchestrator) generate(ctx context.Context, job *podcast.Job, logger *slog.Logger) error {
	if err := o.store.Update(ctx, job.ID, podcast.Update{
		Stage:    podcast.String(podcast.StageGeneratingScript),
		Progress: podcast.Int(10),
	}); err != nil {
		return fmt.Errorf("failed to enter script stage: %w", err)
	}

	script, err := o.scripts.Generate(ctx, job.PrimaryDocumentID(), job.TargetLength)
	if err != nil {
		return fmt.Errorf("script generation failed: %w", err)
	}
	scriptPath, err := o.artifacts.WriteScript(job.ID, script)
	if err != nil {
		return err
	}

	if err := o.store.Update(ctx, job.ID, podcast.Update{
		ScriptPath: podcast.String(scriptPath),
		Progress:   podcast.Int(50),
	}); err != nil {
		return fmt.Errorf("failed to record script artifact: %w", err)
	}

	logger.Info("Script generated", slog.Int("lines", len(script)))

	// A rejected script's artifact is already on disk; the failure path
	// removes it along with the record.
	if !script.Validate() {
		return fmt.Errorf("%w: generated script is unusable", services.ErrQuality)
	}

	if err := o.store.Update(ctx, job.ID, podcast.Update{
		Stage: podcast.String(podcast.StageSynthesizingAudio),
	}); err != nil {
		return fmt.Errorf("failed to enter synthesis stage: %w", err)
	}

	obs := &synthesisProgress{ctx: ctx, o: o, jobID: job.ID, logger: logger}
	audioPath, duration, err := o.audio.Synthesize(ctx, script, job.ID, o.pause, obs)
	if err != nil {
		return fmt.Errorf("audio synthesis failed: %w", err)
	}

	now := time.Now().UTC()
	if err := o.store.Update(ctx, job.ID, podcast.Update{
		Status:          podcast.String(podcast.StatusComplete),
		Stage:           podcast.String(podcast.StageComplete),
		Progress:        podcast.Int(100),
		AudioPath:       podcast.String(audioPath),
		DurationSeconds: podcast.Float(duration),
		CompletedAt:     podcast.Time(now),
	}); err != nil {
		return fmt.Errorf("failed to mark job complete: %w", err)
	}

	return nil
}

// fail records the failure for anyone polling mid-cleanup, then removes the
// job's artifacts and record.
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error, logger *slog.Logger) {
	logger.Error("Podcast job failed", slog.String("error", cause.Error()))

	now := time.Now().UTC()
	if err := o.store.Update(ctx, jobID, podcast.Update{
		Status:       podcast.String(podcast.StatusFailed),
		Stage:        podcast.String(podcast.StageFailed),
		ErrorMessage: podcast.String(cause.Error()),
		FailedAt:     podcast.Time(now),
	}); err != nil {
		logger.Error("Failed to record job failure", slog.String("error", err.Error()))
	}

	o.artifacts.CleanupJob(jobID)
	if err := o.store.Delete(ctx, jobID); err != nil {
		logger.Error("Failed to remove failed job record", slog.String("error", err.Error()))
	}
}
