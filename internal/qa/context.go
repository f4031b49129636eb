package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"doccast/internal/artifacts"
	"doccast/internal/podcast"
	"doccast/internal/services"
)

const (
	searchResults   = 5
	lookbackSeconds = 60.0
)

// TimedLine is a script line with its estimated playback position.
type TimedLine struct {
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// RankedChunk is a retrieved document excerpt with a position-based
// relevance score.
type RankedChunk struct {
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Relevance float64 `json:"relevance_score"`
}

// Context is everything needed to answer a question: where the listener is
// in the podcast, what was just said, and what the source documents say.
type Context struct {
	Question       string
	Timestamp      float64
	Chunks         []RankedChunk
	RecentDialogue []TimedLine
	DocumentIDs    []string
	PodcastCreated time.Time
}

// ContextBuilder assembles answer context from the job record, the script
// artifact, and the embedding store.
type ContextBuilder struct {
	store     podcast.Store
	artifacts *artifacts.Store
	chunks    services.VectorStore
	pace      PaceEstimator
	logger    *slog.Logger
}

func NewContextBuilder(store podcast.Store, art *artifacts.Store, chunks services.VectorStore, pace PaceEstimator, logger *slog.Logger) *ContextBuilder {
	return &ContextBuilder{
		store:     store,
		artifacts: art,
		chunks:    chunks,
		pace:      pace,
		logger:    logger,
	}
}

// Build gathers the context for answering question at the given playback
// position of the job's podcast.
func (b *ContextBuilder) Build(ctx context.Context, jobID, question string, timestamp float64) (*Context, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("%w: job id cannot be empty", services.ErrInvalidInput)
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question cannot be empty", services.ErrInvalidInput)
	}
	if timestamp < 0 {
		return nil, fmt.Errorf("%w: timestamp cannot be negative", services.ErrInvalidInput)
	}

	job, err := b.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != podcast.StatusComplete {
		b.logger.Warn("Answering against an incomplete podcast",
			slog.String("job_id", jobID),
			slog.String("status", job.Status),
		)
	}

	chunks, err := b.searchChunks(ctx, question, job.DocumentIDs)
	if err != nil {
		return nil, err
	}

	script, err := b.artifacts.ReadScript(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load podcast script: %w", err)
	}
	if len(script) == 0 {
		return nil, fmt.Errorf("podcast script for job %s is empty", jobID)
	}

	recent := b.recentDialogue(script, timestamp)

	b.logger.Info("Built answer context",
		slog.String("job_id", jobID),
		slog.Int("chunks", len(chunks)),
		slog.Int("dialogue_lines", len(recent)),
	)

	return &Context{
		Question:       strings.TrimSpace(question),
		Timestamp:      timestamp,
		Chunks:         chunks,
		RecentDialogue: recent,
		DocumentIDs:    job.DocumentIDs,
		PodcastCreated: job.CreatedAt,
	}, nil
}

// searchChunks ranks the top matches by their result position, the first
// match scoring highest.
func (b *ContextBuilder) searchChunks(ctx context.Context, question string, documentIDs []string) ([]RankedChunk, error) {
	if len(documentIDs) == 0 {
		b.logger.Warn("Job has no document ids, skipping chunk search")
		return nil, nil
	}

	results, err := b.chunks.Search(ctx, question, documentIDs, searchResults)
	if err != nil {
		return nil, fmt.Errorf("chunk search failed: %w", err)
	}

	ranked := make([]RankedChunk, 0, len(results))
	for i, c := range results {
		source := c.Source
		if source == "" {
			source = "unknown"
		}
		ranked = append(ranked, RankedChunk{
			Text:      c.Text,
			Source:    source,
			Relevance: 1.0 - float64(i)*0.1,
		})
	}

	return ranked, nil
}

// recentDialogue estimates which script lines played in the last minute
// before timestamp. Positions past the end of the script resolve to its
// final lines.
func (b *ContextBuilder) recentDialogue(script podcast.Script, timestamp float64) []TimedLine {
	if len(script) == 0 {
		return nil
	}

	perLine := b.pace.SecondsPerLine()
	total := len(script)

	estimatedDuration := float64(total) * perLine
	if timestamp > estimatedDuration {
		timestamp = estimatedDuration
	}

	current := int(timestamp / perLine)
	if current > total-1 {
		current = total - 1
	}

	lookback := int(lookbackSeconds / perLine)
	if lookback < 1 {
		lookback = 1
	}

	start := current - lookback + 1
	if start < 0 {
		start = 0
	}

	lines := make([]TimedLine, 0, current-start+1)
	for i := start; i <= current; i++ {
		lines = append(lines, TimedLine{
			Speaker:   script[i].Speaker,
			Text:      script[i].Text,
			Timestamp: float64(i) * perLine,
		})
	}

	return lines
}
