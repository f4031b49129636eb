// Package script turns stored document chunks into a two-voice podcast
// dialogue ready for audio synthesis.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"doccast/internal/podcast"
	"doccast/internal/services"
)

var (
	// ErrNoContent is returned when no chunks are stored for the document.
	ErrNoContent = errors.New("no content found for document")

	// ErrGeneration is returned when the completion output is empty or
	// cannot be parsed into a single valid line.
	ErrGeneration = errors.New("script generation failed")
)

// Chunk counts and target durations per length category.
var (
	chunkCounts = map[string]int{
		podcast.LengthShort:  3,
		podcast.LengthMedium: 6,
		podcast.LengthLong:   12,
	}
	durationMinutes = map[string]int{
		podcast.LengthShort:  3,
		podcast.LengthMedium: 5,
		podcast.LengthLong:   10,
	}
)

const (
	defaultChunkCount      = 6
	defaultDurationMinutes = 5

	// maxInputTokens is the prompt-size ceiling; larger inputs get
	// summarized first.
	maxInputTokens = 12000

	// minDialogueChars guards against a degenerate completion.
	minDialogueChars = 100

	summaryTemperature  = 0.3
	dialogueTemperature = 0.7
)

// Generator produces a podcast.Script from stored document content.
type Generator struct {
	completer services.Completer
	chunks    services.VectorStore
	logger    *slog.Logger
}

// NewGenerator wires the script generator. The completer is expected to be
// retry-wrapped already.
func NewGenerator(completer services.Completer, chunks services.VectorStore, logger *slog.Logger) *Generator {
	return &Generator{completer: completer, chunks: chunks, logger: logger}
}

// Generate builds a dialogue script for one document at the given target
// length.
func (g *Generator) Generate(ctx context.Context, documentID, targetLength string) (podcast.Script, error) {
	g.logger.Info("Generating podcast script",
		slog.String("document_id", documentID),
		slog.String("target_length", targetLength),
	)

	chunks, err := g.chunks.GetAll(ctx, []string{documentID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve document chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, documentID)
	}

	count := chunkCount(targetLength, len(chunks))
	g.logger.Info("Selected document chunks",
		slog.Int("available", len(chunks)),
		slog.Int("selected", count),
	)

	texts := make([]string, count)
	for i := 0; i < count; i++ {
		texts[i] = chunks[i].Text
	}
	content := strings.Join(texts, "\n\n")

	if estimated := estimateTokens(content); estimated > maxInputTokens {
		g.logger.Warn("Content exceeds token ceiling, summarizing",
			slog.Int("estimated_tokens", estimated),
			slog.Int("ceiling", maxInputTokens),
		)
		content = g.condense(ctx, content)
	}

	minutes := minutesFor(targetLength)
	dialogue, err := g.generateDialogue(ctx, content, minutes)
	if err != nil {
		return nil, err
	}

	script, err := Parse(dialogue, g.logger)
	if err != nil {
		return nil, err
	}

	g.logger.Info("Generated script", slog.Int("lines", len(script)))
	return script, nil
}

// condense summarizes oversized content, falling back to hard truncation
// when the summarization call itself fails.
func (g *Generator) condense(ctx context.Context, content string) string {
	result, err := g.completer.Complete(ctx, services.CompletionRequest{
		Prompt:      summaryPrompt(content),
		MaxTokens:   maxInputTokens / 2,
		Temperature: summaryTemperature,
	})
	if err != nil || strings.TrimSpace(result.Text) == "" {
		g.logger.Warn("Summarization failed, truncating content",
			slog.Any("error", err),
		)
		limit := maxInputTokens * 4
		if len(content) > limit {
			return content[:limit]
		}
		return content
	}
	return result.Text
}

func (g *Generator) generateDialogue(ctx context.Context, content string, minutes int) (string, error) {
	result, err := g.completer.Complete(ctx, services.CompletionRequest{
		Prompt:      dialoguePrompt(content, minutes),
		Temperature: dialogueTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	dialogue := strings.TrimSpace(result.Text)
	if len(dialogue) < minDialogueChars {
		return "", fmt.Errorf("%w: generated dialogue is too short or empty", ErrGeneration)
	}

	return dialogue, nil
}

func chunkCount(targetLength string, available int) int {
	desired, ok := chunkCounts[strings.ToLower(targetLength)]
	if !ok {
		desired = defaultChunkCount
	}
	if desired > available {
		return available
	}
	return desired
}

func minutesFor(targetLength string) int {
	if minutes, ok := durationMinutes[strings.ToLower(targetLength)]; ok {
		return minutes
	}
	return defaultDurationMinutes
}

// estimateTokens approximates ~4 characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}
