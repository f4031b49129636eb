package qa

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"doccast/internal/artifacts"
	"doccast/internal/audio"
	"doccast/internal/services"
)

const answerMaxTokens = 300

// Answer is the response to a listener's question.
type Answer struct {
	Text         string
	Sources      []string
	ChunksUsed   int
	DialogueUsed int
	Timestamp    float64
	AudioPath    string // empty when audio was not requested
}

// Answerer generates conversational answers to listener questions,
// optionally voiced with the host's voice.
type Answerer struct {
	builder   *ContextBuilder
	completer services.Completer
	tts       services.SpeechSynthesizer
	artifacts *artifacts.Store
	hostVoice string
	logger    *slog.Logger
}

func NewAnswerer(builder *ContextBuilder, completer services.Completer, tts services.SpeechSynthesizer, art *artifacts.Store, hostVoice string, logger *slog.Logger) *Answerer {
	return &Answerer{
		builder:   builder,
		completer: completer,
		tts:       tts,
		artifacts: art,
		hostVoice: hostVoice,
		logger:    logger,
	}
}

// Answer builds context for the question and generates a host-style reply.
// With withAudio set, the reply is also voiced and written to the answers
// directory; a synthesis failure fails the whole call.
func (a *Answerer) Answer(ctx context.Context, jobID, question string, timestamp float64, withAudio bool) (*Answer, error) {
	qctx, err := a.builder.Build(ctx, jobID, question, timestamp)
	if err != nil {
		return nil, err
	}

	result, err := a.completer.Complete(ctx, services.CompletionRequest{
		Prompt:      answerPrompt(qctx),
		MaxTokens:   answerMaxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: generated answer is empty", services.ErrQuality)
	}

	answer := &Answer{
		Text:         text,
		Sources:      chunkSources(qctx.Chunks),
		ChunksUsed:   len(qctx.Chunks),
		DialogueUsed: len(qctx.RecentDialogue),
		Timestamp:    timestamp,
	}

	if withAudio {
		path, err := a.voice(ctx, jobID, text)
		if err != nil {
			return nil, err
		}
		answer.AudioPath = path
	}

	a.logger.Info("Answered listener question",
		slog.String("job_id", jobID),
		slog.Int("answer_chars", len(text)),
		slog.Int("tokens", result.TotalTokens),
	)

	return answer, nil
}

func (a *Answerer) voice(ctx context.Context, jobID, text string) (string, error) {
	result, err := a.tts.Synthesize(ctx, text, a.hostVoice)
	if err != nil {
		return "", fmt.Errorf("answer audio synthesis failed: %w", err)
	}

	if err := os.MkdirAll(a.artifacts.AnswersDir(), 0o755); err != nil {
		return "", fmt.Errorf("failed to create answers directory: %w", err)
	}

	path := a.artifacts.AnswerPath(jobID, uuid.NewString()[:8])
	if err := audio.WriteWAV(path, result.PCM, result.SampleRate); err != nil {
		return "", err
	}

	return path, nil
}

func chunkSources(chunks []RankedChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		sources = append(sources, c.Source)
	}
	sort.Strings(sources)
	return sources
}

func answerPrompt(qctx *Context) string {
	dialogue := make([]string, 0, len(qctx.RecentDialogue))
	for _, line := range qctx.RecentDialogue {
		dialogue = append(dialogue, fmt.Sprintf("[%.1fs] %s: %s",
			line.Timestamp, strings.ToUpper(line.Speaker), line.Text))
	}
	dialogueText := strings.Join(dialogue, "\n")
	if dialogueText == "" {
		dialogueText = "No recent dialogue available."
	}

	excerpts := make([]string, 0, len(qctx.Chunks))
	for _, c := range qctx.Chunks {
		excerpts = append(excerpts, fmt.Sprintf("Source: %s\n%s", c.Source, c.Text))
	}
	chunksText := strings.Join(excerpts, "\n\n")
	if chunksText == "" {
		chunksText = "No relevant information found in documents."
	}

	return fmt.Sprintf(`You are answering a listener's question during a podcast.

**Recent Podcast Dialogue:**
%s

**Relevant Information from Source Documents:**
%s

**Listener's Question:** %s

**Instructions:**
1. Answer the question naturally and conversationally, as if you're the podcast host responding
2. Use information from the source documents and recent dialogue
3. If the question relates to something just discussed, reference it naturally
4. Keep your answer concise but complete (2-4 sentences typically)
5. If the sources don't fully answer the question, acknowledge this honestly
6. Don't start with "Great question!" or similar - just answer directly
7. Maintain a friendly, educational tone

Your answer:`, dialogueText, chunksText, qctx.Question)
}
