package qa

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/google/uuid"

	"doccast/internal/artifacts"
	"doccast/internal/audio"
	"doccast/internal/services"
)

// Phrases the host uses to fold a listener question into the conversation.
var (
	acknowledgmentPhrases = []string{
		"Oh, looks like we have a question from one of our listeners!",
		"I see we have a listener question coming in!",
		"Ah, great! We've got a question from our audience!",
		"Oh wonderful, a listener wants to ask something!",
	}

	returnPhrases = []string{
		"Alright, let's get back to it!",
		"Now, where were we...",
		"Great! Let's continue.",
		"Perfect! Back to our discussion.",
		"Okay, let's pick up where we left off.",
	}
)

// Transition is a short host utterance played around a listener question.
type Transition struct {
	Text      string
	AudioPath string
}

// Transitioner voices the interstitial phrases that make a Q&A break feel
// like part of the conversation.
type Transitioner struct {
	tts       services.SpeechSynthesizer
	artifacts *artifacts.Store
	hostVoice string
	pick      func(n int) int
}

func NewTransitioner(tts services.SpeechSynthesizer, art *artifacts.Store, hostVoice string) *Transitioner {
	return &Transitioner{
		tts:       tts,
		artifacts: art,
		hostVoice: hostVoice,
		pick:      rand.Intn,
	}
}

// Acknowledge voices the host noticing the question and reading it back.
func (t *Transitioner) Acknowledge(ctx context.Context, jobID, question string) (*Transition, error) {
	phrase := acknowledgmentPhrases[t.pick(len(acknowledgmentPhrases))]
	text := fmt.Sprintf("%s They're asking: %s", phrase, question)
	return t.render(ctx, jobID, text)
}

// Return voices the host steering back to the podcast.
func (t *Transitioner) Return(ctx context.Context, jobID string) (*Transition, error) {
	return t.render(ctx, jobID, returnPhrases[t.pick(len(returnPhrases))])
}

func (t *Transitioner) render(ctx context.Context, jobID, text string) (*Transition, error) {
	result, err := t.tts.Synthesize(ctx, text, t.hostVoice)
	if err != nil {
		return nil, fmt.Errorf("transition audio synthesis failed: %w", err)
	}

	if err := os.MkdirAll(t.artifacts.AnswersDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create answers directory: %w", err)
	}

	path := t.artifacts.AnswerPath(jobID, "transition_"+uuid.NewString()[:8])
	if err := audio.WriteWAV(path, result.PCM, result.SampleRate); err != nil {
		return nil, err
	}

	return &Transition{Text: text, AudioPath: path}, nil
}
