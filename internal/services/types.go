package services

import (
	"context"
	"time"
)

// CompletionRequest is one text-completion call.
type CompletionRequest struct {
	Prompt      string
	Model       string
	MaxTokens   int // 0 means provider default
	Temperature float64
}

// CompletionResult carries the generated text and token accounting.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completer is the text-completion collaborator. Implementations must tag
// failures with the sentinel markers in errors.go.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// SpeechResult is one rendered utterance as raw 16-bit mono PCM.
type SpeechResult struct {
	PCM        []byte
	SampleRate int
}

// SpeechSynthesizer is the text-to-speech collaborator.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (SpeechResult, error)
}

// Chunk is a stored unit of source-document text with retrieval metadata.
// Chunks are owned by the embedding store and read-only here.
type Chunk struct {
	Text       string
	DocumentID string
	ChunkIndex int
	Source     string
	StoredAt   time.Time
}

// VectorStore is the embedding-store collaborator. Expected failure modes
// (no matches, no stored chunks) come back as empty slices, not errors.
type VectorStore interface {
	Store(ctx context.Context, documentID string, chunks []string, source string) error
	Search(ctx context.Context, query string, documentIDs []string, n int) ([]Chunk, error)
	GetAll(ctx context.Context, documentIDs []string) ([]Chunk, error)
}
