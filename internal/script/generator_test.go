package script

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccast/internal/services"
)

const sampleDialogue = `Host: Welcome to today's deep dive into distributed systems!
Guest: Thanks for having me, this is one of my favorite topics.
Host: So what makes consensus so hard in practice?
Guest: Mostly that networks fail in ways that look exactly like slow machines.`

type fakeCompleter struct {
	responses []services.CompletionResult
	errs      []error
	requests  []services.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req services.CompletionRequest) (services.CompletionResult, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return services.CompletionResult{}, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return services.CompletionResult{Text: sampleDialogue}, nil
}

type fakeVectorStore struct {
	chunks []services.Chunk
	err    error
}

func (f *fakeVectorStore) Store(context.Context, string, []string, string) error {
	return nil
}

func (f *fakeVectorStore) Search(context.Context, string, []string, int) ([]services.Chunk, error) {
	return f.chunks, f.err
}

func (f *fakeVectorStore) GetAll(context.Context, []string) ([]services.Chunk, error) {
	return f.chunks, f.err
}

func makeChunks(n int, text string) []services.Chunk {
	chunks := make([]services.Chunk, n)
	for i := range chunks {
		chunks[i] = services.Chunk{Text: text, DocumentID: "doc-1", ChunkIndex: i, Source: "paper.pdf"}
	}
	return chunks
}

func TestGenerate_ChunkSelection(t *testing.T) {
	tests := []struct {
		name         string
		targetLength string
		available    int
		wantChunks   int
	}{
		{"short selects three", "short", 10, 3},
		{"medium selects six", "medium", 10, 6},
		{"long selects twelve", "long", 20, 12},
		{"long capped at available", "long", 5, 5},
		{"unknown length defaults to six", "extended", 10, 6},
		{"single available chunk", "medium", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{}
			store := &fakeVectorStore{chunks: makeChunks(tt.available, "chunk body")}
			gen := NewGenerator(completer, store, discard())

			script, err := gen.Generate(context.Background(), "doc-1", tt.targetLength)
			require.NoError(t, err)
			require.NotEmpty(t, script)

			// The dialogue prompt is the only completion call; count the
			// chunk separators to confirm how many chunks were included.
			require.Len(t, completer.requests, 1)
			prompt := completer.requests[0].Prompt
			assert.Equal(t, tt.wantChunks, strings.Count(prompt, "chunk body"))
		})
	}
}

func TestGenerate_NoContent(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{}, &fakeVectorStore{}, discard())

	_, err := gen.Generate(context.Background(), "doc-empty", "short")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestGenerate_ChunkRetrievalError(t *testing.T) {
	store := &fakeVectorStore{err: services.Wrap(services.ErrTransient, "embedding store", errors.New("connection refused"))}
	gen := NewGenerator(&fakeCompleter{}, store, discard())

	_, err := gen.Generate(context.Background(), "doc-1", "short")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrTransient)
}

func TestGenerate_SummarizesOversizedContent(t *testing.T) {
	// One chunk large enough to push the estimate past the token ceiling.
	big := strings.Repeat("lengthy source material ", 3000)
	store := &fakeVectorStore{chunks: makeChunks(1, big)}

	completer := &fakeCompleter{
		responses: []services.CompletionResult{
			{Text: "A condensed summary of the source."},
			{Text: sampleDialogue},
		},
	}
	gen := NewGenerator(completer, store, discard())

	script, err := gen.Generate(context.Background(), "doc-1", "short")
	require.NoError(t, err)
	require.NotEmpty(t, script)

	require.Len(t, completer.requests, 2)
	assert.Contains(t, completer.requests[0].Prompt, "Summarize the following content")
	assert.Contains(t, completer.requests[1].Prompt, "A condensed summary of the source.")
	assert.NotContains(t, completer.requests[1].Prompt, big)
}

func TestGenerate_TruncatesWhenSummarizationFails(t *testing.T) {
	big := strings.Repeat("lengthy source material ", 3000)
	store := &fakeVectorStore{chunks: makeChunks(1, big)}

	completer := &fakeCompleter{
		errs: []error{services.Wrap(services.ErrPermanent, "completion", errors.New("bad request"))},
		responses: []services.CompletionResult{
			{},
			{Text: sampleDialogue},
		},
	}
	gen := NewGenerator(completer, store, discard())

	script, err := gen.Generate(context.Background(), "doc-1", "short")
	require.NoError(t, err)
	require.NotEmpty(t, script)

	require.Len(t, completer.requests, 2)
	dialoguePromptText := completer.requests[1].Prompt
	// Hard truncation cap is four characters per token of the ceiling.
	assert.LessOrEqual(t, strings.Count(dialoguePromptText, "lengthy source material"), len(big)/len("lengthy source material "))
	assert.NotContains(t, dialoguePromptText, big)
}

func TestGenerate_EmptyDialogueFails(t *testing.T) {
	store := &fakeVectorStore{chunks: makeChunks(3, "chunk body")}
	completer := &fakeCompleter{responses: []services.CompletionResult{{Text: ""}}}
	gen := NewGenerator(completer, store, discard())

	_, err := gen.Generate(context.Background(), "doc-1", "short")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestGenerate_CompletionErrorFails(t *testing.T) {
	store := &fakeVectorStore{chunks: makeChunks(3, "chunk body")}
	completer := &fakeCompleter{
		errs: []error{services.Wrap(services.ErrExhausted, "completion", errors.New("rate limited"))},
	}
	gen := NewGenerator(completer, store, discard())

	_, err := gen.Generate(context.Background(), "doc-1", "short")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneration)
}
