package qa

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccast/internal/artifacts"
	"doccast/internal/podcast"
	"doccast/internal/services"
)

type fakeVectorStore struct {
	results []services.Chunk
	err     error
	queries []string
}

func (f *fakeVectorStore) Store(context.Context, string, []string, string) error {
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, query string, _ []string, _ int) ([]services.Chunk, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func (f *fakeVectorStore) GetAll(context.Context, []string) ([]services.Chunk, error) {
	return f.results, f.err
}

func longScript(lines int) podcast.Script {
	script := make(podcast.Script, 0, lines)
	for i := 0; i < lines; i++ {
		speaker := podcast.SpeakerHost
		if i%2 == 1 {
			speaker = podcast.SpeakerGuest
		}
		script = append(script, podcast.Line{
			Speaker: speaker,
			Text:    fmt.Sprintf("Exchange number %d with enough words.", i),
		})
	}
	return script
}

type contextFixture struct {
	builder *ContextBuilder
	store   *podcast.MemoryStore
	art     *artifacts.Store
	vectors *fakeVectorStore
}

func newContextFixture(t *testing.T) *contextFixture {
	t.Helper()
	store := podcast.NewMemoryStore()
	art := artifacts.NewStore(t.TempDir(), t.TempDir(), slog.New(slog.DiscardHandler))
	vectors := &fakeVectorStore{}
	builder := NewContextBuilder(store, art, vectors, DefaultPace(), slog.New(slog.DiscardHandler))
	return &contextFixture{builder: builder, store: store, art: art, vectors: vectors}
}

func (f *contextFixture) seedCompleteJob(t *testing.T, script podcast.Script) {
	t.Helper()
	job := podcast.NewJob("job-1", []string{"doc-1"}, podcast.LengthMedium)
	job.Status = podcast.StatusComplete
	job.Stage = podcast.StageComplete
	require.NoError(t, f.store.Put(context.Background(), job))
	_, err := f.art.WriteScript("job-1", script)
	require.NoError(t, err)
}

func TestBuild_Validation(t *testing.T) {
	f := newContextFixture(t)

	tests := []struct {
		name      string
		jobID     string
		question  string
		timestamp float64
	}{
		{name: "empty job id", jobID: "  ", question: "why?", timestamp: 10},
		{name: "empty question", jobID: "job-1", question: "   ", timestamp: 10},
		{name: "negative timestamp", jobID: "job-1", question: "why?", timestamp: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.builder.Build(context.Background(), tt.jobID, tt.question, tt.timestamp)
			assert.ErrorIs(t, err, services.ErrInvalidInput)
		})
	}
}

func TestBuild_UnknownJob(t *testing.T) {
	f := newContextFixture(t)

	_, err := f.builder.Build(context.Background(), "missing", "what is this about?", 30)
	assert.ErrorIs(t, err, podcast.ErrJobNotFound)
}

func TestBuild_MissingScriptArtifact(t *testing.T) {
	f := newContextFixture(t)
	job := podcast.NewJob("job-1", []string{"doc-1"}, podcast.LengthMedium)
	job.Status = podcast.StatusComplete
	require.NoError(t, f.store.Put(context.Background(), job))

	_, err := f.builder.Build(context.Background(), "job-1", "what is this about?", 30)
	assert.ErrorContains(t, err, "failed to load podcast script")
}

func TestBuild_MalformedScriptArtifact(t *testing.T) {
	f := newContextFixture(t)
	job := podcast.NewJob("job-1", []string{"doc-1"}, podcast.LengthMedium)
	job.Status = podcast.StatusComplete
	require.NoError(t, f.store.Put(context.Background(), job))

	raw := []byte(`[{"foo":"bar"},{"baz":2}]`)
	require.NoError(t, os.WriteFile(f.art.ScriptPath("job-1"), raw, 0o644))

	_, err := f.builder.Build(context.Background(), "job-1", "what is this about?", 30)
	assert.ErrorContains(t, err, "failed to load podcast script")
}

func TestBuild_EmptyScriptArtifact(t *testing.T) {
	f := newContextFixture(t)
	f.seedCompleteJob(t, podcast.Script{})

	_, err := f.builder.Build(context.Background(), "job-1", "what is this about?", 30)
	assert.ErrorContains(t, err, "empty")
}

func TestBuild_RanksChunksByPosition(t *testing.T) {
	f := newContextFixture(t)
	f.seedCompleteJob(t, longScript(10))
	f.vectors.results = []services.Chunk{
		{Text: "first match", Source: "paper.pdf"},
		{Text: "second match", Source: "notes.md"},
		{Text: "third match", Source: ""},
	}

	got, err := f.builder.Build(context.Background(), "job-1", "what is covered?", 30)
	require.NoError(t, err)

	require.Len(t, got.Chunks, 3)
	assert.InDelta(t, 1.0, got.Chunks[0].Relevance, 0.0001)
	assert.InDelta(t, 0.9, got.Chunks[1].Relevance, 0.0001)
	assert.InDelta(t, 0.8, got.Chunks[2].Relevance, 0.0001)
	assert.Equal(t, "paper.pdf", got.Chunks[0].Source)
	assert.Equal(t, "unknown", got.Chunks[2].Source)
	assert.Equal(t, []string{"what is covered?"}, f.vectors.queries)
}

func TestBuild_TrimsQuestion(t *testing.T) {
	f := newContextFixture(t)
	f.seedCompleteJob(t, longScript(10))

	got, err := f.builder.Build(context.Background(), "job-1", "  what now?  ", 0)
	require.NoError(t, err)
	assert.Equal(t, "what now?", got.Question)
}

func TestRecentDialogue_Window(t *testing.T) {
	f := newContextFixture(t)
	script := longScript(40) // estimated duration 320s at 8s per line

	tests := []struct {
		name       string
		timestamp  float64
		wantFirst  float64
		wantLast   float64
		wantLength int
	}{
		{name: "start of playback", timestamp: 0, wantFirst: 0, wantLast: 0, wantLength: 1},
		{name: "mid playback", timestamp: 165.5, wantFirst: 112, wantLast: 160, wantLength: 7},
		{name: "early, window clipped", timestamp: 20, wantFirst: 0, wantLast: 16, wantLength: 3},
		{name: "past the end", timestamp: 1000, wantFirst: 264, wantLast: 312, wantLength: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.builder.recentDialogue(script, tt.timestamp)
			require.Len(t, got, tt.wantLength)
			assert.Equal(t, tt.wantFirst, got[0].Timestamp)
			assert.Equal(t, tt.wantLast, got[len(got)-1].Timestamp)
		})
	}
}

func TestRecentDialogue_EmptyScript(t *testing.T) {
	f := newContextFixture(t)
	assert.Empty(t, f.builder.recentDialogue(podcast.Script{}, 100))
}

func TestBuild_IncludesJobMetadata(t *testing.T) {
	f := newContextFixture(t)
	f.seedCompleteJob(t, longScript(4))

	got, err := f.builder.Build(context.Background(), "job-1", "anything?", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1"}, got.DocumentIDs)
	assert.WithinDuration(t, time.Now(), got.PodcastCreated, time.Minute)
}
