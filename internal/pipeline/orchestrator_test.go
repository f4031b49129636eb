package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccast/internal/artifacts"
	"doccast/internal/audio"
	"doccast/internal/podcast"
	"doccast/internal/services"
)

type fakeGenerator struct {
	script podcast.Script
	err    error
}

func (f *fakeGenerator) Generate(_ context.Context, _, _ string) (podcast.Script, error) {
	return f.script, f.err
}

type fakeSynth struct {
	path     string
	duration float64
	err      error
	lines    int
	onCall   func()
}

func (f *fakeSynth) Synthesize(_ context.Context, _ podcast.Script, _ string, _ time.Duration, obs audio.ProgressObserver) (string, float64, error) {
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return "", 0, f.err
	}
	for i := 0; i < f.lines; i++ {
		obs.OnProgress(i+1, f.lines)
	}
	return f.path, f.duration, nil
}

func validScript() podcast.Script {
	return podcast.Script{
		{Speaker: podcast.SpeakerHost, Text: "Welcome to the show everyone."},
		{Speaker: podcast.SpeakerGuest, Text: "Great to be here with you."},
		{Speaker: podcast.SpeakerHost, Text: "Today we cover the report."},
		{Speaker: podcast.SpeakerGuest, Text: "A dense one, lots of findings."},
	}
}

func newOrchestrator(t *testing.T, gen ScriptGenerator, synth AudioSynthesizer) (*Orchestrator, *podcast.MemoryStore, *artifacts.Store) {
	t.Helper()
	store := podcast.NewMemoryStore()
	art := artifacts.NewStore(t.TempDir(), t.TempDir(), slog.New(slog.DiscardHandler))
	orch := NewOrchestrator(store, art, gen, synth, 500*time.Millisecond, slog.New(slog.DiscardHandler))
	return orch, store, art
}

func seedJob(t *testing.T, store *podcast.MemoryStore) *podcast.Job {
	t.Helper()
	job := podcast.NewJob("job-1", []string{"doc-1"}, podcast.LengthMedium)
	require.NoError(t, store.Put(context.Background(), job))
	return job
}

func TestRun_CompletesJob(t *testing.T) {
	gen := &fakeGenerator{script: validScript()}
	synth := &fakeSynth{path: "/audio/job-1.wav", duration: 312.5, lines: 4}
	orch, store, art := newOrchestrator(t, gen, synth)
	seedJob(t, store)

	require.NoError(t, orch.Run(context.Background(), "job-1"))

	job, err := store.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, podcast.StatusComplete, job.Status)
	assert.Equal(t, podcast.StageComplete, job.Stage)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ScriptPath)
	assert.Equal(t, art.ScriptPath("job-1"), *job.ScriptPath)
	require.NotNil(t, job.AudioPath)
	assert.Equal(t, "/audio/job-1.wav", *job.AudioPath)
	require.NotNil(t, job.DurationSeconds)
	assert.Equal(t, 312.5, *job.DurationSeconds)
	assert.NotNil(t, job.CompletedAt)

	// The script artifact is readable and intact.
	script, err := art.ReadScript("job-1")
	require.NoError(t, err)
	assert.Len(t, script, 4)
}

func TestRun_RecordsScriptStageBeforeSynthesis(t *testing.T) {
	var stage string
	var progress int

	gen := &fakeGenerator{script: validScript()}
	synth := &fakeSynth{path: "/audio/job-1.wav", duration: 1, lines: 4}
	orch, store, _ := newOrchestrator(t, gen, synth)
	seedJob(t, store)

	synth.onCall = func() {
		job, err := store.Get(context.Background(), "job-1")
		require.NoError(t, err)
		stage = job.Stage
		progress = job.Progress
	}

	require.NoError(t, orch.Run(context.Background(), "job-1"))
	assert.Equal(t, podcast.StageSynthesizingAudio, stage)
	assert.Equal(t, 50, progress)
}

func TestRun_GenerationFailureLeavesNoTrace(t *testing.T) {
	gen := &fakeGenerator{err: services.ErrPermanent}
	orch, store, art := newOrchestrator(t, gen, &fakeSynth{})
	seedJob(t, store)

	err := orch.Run(context.Background(), "job-1")
	require.ErrorIs(t, err, services.ErrPermanent)

	_, getErr := store.Get(context.Background(), "job-1")
	assert.ErrorIs(t, getErr, podcast.ErrJobNotFound)
	assert.NoFileExists(t, art.ScriptPath("job-1"))
}

func TestRun_SynthesisFailureCleansUpArtifacts(t *testing.T) {
	gen := &fakeGenerator{script: validScript()}
	synth := &fakeSynth{err: errors.New("voice service down")}
	orch, store, art := newOrchestrator(t, gen, synth)
	seedJob(t, store)

	err := orch.Run(context.Background(), "job-1")
	require.Error(t, err)

	_, getErr := store.Get(context.Background(), "job-1")
	assert.ErrorIs(t, getErr, podcast.ErrJobNotFound)

	// The script was written during the run but removed by cleanup.
	_, statErr := os.Stat(art.ScriptPath("job-1"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_RejectsUnusableScript(t *testing.T) {
	gen := &fakeGenerator{script: podcast.Script{
		{Speaker: podcast.SpeakerHost, Text: "Only the host talks here today."},
		{Speaker: podcast.SpeakerHost, Text: "Still only the host talking."},
		{Speaker: podcast.SpeakerHost, Text: "No guest ever shows up."},
		{Speaker: podcast.SpeakerHost, Text: "A monologue, not a podcast."},
	}}
	orch, store, art := newOrchestrator(t, gen, &fakeSynth{})
	seedJob(t, store)

	err := orch.Run(context.Background(), "job-1")
	require.ErrorIs(t, err, services.ErrQuality)

	_, getErr := store.Get(context.Background(), "job-1")
	assert.ErrorIs(t, getErr, podcast.ErrJobNotFound)

	// The script was persisted before the quality check and removed by
	// cleanup.
	assert.NoFileExists(t, art.ScriptPath("job-1"))
}

func TestRun_UnknownJob(t *testing.T) {
	orch, _, _ := newOrchestrator(t, &fakeGenerator{}, &fakeSynth{})

	err := orch.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, podcast.ErrJobNotFound)
}

func TestSynthesisProgressMapping(t *testing.T) {
	gen := &fakeGenerator{script: validScript()}
	store := podcast.NewMemoryStore()
	seedJob(t, store)

	// The probe reads the recorded progress after each observer callback.
	var observed []int
	probe := &probeSynth{store: store, lines: 4, observed: &observed}
	art := artifacts.NewStore(t.TempDir(), t.TempDir(), slog.New(slog.DiscardHandler))
	orch := NewOrchestrator(store, art, gen, probe, 0, slog.New(slog.DiscardHandler))

	require.NoError(t, orch.Run(context.Background(), "job-1"))
	assert.Equal(t, []int{62, 75, 87, 100}, observed)
}

type probeSynth struct {
	store    *podcast.MemoryStore
	lines    int
	observed *[]int
}

func (p *probeSynth) Synthesize(ctx context.Context, _ podcast.Script, _ string, _ time.Duration, obs audio.ProgressObserver) (string, float64, error) {
	for i := 0; i < p.lines; i++ {
		obs.OnProgress(i+1, p.lines)
		job, err := p.store.Get(ctx, "job-1")
		if err != nil {
			return "", 0, err
		}
		*p.observed = append(*p.observed, job.Progress)
	}
	return "/audio/job-1.wav", 1, nil
}
