package audio

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doccast/internal/podcast"
	"doccast/internal/services"
)

const testRate = 8000

type fakeTTS struct {
	samplesPerCall int
	failOn         string
	calls          []string
}

func (f *fakeTTS) Synthesize(_ context.Context, text, voiceID string) (services.SpeechResult, error) {
	f.calls = append(f.calls, voiceID)
	if f.failOn != "" && text == f.failOn {
		return services.SpeechResult{}, services.ErrTransient
	}
	return services.SpeechResult{
		PCM:        make([]byte, f.samplesPerCall*2),
		SampleRate: testRate,
	}, nil
}

type progressRecorder struct {
	calls [][2]int
}

func (p *progressRecorder) OnProgress(completed, total int) {
	p.calls = append(p.calls, [2]int{completed, total})
}

func testScript() podcast.Script {
	return podcast.Script{
		{Speaker: podcast.SpeakerHost, Text: "Welcome to the show, today we dig in."},
		{Speaker: podcast.SpeakerGuest, Text: "Happy to be here, lots to cover."},
		{Speaker: podcast.SpeakerHost, Text: "Let us start with the basics then."},
		{Speaker: podcast.SpeakerGuest, Text: "The fundamentals matter quite a bit."},
	}
}

func newTestCoordinator(t *testing.T, tts services.SpeechSynthesizer) (*Coordinator, string) {
	t.Helper()
	dir := t.TempDir()
	voices := Voices{Host: "voice-host", Guest: "voice-guest"}
	return NewCoordinator(tts, voices, dir, testRate, slog.New(slog.DiscardHandler)), dir
}

func TestSynthesize_CombinesSegmentsWithPauses(t *testing.T) {
	tts := &fakeTTS{samplesPerCall: testRate} // 1 second per line
	coord, dir := newTestCoordinator(t, tts)

	path, duration, err := coord.Synthesize(context.Background(), testScript(), "job1", 500*time.Millisecond, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "job1.wav"), path)

	// 4 lines of 1s plus 3 pauses of 0.5s.
	assert.InDelta(t, 5.5, duration, 0.001)

	pcm, rate, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, testRate, rate)
	assert.InDelta(t, duration, Duration(pcm, rate), 0.001)

	// Voices alternate with the speakers.
	assert.Equal(t, []string{"voice-host", "voice-guest", "voice-host", "voice-guest"}, tts.calls)
}

func TestSynthesize_ReportsProgressPerLine(t *testing.T) {
	tts := &fakeTTS{samplesPerCall: 100}
	coord, _ := newTestCoordinator(t, tts)
	rec := &progressRecorder{}

	_, _, err := coord.Synthesize(context.Background(), testScript(), "job1", 0, rec)
	require.NoError(t, err)

	want := [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}
	assert.Equal(t, want, rec.calls)
}

func TestSynthesize_SkipsUnvoicableLines(t *testing.T) {
	tts := &fakeTTS{samplesPerCall: 100}
	coord, _ := newTestCoordinator(t, tts)

	script := podcast.Script{
		{Speaker: podcast.SpeakerHost, Text: "A line that gets voiced."},
		{Speaker: "narrator", Text: "Skipped, no voice configured."},
		{Speaker: podcast.SpeakerGuest, Text: "   "},
		{Speaker: podcast.SpeakerGuest, Text: "Another voiced line."},
	}

	_, duration, err := coord.Synthesize(context.Background(), script, "job2", 0, nil)
	require.NoError(t, err)
	assert.Len(t, tts.calls, 2)
	assert.InDelta(t, 200.0/testRate, duration, 0.001)
}

func TestSynthesize_EmptyScript(t *testing.T) {
	coord, _ := newTestCoordinator(t, &fakeTTS{samplesPerCall: 100})

	_, _, err := coord.Synthesize(context.Background(), podcast.Script{}, "job3", 0, nil)
	assert.ErrorIs(t, err, ErrEmptyScript)
}

func TestSynthesize_NoVoicableLines(t *testing.T) {
	coord, _ := newTestCoordinator(t, &fakeTTS{samplesPerCall: 100})

	script := podcast.Script{{Speaker: "narrator", Text: "Nobody voices this."}}
	_, _, err := coord.Synthesize(context.Background(), script, "job4", 0, nil)
	assert.ErrorIs(t, err, ErrNoSegments)
}

func TestSynthesize_ProviderFailure(t *testing.T) {
	tts := &fakeTTS{samplesPerCall: 100, failOn: "Let us start with the basics then."}
	coord, dir := newTestCoordinator(t, tts)

	_, _, err := coord.Synthesize(context.Background(), testScript(), "job5", 0, nil)
	require.ErrorIs(t, err, services.ErrTransient)

	// Segment staging directories are removed even on failure.
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestSynthesize_CanceledContext(t *testing.T) {
	coord, _ := newTestCoordinator(t, &fakeTTS{samplesPerCall: 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := coord.Synthesize(ctx, testScript(), "job6", 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWAVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.wav")

	pcm := make([]byte, 4410*2)
	for i := range pcm {
		pcm[i] = byte(i % 251)
	}

	require.NoError(t, WriteWAV(path, pcm, 44100))

	got, rate, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)
	assert.Equal(t, pcm, got)
	assert.InDelta(t, 0.1, Duration(got, rate), 0.0001)
}

func TestSilence(t *testing.T) {
	assert.Len(t, Silence(time.Second, testRate), testRate*2)
	assert.Empty(t, Silence(0, testRate))
}
