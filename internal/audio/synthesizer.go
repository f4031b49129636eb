package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"doccast/internal/podcast"
	"doccast/internal/services"
)

var (
	ErrEmptyScript = errors.New("script has no lines")
	ErrNoSegments  = errors.New("no audio segments were produced")
)

// ProgressObserver receives a callback after each script line is voiced.
type ProgressObserver interface {
	OnProgress(completed, total int)
}

// Voices maps the two podcast speakers to provider voice ids.
type Voices struct {
	Host  string
	Guest string
}

// Coordinator turns a parsed script into a single podcast audio file. Each
// line is synthesized with the voice of its speaker, staged as an
// intermediate PCM file, then stitched together with a pause between turns.
type Coordinator struct {
	tts        services.SpeechSynthesizer
	voices     Voices
	outputDir  string
	sampleRate int
	logger     *slog.Logger
}

func NewCoordinator(tts services.SpeechSynthesizer, voices Voices, outputDir string, sampleRate int, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		tts:        tts,
		voices:     voices,
		outputDir:  outputDir,
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// Synthesize voices every line of script and writes the combined audio to
// outputDir as <outputName>.wav. It returns the output path and the total
// duration in seconds. Intermediate segment files live in a per-call temp
// directory that is removed whether or not synthesis succeeds.
func (c *Coordinator) Synthesize(ctx context.Context, script podcast.Script, outputName string, pause time.Duration, obs ProgressObserver) (string, float64, error) {
	if len(script) == 0 {
		return "", 0, ErrEmptyScript
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	tempDir := filepath.Join(c.outputDir, fmt.Sprintf("%s_segments_%s", outputName, uuid.NewString()[:8]))
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create segment directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			c.logger.Warn("Failed to remove segment directory", "dir", tempDir, "error", err)
		}
	}()

	total := len(script)
	segments := make([]string, 0, total)

	for i, line := range script {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}

		voiceID, ok := c.voiceFor(line.Speaker)
		if !ok {
			c.logger.Warn("Skipping line with unknown speaker", "speaker", line.Speaker, "line", i)
			continue
		}
		if strings.TrimSpace(line.Text) == "" {
			c.logger.Warn("Skipping line with empty text", "speaker", line.Speaker, "line", i)
			continue
		}

		result, err := c.tts.Synthesize(ctx, line.Text, voiceID)
		if err != nil {
			return "", 0, fmt.Errorf("failed to synthesize line %d: %w", i, err)
		}

		segPath := filepath.Join(tempDir, fmt.Sprintf("segment_%04d.pcm", i))
		if err := os.WriteFile(segPath, result.PCM, 0o644); err != nil {
			return "", 0, fmt.Errorf("failed to stage segment %d: %w", i, err)
		}
		segments = append(segments, segPath)

		if obs != nil {
			obs.OnProgress(i+1, total)
		}
	}

	if len(segments) == 0 {
		return "", 0, ErrNoSegments
	}

	combined, err := c.combine(segments, pause)
	if err != nil {
		return "", 0, err
	}

	outputPath := filepath.Join(c.outputDir, outputName+".wav")
	if err := WriteWAV(outputPath, combined, c.sampleRate); err != nil {
		return "", 0, err
	}

	duration := Duration(combined, c.sampleRate)
	c.logger.Info("Synthesized podcast audio",
		"path", outputPath,
		"segments", len(segments),
		"duration_seconds", duration)

	return outputPath, duration, nil
}

func (c *Coordinator) voiceFor(speaker string) (string, bool) {
	switch speaker {
	case podcast.SpeakerHost:
		return c.voices.Host, true
	case podcast.SpeakerGuest:
		return c.voices.Guest, true
	default:
		return "", false
	}
}

func (c *Coordinator) combine(segments []string, pause time.Duration) ([]byte, error) {
	gap := Silence(pause, c.sampleRate)

	var combined []byte
	for i, path := range segments {
		pcm, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read segment: %w", err)
		}
		combined = append(combined, pcm...)
		if i < len(segments)-1 {
			combined = append(combined, gap...)
		}
	}

	return combined, nil
}
