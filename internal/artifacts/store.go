// Package artifacts manages the files a podcast job leaves on disk: the
// script JSON and the rendered audio. Paths are derived from the job id so
// cleanup can find everything a job produced without extra bookkeeping.
package artifacts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"doccast/internal/podcast"
)

type Store struct {
	outputDir  string
	answersDir string
	logger     *slog.Logger
}

func NewStore(outputDir, answersDir string, logger *slog.Logger) *Store {
	return &Store{
		outputDir:  outputDir,
		answersDir: answersDir,
		logger:     logger,
	}
}

func (s *Store) OutputDir() string  { return s.outputDir }
func (s *Store) AnswersDir() string { return s.answersDir }

// ScriptPath returns where the script artifact for jobID lives.
func (s *Store) ScriptPath(jobID string) string {
	return filepath.Join(s.outputDir, jobID+"_script.json")
}

// AudioPath returns where the audio artifact for jobID lives.
func (s *Store) AudioPath(jobID string) string {
	return filepath.Join(s.outputDir, jobID+".wav")
}

// AnswerPath returns where a spoken answer clip for jobID lives.
func (s *Store) AnswerPath(jobID, answerID string) string {
	return filepath.Join(s.answersDir, fmt.Sprintf("%s_answer_%s.wav", jobID, answerID))
}

// WriteScript persists the script as a JSON artifact and returns its path.
func (s *Store) WriteScript(jobID string, script podcast.Script) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode script: %w", err)
	}

	path := s.ScriptPath(jobID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write script artifact: %w", err)
	}

	return path, nil
}

// ReadScript loads a previously written script artifact.
func (s *Store) ReadScript(jobID string) (podcast.Script, error) {
	data, err := os.ReadFile(s.ScriptPath(jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to read script artifact: %w", err)
	}

	var script podcast.Script
	if err := json.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("failed to decode script artifact: %w", err)
	}

	// Decoding tolerates objects without the expected keys, leaving
	// zero-value lines behind. Those are not dialogue.
	for i, line := range script {
		if strings.TrimSpace(line.Speaker) == "" || strings.TrimSpace(line.Text) == "" {
			return nil, fmt.Errorf("script artifact line %d is missing speaker or text", i)
		}
	}

	return script, nil
}

// CleanupJob removes every artifact the job may have produced. Missing files
// are fine, partial failures from earlier stages leave gaps.
func (s *Store) CleanupJob(jobID string) {
	for _, path := range []string{s.ScriptPath(jobID), s.AudioPath(jobID)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove artifact", "path", path, "error", err)
		}
	}
}
