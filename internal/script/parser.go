package script

import (
	"fmt"
	"log/slog"
	"strings"

	"doccast/internal/podcast"
)

// Parse splits raw completion output into ordered dialogue lines. Each line
// is split on its first colon; the label is classified by a tolerant
// substring match ("host" or "alex" on one side, "guest" or "jordan" on the
// other) because model output drifts between labeling styles. Lines that
// match neither alias set, or have no text after the colon, are dropped
// with a warning. Zero parsed lines is a generation failure, not a silent
// empty result.
func Parse(dialogue string, logger *slog.Logger) (podcast.Script, error) {
	var script podcast.Script

	for _, line := range strings.Split(strings.TrimSpace(dialogue), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		label, text, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		speaker, ok := classifySpeaker(label)
		if !ok {
			logger.Warn("Skipping line with unknown speaker",
				slog.String("line", truncate(line, 50)),
			)
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		script = append(script, podcast.Line{Speaker: speaker, Text: text})
	}

	if len(script) == 0 {
		return nil, fmt.Errorf("%w: could not parse dialogue into script format", ErrGeneration)
	}

	return script, nil
}

func classifySpeaker(label string) (string, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(label, "host"), strings.Contains(label, "alex"):
		return podcast.SpeakerHost, true
	case strings.Contains(label, "guest"), strings.Contains(label, "jordan"):
		return podcast.SpeakerGuest, true
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
