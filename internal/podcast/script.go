package podcast

import "strings"

// Dialogue speakers. Every script line belongs to exactly one of them.
const (
	SpeakerHost  = "host"
	SpeakerGuest = "guest"
)

// Line is one turn of dialogue.
type Line struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Script is the ordered dialogue produced by the script generator. It is
// persisted once as a JSON artifact and never mutated afterwards.
type Script []Line

const (
	minScriptLines = 4
	minLineChars   = 10
)

// Validate checks the structural quality bar applied before audio synthesis:
// at least four lines, both speakers present, and no line whose trimmed text
// is shorter than ten characters.
func (s Script) Validate() bool {
	if len(s) < minScriptLines {
		return false
	}

	hosts, guests := 0, 0
	for _, line := range s {
		switch line.Speaker {
		case SpeakerHost:
			hosts++
		case SpeakerGuest:
			guests++
		default:
			return false
		}

		if len(strings.TrimSpace(line.Text)) < minLineChars {
			return false
		}
	}

	return hosts > 0 && guests > 0
}
