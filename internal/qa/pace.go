// Package qa answers listener questions during podcast playback. Answers
// are grounded in the source documents and the dialogue surrounding the
// listener's current position.
package qa

// PaceEstimator converts playback time into script positions. Implementations
// may use real segment timings when available.
type PaceEstimator interface {
	SecondsPerLine() float64
}

// FixedPace assumes every dialogue exchange takes the same amount of time.
type FixedPace struct {
	Seconds float64
}

// DefaultPace is the fixed estimate used when no timing data exists.
func DefaultPace() FixedPace {
	return FixedPace{Seconds: 8.0}
}

func (p FixedPace) SecondsPerLine() float64 {
	return p.Seconds
}
