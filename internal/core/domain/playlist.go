package domain

import "time"

// HarmonicMode selects how the playlist generator treats key compatibility
// between successive tracks.
type HarmonicMode string

const (
	// HarmonicOff orders purely by descending classification confidence.
	HarmonicOff HarmonicMode = "off"
	// HarmonicLoose prefers compatible keys but allows violations.
	HarmonicLoose HarmonicMode = "loose"
	// HarmonicStrict requires every transition to satisfy the Camelot rule.
	HarmonicStrict HarmonicMode = "strict"
)

// Constraints is the user-facing constraint set a playlist was built under.
// It is recorded on the playlist verbatim.
type Constraints struct {
	// TargetDurationSec is a soft target: selection stops once total duration
	// meets or exceeds it, overshooting by at most one track. Zero disables it.
	TargetDurationSec int

	// MinBPM/MaxBPM bound candidate tempo, inclusive. Zero values leave the
	// corresponding bound open. Tracks with unknown tempo are excluded only
	// when a bound is set.
	MinBPM float64
	MaxBPM float64

	Harmonic HarmonicMode
}

// TempoConstrained reports whether any tempo bound is active.
func (c Constraints) TempoConstrained() bool {
	return c.MinBPM > 0 || c.MaxBPM > 0
}

// Playlist is an ordered track selection plus the constraints used to build
// it. Immutable once returned; regeneration produces a new playlist.
type Playlist struct {
	ID       string
	Name     string
	TrackIDs []string

	Constraints Constraints

	// Satisfaction flags, never silent truncation.
	DurationSatisfied bool
	HarmonicSatisfied bool

	// Warnings records non-fatal degradations, e.g. an exhausted harmonic
	// backtracking budget.
	Warnings []string

	CreatedAt time.Time
}

// TotalDurationMs sums the durations of the given tracks, which must be the
// playlist's tracks in any order.
func TotalDurationMs(tracks []Track) int {
	total := 0
	for _, t := range tracks {
		total += t.DurationMs
	}
	return total
}
