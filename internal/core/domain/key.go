package domain

import "fmt"

const (
	ModeMinor = 0
	ModeMajor = 1
)

// Key is a fully resolved musical key: pitch class 0-11 (C, C#, D, ...)
// plus mode. A key is never partially populated; unknown keys are expressed
// as a KeyValue with ConfidenceNone.
type Key struct {
	PitchClass int
	Mode       int
}

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Camelot wheel positions per pitch class, one ring per mode.
var (
	camelotMajor = [12]int{8, 3, 10, 5, 12, 7, 2, 9, 4, 11, 6, 1}
	camelotMinor = [12]int{5, 12, 7, 2, 9, 4, 11, 6, 1, 8, 3, 10}
)

func (k Key) String() string {
	name := pitchNames[k.PitchClass%12]
	if k.Mode == ModeMajor {
		return name + " maj"
	}
	return name + " min"
}

// Camelot returns the Camelot-wheel code for the key, e.g. "8A" for A minor.
func (k Key) Camelot() string {
	return fmt.Sprintf("%d%s", k.camelotPosition(), k.camelotRing())
}

func (k Key) camelotPosition() int {
	pc := ((k.PitchClass % 12) + 12) % 12
	if k.Mode == ModeMajor {
		return camelotMajor[pc]
	}
	return camelotMinor[pc]
}

func (k Key) camelotRing() string {
	if k.Mode == ModeMajor {
		return "B"
	}
	return "A"
}

// Compatible reports whether two keys are mixable under the Camelot rule:
// identical, relative major/minor (same position, other ring), or adjacent
// position on the same ring.
func (k Key) Compatible(other Key) bool {
	return k.CamelotDistance(other) <= 1
}

// CamelotDistance is a small integer distance used to penalize harmonic
// jumps in loose ordering: 0 identical, 1 for any mixable neighbor, then
// the wheel distance plus a ring-change penalty.
func (k Key) CamelotDistance(other Key) int {
	pa, pb := k.camelotPosition(), other.camelotPosition()
	wheel := pa - pb
	if wheel < 0 {
		wheel = -wheel
	}
	if wheel > 6 {
		wheel = 12 - wheel
	}
	sameRing := k.Mode == other.Mode

	switch {
	case wheel == 0 && sameRing:
		return 0
	case wheel == 0: // relative major/minor
		return 1
	case wheel == 1 && sameRing:
		return 1
	case sameRing:
		return wheel
	default:
		return wheel + 1
	}
}

// Confidence expresses how trustworthy a derived value is. It is propagated
// with the value rather than discarded, so downstream consumers can make
// degrade decisions.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// Score maps a confidence level onto [0,1] for propagation into axis math.
func (c Confidence) Score() float64 {
	switch c {
	case ConfidenceHigh:
		return 1.0
	case ConfidenceMedium:
		return 0.9
	case ConfidenceLow:
		return 0.75
	default:
		return 0.0
	}
}

// Source names where a reconciled value came from.
type Source string

const (
	SourceNone     Source = "none"
	SourceProvider Source = "provider"
	SourceExternal Source = "external"
	SourceMerged   Source = "merged"
)

// TempoValue is a reconciled tempo, tagged with confidence and provenance.
// A ConfidenceNone value means the tempo is unknown; BPM is then zero and
// must never be read as a real tempo. AltBPM retains the losing estimate
// when the sources disagreed, for audit.
type TempoValue struct {
	BPM        float64
	Confidence Confidence
	Source     Source
	AltBPM     float64
}

// Unknown reports whether no usable tempo was reconciled.
func (t TempoValue) Unknown() bool { return t.Confidence == ConfidenceNone }

// KeyValue is a reconciled key, tagged like TempoValue. AltKey retains the
// losing estimate when the sources disagreed.
type KeyValue struct {
	Key        Key
	Confidence Confidence
	Source     Source
	AltKey     *Key
}

// Unknown reports whether no usable key was reconciled.
func (k KeyValue) Unknown() bool { return k.Confidence == ConfidenceNone }

// Camelot returns the Camelot code of a known key, or "" when unknown.
func (k KeyValue) Camelot() string {
	if k.Unknown() {
		return ""
	}
	return k.Key.Camelot()
}
