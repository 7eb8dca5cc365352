package domain

import "time"

// Track represents a musical track as fetched from the streaming provider.
// It is immutable once fetched; re-fetching replaces it wholesale.
type Track struct {
	ID         string // opaque provider id
	Title      string // display only, never used for classification
	Artist     string
	Album      string // optional
	DurationMs int
	PreviewURL string // optional 30s preview, used for energy backfill
	Features   AudioFeatures
}

// AudioFeatures is the raw provider audio feature bundle. All fields are
// bounded reals as delivered by the provider: the 0..1 features, loudness in
// dB (typically -60..0), tempo in BPM (0 = not reported) and key as a pitch
// class 0-11 with mode 1=major 0=minor (-1 = not reported).
type AudioFeatures struct {
	Danceability     float64
	Energy           float64
	Valence          float64
	Acousticness     float64
	Instrumentalness float64
	Loudness         float64
	Tempo            float64
	Key              int
	Mode             int
}

// Missing reports whether the provider bundle is entirely absent. A bundle
// with every field at its zero value carries no usable signal.
func (f AudioFeatures) Missing() bool {
	return f.Danceability == 0 &&
		f.Energy == 0 &&
		f.Valence == 0 &&
		f.Acousticness == 0 &&
		f.Instrumentalness == 0 &&
		f.Tempo == 0
}

// ProviderKey returns the provider key estimate, or nil if not reported.
func (f AudioFeatures) ProviderKey() *Key {
	if f.Key < 0 || f.Key > 11 || (f.Mode != ModeMinor && f.Mode != ModeMajor) {
		return nil
	}
	return &Key{PitchClass: f.Key, Mode: f.Mode}
}

// PlayEvent is a single listening-history event from the provider.
type PlayEvent struct {
	TrackID   string
	PlayedAt  time.Time
	Completed bool
}

// TempoKeyEstimate is the answer from the external tempo/key estimator.
// Key is nil when the estimator reported tempo only.
type TempoKeyEstimate struct {
	BPM float64
	Key *Key
}
