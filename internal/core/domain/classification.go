package domain

import "time"

// Classification is the result of scoring a feature vector against the
// taxonomy. A later re-classification supersedes (never mutates) an earlier
// one; the playlist generator reads the latest per track.
type Classification struct {
	TrackID       string
	CategoryIndex int
	CategoryName  string

	// Per-axis match scores against the winning category's ideal point.
	AxisScores AxisPoint

	// Confidence is the winning overall score, clamped to [0,1]. A value of
	// zero means the track lay outside every tolerance radius and was
	// assigned its nearest category as the best available fit.
	Confidence float64

	// VectorConfidence carries the feature vector's own confidence forward
	// for introspection.
	VectorConfidence float64

	// Tempo and Key snapshot the reconciled values the classification was
	// derived from, so playlist constraints read the same data the scoring
	// saw.
	Tempo TempoValue
	Key   KeyValue

	// ClassifiedAt is stamped by the pipeline when the result is recorded,
	// not by the classifier, which stays a pure function of its input.
	ClassifiedAt time.Time
}

// ClassifiedTrack pairs a track with its latest classification. This is the
// playlist generator's input unit.
type ClassifiedTrack struct {
	Track          Track
	Classification Classification
}
