package domain

import "math"

// AxisPoint is a point in the 4-axis category space. Every coordinate is
// normalized to [0,1]:
//
//	Position: 0 = warm-up / wind-down, 1 = peak-time slam
//	Texture:  0 = organic and stripped, 1 = full synthetic production
//	Rhythm:   0 = loose and ambient,    1 = locked driving groove
//	Emotion:  0 = melancholic,          1 = euphoric
type AxisPoint struct {
	Position float64 `json:"position"`
	Texture  float64 `json:"texture"`
	Rhythm   float64 `json:"rhythm"`
	Emotion  float64 `json:"emotion"`
}

// Distance is the weighted Euclidean distance to another point. Zero-valued
// weights fall back to uniform weighting.
func (p AxisPoint) Distance(other, weights AxisPoint) float64 {
	if weights == (AxisPoint{}) {
		weights = AxisPoint{Position: 1, Texture: 1, Rhythm: 1, Emotion: 1}
	}
	dp := p.Position - other.Position
	dt := p.Texture - other.Texture
	dr := p.Rhythm - other.Rhythm
	de := p.Emotion - other.Emotion
	return math.Sqrt(weights.Position*dp*dp + weights.Texture*dt*dt + weights.Rhythm*dr*dr + weights.Emotion*de*de)
}

// FeatureVector is the canonical, classifier-ready description of a track:
// the four axis scores plus reconciled tempo and key. Construction is owned
// exclusively by the feature aggregator.
type FeatureVector struct {
	TrackID string
	Axes    AxisPoint
	Tempo   TempoValue
	Key     KeyValue

	// Confidence in the vector as a whole. Degrades when history is absent
	// or tempo confidence is low, and propagates into the classification.
	Confidence float64
}

// Clamp01 bounds v to [0,1]. Axis functions are fixed linear combinations
// clamped after the fact, so they stay monotone and bounded.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
