package services

import (
	"github.com/mfleury/setcrate/internal/core/domain"
)

// Classifier scores feature vectors against the fixed taxonomy. Classify is
// deterministic: identical input always yields an identical result.
type Classifier struct {
	taxonomy domain.Taxonomy
	weights  domain.AxisPoint // zero value = uniform Euclidean
}

// NewClassifier constructs a classifier over the given taxonomy. An empty
// or invalid taxonomy is the one fatal configuration error in the engine.
func NewClassifier(taxonomy domain.Taxonomy, weights domain.AxisPoint) (*Classifier, error) {
	if err := taxonomy.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{taxonomy: taxonomy, weights: weights}, nil
}

// Taxonomy returns the classifier's reference taxonomy.
func (c *Classifier) Taxonomy() domain.Taxonomy { return c.taxonomy }

// Classify resolves the single best-fit category for a feature vector.
// Every track is always assigned somewhere: when the vector lies outside all
// tolerance radii the nearest category by raw distance wins with confidence
// zero, rather than failing. Ties at the maximum score go to the category
// with the smaller tolerance radius (the more specific match), then to the
// lower taxonomy index, so identical inputs reproduce identical results.
func (c *Classifier) Classify(fv domain.FeatureVector) domain.Classification {
	bestIdx := 0
	bestScore := -1.0
	nearestIdx := 0
	nearestDist := -1.0

	for i, cat := range c.taxonomy {
		dist := fv.Axes.Distance(cat.Ideal, c.weights)
		score := 1.0 - dist/cat.Radius
		if score < 0 {
			score = 0
		}

		if better(score, cat, bestScore, c.taxonomy[bestIdx]) || bestScore < 0 {
			bestScore = score
			bestIdx = i
		}
		if nearestDist < 0 || dist < nearestDist {
			nearestDist = dist
			nearestIdx = i
		}
	}

	winner := bestIdx
	if bestScore <= 0 {
		// Best available fit: outside every radius, take the nearest.
		winner = nearestIdx
		bestScore = 0
	}
	cat := c.taxonomy[winner]

	return domain.Classification{
		TrackID:          fv.TrackID,
		CategoryIndex:    cat.Index,
		CategoryName:     cat.Name,
		AxisScores:       axisScores(fv.Axes, cat),
		Confidence:       domain.Clamp01(bestScore),
		VectorConfidence: fv.Confidence,
		Tempo:            fv.Tempo,
		Key:              fv.Key,
	}
}

// better reports whether (score, cat) beats the current (bestScore, best)
// under the tie-break rules: higher score, then smaller radius, then lower
// index. Index order needs no explicit check since iteration is in index
// order and strict inequality keeps the earlier winner.
func better(score float64, cat domain.Category, bestScore float64, best domain.Category) bool {
	if score != bestScore {
		return score > bestScore
	}
	return cat.Radius < best.Radius
}

// axisScores converts per-axis offsets from the ideal point into [0,1]
// match scores against the category's radius.
func axisScores(axes domain.AxisPoint, cat domain.Category) domain.AxisPoint {
	score := func(v, ideal float64) float64 {
		d := v - ideal
		if d < 0 {
			d = -d
		}
		return domain.Clamp01(1.0 - d/cat.Radius)
	}
	return domain.AxisPoint{
		Position: score(axes.Position, cat.Ideal.Position),
		Texture:  score(axes.Texture, cat.Ideal.Texture),
		Rhythm:   score(axes.Rhythm, cat.Ideal.Rhythm),
		Emotion:  score(axes.Emotion, cat.Ideal.Emotion),
	}
}
