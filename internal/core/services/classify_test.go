package services

import (
	"errors"
	"testing"

	"github.com/mfleury/setcrate/internal/core/domain"
)

func TestNewClassifier_EmptyTaxonomy(t *testing.T) {
	if _, err := NewClassifier(nil, domain.AxisPoint{}); !errors.Is(err, domain.ErrTaxonomyEmpty) {
		t.Fatalf("expected ErrTaxonomyEmpty, got %v", err)
	}
}

func TestClassifier_Classify(t *testing.T) {
	classifier, err := NewClassifier(domain.DefaultTaxonomy(), domain.AxisPoint{})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	tests := []struct {
		name         string
		axes         domain.AxisPoint
		wantCategory string
	}{
		{
			name:         "peak time ideal point",
			axes:         domain.AxisPoint{Position: 0.75, Texture: 0.65, Rhythm: 0.80, Emotion: 0.70},
			wantCategory: "Peak Time",
		},
		{
			name:         "opener ideal point",
			axes:         domain.AxisPoint{Position: 0.15, Texture: 0.40, Rhythm: 0.40, Emotion: 0.50},
			wantCategory: "Openers",
		},
		{
			name:         "melancholic ideal point",
			axes:         domain.AxisPoint{Position: 0.25, Texture: 0.40, Rhythm: 0.40, Emotion: 0.10},
			wantCategory: "Melancholic",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			c := classifier.Classify(domain.FeatureVector{TrackID: "t1", Axes: tt.axes, Confidence: 1.0})
			if c.CategoryName != tt.wantCategory {
				t.Fatalf("category: got %q, want %q", c.CategoryName, tt.wantCategory)
			}
			if c.Confidence != 1.0 {
				t.Fatalf("ideal point should score 1.0, got %v", c.Confidence)
			}
			if c.AxisScores.Position != 1.0 || c.AxisScores.Emotion != 1.0 {
				t.Fatalf("axis scores at ideal point should be 1.0: %+v", c.AxisScores)
			}
		})
	}
}

func TestClassifier_Deterministic(t *testing.T) {
	classifier, err := NewClassifier(domain.DefaultTaxonomy(), domain.AxisPoint{})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	fv := domain.FeatureVector{
		TrackID:    "t1",
		Axes:       domain.AxisPoint{Position: 0.52, Texture: 0.61, Rhythm: 0.48, Emotion: 0.44},
		Confidence: 0.9,
	}
	first := classifier.Classify(fv)
	for i := 0; i < 10; i++ {
		if got := classifier.Classify(fv); got != first {
			t.Fatalf("classification not deterministic:\n%+v\n%+v", got, first)
		}
	}
}

func TestClassifier_TieBreakSmallerRadius(t *testing.T) {
	taxonomy := domain.Taxonomy{
		{Index: 0, Name: "Wide", Ideal: domain.AxisPoint{Position: 0.5, Texture: 0.5, Rhythm: 0.5, Emotion: 0.5}, Radius: 0.6},
		{Index: 1, Name: "Narrow", Ideal: domain.AxisPoint{Position: 0.5, Texture: 0.5, Rhythm: 0.5, Emotion: 0.5}, Radius: 0.3},
	}
	classifier, err := NewClassifier(taxonomy, domain.AxisPoint{})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	// At the shared ideal point both score 1.0; the narrower category is the
	// more specific match and wins.
	c := classifier.Classify(domain.FeatureVector{
		TrackID: "t1",
		Axes:    domain.AxisPoint{Position: 0.5, Texture: 0.5, Rhythm: 0.5, Emotion: 0.5},
	})
	if c.CategoryName != "Narrow" {
		t.Fatalf("tie-break: got %q, want Narrow", c.CategoryName)
	}
}

func TestClassifier_BestAvailableFit(t *testing.T) {
	taxonomy := domain.Taxonomy{
		{Index: 0, Name: "Low", Ideal: domain.AxisPoint{Position: 0.1, Texture: 0.1, Rhythm: 0.1, Emotion: 0.1}, Radius: 0.1},
		{Index: 1, Name: "High", Ideal: domain.AxisPoint{Position: 0.9, Texture: 0.9, Rhythm: 0.9, Emotion: 0.9}, Radius: 0.1},
	}
	classifier, err := NewClassifier(taxonomy, domain.AxisPoint{})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	// Midpoint, outside both radii but nearer High.
	c := classifier.Classify(domain.FeatureVector{
		TrackID: "t1",
		Axes:    domain.AxisPoint{Position: 0.6, Texture: 0.6, Rhythm: 0.6, Emotion: 0.6},
	})
	if c.CategoryName != "High" {
		t.Fatalf("nearest category: got %q, want High", c.CategoryName)
	}
	if c.Confidence != 0 {
		t.Fatalf("outside every radius must score 0, got %v", c.Confidence)
	}
}

func TestClassifier_WeightedDistance(t *testing.T) {
	taxonomy := domain.Taxonomy{
		{Index: 0, Name: "ByPosition", Ideal: domain.AxisPoint{Position: 0.8, Texture: 0.2, Rhythm: 0.5, Emotion: 0.5}, Radius: 0.5},
		{Index: 1, Name: "ByTexture", Ideal: domain.AxisPoint{Position: 0.2, Texture: 0.8, Rhythm: 0.5, Emotion: 0.5}, Radius: 0.5},
	}
	// Position dominates the metric: a point equidistant in raw terms
	// resolves to the category matching its position coordinate.
	classifier, err := NewClassifier(taxonomy, domain.AxisPoint{Position: 10, Texture: 0.1, Rhythm: 1, Emotion: 1})
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	c := classifier.Classify(domain.FeatureVector{
		TrackID: "t1",
		Axes:    domain.AxisPoint{Position: 0.8, Texture: 0.8, Rhythm: 0.5, Emotion: 0.5},
	})
	if c.CategoryName != "ByPosition" {
		t.Fatalf("weighted distance: got %q, want ByPosition", c.CategoryName)
	}
}
