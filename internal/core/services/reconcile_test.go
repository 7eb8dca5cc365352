package services

import (
	"math"
	"testing"

	"github.com/mfleury/setcrate/internal/core/domain"
)

func TestReconciler_ReconcileTempo(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())

	tests := []struct {
		name           string
		providerBPM    float64
		externalBPM    float64
		wantBPM        float64
		wantConfidence domain.Confidence
		wantSource     domain.Source
		wantAltBPM     float64
	}{
		{
			name:        "agreement within tolerance",
			providerBPM: 128, externalBPM: 126,
			wantBPM: 127, wantConfidence: domain.ConfidenceHigh, wantSource: domain.SourceMerged,
		},
		{
			name:        "exact half-time folds to provider octave",
			providerBPM: 128, externalBPM: 64,
			wantBPM: 128, wantConfidence: domain.ConfidenceHigh, wantSource: domain.SourceMerged,
		},
		{
			name:        "double-time folds down",
			providerBPM: 87, externalBPM: 174,
			wantBPM: 87, wantConfidence: domain.ConfidenceHigh, wantSource: domain.SourceMerged,
		},
		{
			name:        "disagreement trusts external",
			providerBPM: 128, externalBPM: 140,
			wantBPM: 140, wantConfidence: domain.ConfidenceMedium, wantSource: domain.SourceExternal,
			wantAltBPM: 128,
		},
		{
			name:        "provider only",
			providerBPM: 122,
			wantBPM:     122, wantConfidence: domain.ConfidenceLow, wantSource: domain.SourceProvider,
		},
		{
			name:        "external only",
			externalBPM: 174,
			wantBPM:     174, wantConfidence: domain.ConfidenceLow, wantSource: domain.SourceExternal,
		},
		{
			name:           "neither",
			wantConfidence: domain.ConfidenceNone, wantSource: domain.SourceNone,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := r.ReconcileTempo(tt.providerBPM, tt.externalBPM)
			if math.Abs(got.BPM-tt.wantBPM) > 1e-9 {
				t.Fatalf("bpm: got %v, want %v", got.BPM, tt.wantBPM)
			}
			if got.Confidence != tt.wantConfidence {
				t.Fatalf("confidence: got %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if got.Source != tt.wantSource {
				t.Fatalf("source: got %v, want %v", got.Source, tt.wantSource)
			}
			if got.AltBPM != tt.wantAltBPM {
				t.Fatalf("alt bpm: got %v, want %v", got.AltBPM, tt.wantAltBPM)
			}
			if (tt.wantConfidence == domain.ConfidenceNone) != got.Unknown() {
				t.Fatalf("unknown flag inconsistent: %+v", got)
			}
		})
	}
}

func TestReconciler_TrustedProvider(t *testing.T) {
	cfg := DefaultReconcilerConfig()
	cfg.TrustedSource = domain.SourceProvider
	r := NewReconciler(cfg)

	got := r.ReconcileTempo(128, 140)
	if got.BPM != 128 || got.Source != domain.SourceProvider || got.AltBPM != 140 {
		t.Fatalf("expected provider to win, got %+v", got)
	}
}

func TestReconciler_PreferHalfTempo(t *testing.T) {
	cfg := DefaultReconcilerConfig()
	cfg.PreferHalfTempo = true
	r := NewReconciler(cfg)

	// Provider 170, external 85: folds up to agree; half preference keeps
	// the lower reading.
	got := r.ReconcileTempo(170, 85)
	if math.Abs(got.BPM-85) > 1e-9 {
		t.Fatalf("bpm: got %v, want 85", got.BPM)
	}
	if got.Confidence != domain.ConfidenceHigh {
		t.Fatalf("confidence: got %v, want high", got.Confidence)
	}
}

func TestReconciler_ReconcileKey(t *testing.T) {
	r := NewReconciler(DefaultReconcilerConfig())
	aMinor := &domain.Key{PitchClass: 9, Mode: domain.ModeMinor}
	cMajor := &domain.Key{PitchClass: 0, Mode: domain.ModeMajor}

	t.Run("agreement", func(t *testing.T) {
		got := r.ReconcileKey(aMinor, &domain.Key{PitchClass: 9, Mode: domain.ModeMinor})
		if got.Confidence != domain.ConfidenceHigh || got.Source != domain.SourceMerged {
			t.Fatalf("expected high merged, got %+v", got)
		}
		if got.Key != *aMinor {
			t.Fatalf("key: got %+v, want %+v", got.Key, *aMinor)
		}
	})

	t.Run("relative keys are still a disagreement", func(t *testing.T) {
		got := r.ReconcileKey(aMinor, cMajor)
		if got.Confidence != domain.ConfidenceMedium || got.Source != domain.SourceExternal {
			t.Fatalf("expected medium external, got %+v", got)
		}
		if got.Key != *cMajor {
			t.Fatalf("expected external key to win, got %+v", got.Key)
		}
		if got.AltKey == nil || *got.AltKey != *aMinor {
			t.Fatalf("alt key not retained: %+v", got.AltKey)
		}
	})

	t.Run("one source", func(t *testing.T) {
		got := r.ReconcileKey(aMinor, nil)
		if got.Confidence != domain.ConfidenceLow || got.Source != domain.SourceProvider {
			t.Fatalf("expected low provider, got %+v", got)
		}
	})

	t.Run("neither", func(t *testing.T) {
		got := r.ReconcileKey(nil, nil)
		if !got.Unknown() {
			t.Fatalf("expected unknown, got %+v", got)
		}
	})
}
