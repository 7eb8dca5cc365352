package services

import (
	"math"

	"github.com/mfleury/setcrate/internal/core/domain"
)

// ReconcilerConfig tunes multi-source tempo/key reconciliation.
type ReconcilerConfig struct {
	// ToleranceFrac is the relative band within which two tempo estimates
	// count as agreeing, after octave folding. Default 0.03.
	ToleranceFrac float64

	// TrustedSource wins when the sources disagree. The external specialized
	// estimator is the default.
	TrustedSource domain.Source

	// PreferHalfTempo halves an octave-folded agreement result, for DJs who
	// file halftime material at its lower reading.
	PreferHalfTempo bool
}

// DefaultReconcilerConfig returns the shipped reconciliation settings.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		ToleranceFrac: 0.03,
		TrustedSource: domain.SourceExternal,
	}
}

// Reconciler merges potentially conflicting tempo and key estimates into
// single confidence-weighted values with half/double-time correction.
type Reconciler struct {
	cfg ReconcilerConfig
}

// NewReconciler constructs a Reconciler. A zero config selects defaults.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.ToleranceFrac <= 0 {
		cfg.ToleranceFrac = 0.03
	}
	if cfg.TrustedSource == "" {
		cfg.TrustedSource = domain.SourceExternal
	}
	return &Reconciler{cfg: cfg}
}

// ReconcileTempo merges the provider and external BPM estimates. A zero
// argument means that source is absent. Estimates exactly related by factor
// 2 or 0.5 are candidate matches before the tolerance check, since
// half/double-time confusion is the common detection error.
func (r *Reconciler) ReconcileTempo(providerBPM, externalBPM float64) domain.TempoValue {
	hasProvider := providerBPM > 0
	hasExternal := externalBPM > 0

	switch {
	case hasProvider && hasExternal:
		folded := foldOctave(externalBPM, providerBPM)
		if math.Abs(folded-providerBPM) <= r.cfg.ToleranceFrac*providerBPM {
			bpm := (providerBPM + folded) / 2
			if r.cfg.PreferHalfTempo && folded != externalBPM {
				bpm /= 2
			}
			return domain.TempoValue{BPM: bpm, Confidence: domain.ConfidenceHigh, Source: domain.SourceMerged}
		}
		// Disagreement: the configured higher-trust source wins, the
		// alternative is retained for audit.
		if r.cfg.TrustedSource == domain.SourceProvider {
			return domain.TempoValue{BPM: providerBPM, Confidence: domain.ConfidenceMedium, Source: domain.SourceProvider, AltBPM: externalBPM}
		}
		return domain.TempoValue{BPM: externalBPM, Confidence: domain.ConfidenceMedium, Source: domain.SourceExternal, AltBPM: providerBPM}
	case hasProvider:
		return domain.TempoValue{BPM: providerBPM, Confidence: domain.ConfidenceLow, Source: domain.SourceProvider}
	case hasExternal:
		return domain.TempoValue{BPM: externalBPM, Confidence: domain.ConfidenceLow, Source: domain.SourceExternal}
	default:
		return domain.TempoValue{Confidence: domain.ConfidenceNone, Source: domain.SourceNone}
	}
}

// foldOctave scales bpm by 1, 2 or 0.5, whichever lands closest to target.
func foldOctave(bpm, target float64) float64 {
	best := bpm
	for _, cand := range []float64{bpm, bpm * 2, bpm / 2} {
		if math.Abs(cand-target) < math.Abs(best-target) {
			best = cand
		}
	}
	return best
}

// ReconcileKey merges the provider and external key estimates. nil means
// that source is absent. Keys agree only on exact pitch class and mode.
func (r *Reconciler) ReconcileKey(providerKey, externalKey *domain.Key) domain.KeyValue {
	switch {
	case providerKey != nil && externalKey != nil:
		if *providerKey == *externalKey {
			return domain.KeyValue{Key: *providerKey, Confidence: domain.ConfidenceHigh, Source: domain.SourceMerged}
		}
		if r.cfg.TrustedSource == domain.SourceProvider {
			return domain.KeyValue{Key: *providerKey, Confidence: domain.ConfidenceMedium, Source: domain.SourceProvider, AltKey: externalKey}
		}
		return domain.KeyValue{Key: *externalKey, Confidence: domain.ConfidenceMedium, Source: domain.SourceExternal, AltKey: providerKey}
	case providerKey != nil:
		return domain.KeyValue{Key: *providerKey, Confidence: domain.ConfidenceLow, Source: domain.SourceProvider}
	case externalKey != nil:
		return domain.KeyValue{Key: *externalKey, Confidence: domain.ConfidenceLow, Source: domain.SourceExternal}
	default:
		return domain.KeyValue{Confidence: domain.ConfidenceNone, Source: domain.SourceNone}
	}
}
