// Package services holds the classification and playlist-assembly engine:
// feature aggregation, tempo/key reconciliation, category scoring and set
// generation. Everything here is pure computation over inputs the caller
// owns; all I/O lives behind the ports.
package services

import (
	"github.com/mfleury/setcrate/internal/core/domain"
)

// AggregatorConfig holds the static axis coefficients. They are
// configuration, not a learned model: an extension point, not a hidden
// heuristic. The zero value is replaced by DefaultAggregatorConfig.
type AggregatorConfig struct {
	// Position axis blend. History weight is redistributed onto the audio
	// weights when no listening history exists.
	PositionEnergyWeight  float64
	PositionDanceWeight   float64
	PositionHistoryWeight float64

	// Confidence multiplier applied when position falls back to audio only.
	NoHistoryPenalty float64

	// Rhythm axis blend of danceability and the tempo stability signal.
	RhythmDanceWeight float64
	RhythmTempoWeight float64

	// Emotion axis blend of valence and normalized loudness.
	EmotionValenceWeight  float64
	EmotionLoudnessWeight float64
}

// DefaultAggregatorConfig returns the coefficients the engine ships with.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		PositionEnergyWeight:  0.40,
		PositionDanceWeight:   0.25,
		PositionHistoryWeight: 0.35,
		NoHistoryPenalty:      0.85,
		RhythmDanceWeight:     0.60,
		RhythmTempoWeight:     0.40,
		EmotionValenceWeight:  0.60,
		EmotionLoudnessWeight: 0.40,
	}
}

// Aggregator normalizes heterogeneous per-track inputs into one canonical
// feature vector. Aggregate is a pure function of its three inputs.
type Aggregator struct {
	cfg        AggregatorConfig
	reconciler *Reconciler
}

// NewAggregator constructs an Aggregator. A zero config selects the
// defaults; reconciler must not be nil.
func NewAggregator(cfg AggregatorConfig, reconciler *Reconciler) *Aggregator {
	if cfg == (AggregatorConfig{}) {
		cfg = DefaultAggregatorConfig()
	}
	return &Aggregator{cfg: cfg, reconciler: reconciler}
}

// Aggregate builds the canonical feature vector for a track. stats may be
// nil (no listening history); estimate may be nil (external lookup absent or
// failed). If the provider bundle is entirely missing the track cannot be
// aggregated and a MissingFeaturesError is returned: callers skip or defer
// the track rather than classify on fabricated data.
func (a *Aggregator) Aggregate(track domain.Track, stats *domain.HistoryStats, estimate *domain.TempoKeyEstimate) (domain.FeatureVector, error) {
	if track.Features.Missing() {
		return domain.FeatureVector{}, domain.MissingFeaturesError{TrackID: track.ID}
	}

	var extBPM float64
	var extKey *domain.Key
	if estimate != nil {
		extBPM = estimate.BPM
		extKey = estimate.Key
	}
	tempo := a.reconciler.ReconcileTempo(track.Features.Tempo, extBPM)
	key := a.reconciler.ReconcileKey(track.Features.ProviderKey(), extKey)

	confidence := 1.0

	position, posConf := a.positionAxis(track.Features, stats)
	confidence *= posConf

	rhythm := a.rhythmAxis(track.Features, tempo)
	if !tempo.Unknown() {
		confidence *= tempo.Confidence.Score()
	} else {
		// Unknown tempo degrades but never crashes downstream computation.
		confidence *= a.cfg.NoHistoryPenalty
	}

	return domain.FeatureVector{
		TrackID: track.ID,
		Axes: domain.AxisPoint{
			Position: position,
			Texture:  textureAxis(track.Features),
			Rhythm:   rhythm,
			Emotion:  a.emotionAxis(track.Features),
		},
		Tempo:      tempo,
		Key:        key,
		Confidence: domain.Clamp01(confidence),
	}, nil
}

// positionAxis blends energy, danceability and the history-derived set
// position. Without history the audio weights are renormalized and the
// vector confidence takes the configured penalty.
func (a *Aggregator) positionAxis(f domain.AudioFeatures, stats *domain.HistoryStats) (float64, float64) {
	we, wd, wh := a.cfg.PositionEnergyWeight, a.cfg.PositionDanceWeight, a.cfg.PositionHistoryWeight

	if stats == nil {
		total := we + wd
		return domain.Clamp01((we*f.Energy + wd*f.Danceability) / total), a.cfg.NoHistoryPenalty
	}

	total := we + wd + wh
	v := (we*f.Energy + wd*f.Danceability + wh*stats.AvgSetPosition) / total
	return domain.Clamp01(v), 1.0
}

// textureAxis maps acousticness and instrumentalness onto the organic-to-
// synthetic scale: high instrumentalness with low acousticness reads as full
// production, high acousticness as organic/stripped.
func textureAxis(f domain.AudioFeatures) float64 {
	return domain.Clamp01(0.55 + 0.35*f.Instrumentalness - 0.55*f.Acousticness)
}

// rhythmAxis combines danceability with the tempo stability signal. When
// tempo is unknown the axis falls back to danceability alone.
func (a *Aggregator) rhythmAxis(f domain.AudioFeatures, tempo domain.TempoValue) float64 {
	if tempo.Unknown() {
		return domain.Clamp01(f.Danceability)
	}
	stability := tempo.Confidence.Score()
	v := (a.cfg.RhythmDanceWeight*f.Danceability + a.cfg.RhythmTempoWeight*stability) /
		(a.cfg.RhythmDanceWeight + a.cfg.RhythmTempoWeight)
	return domain.Clamp01(v)
}

// emotionAxis blends valence with loudness normalized from the dB scale:
// quiet low-valence tracks read melancholic, loud high-valence euphoric.
func (a *Aggregator) emotionAxis(f domain.AudioFeatures) float64 {
	loudness := domain.Clamp01((f.Loudness + 60.0) / 60.0)
	v := (a.cfg.EmotionValenceWeight*f.Valence + a.cfg.EmotionLoudnessWeight*loudness) /
		(a.cfg.EmotionValenceWeight + a.cfg.EmotionLoudnessWeight)
	return domain.Clamp01(v)
}
