package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mfleury/setcrate/internal/core/domain"
)

// GeneratorConfig tunes playlist assembly.
type GeneratorConfig struct {
	// MaxBacktracks bounds the strict-mode search when a greedy walk dead-
	// ends. Best-effort heuristic, not an exact solver. Default 24.
	MaxBacktracks int

	// LoosePenalty is subtracted per Camelot-distance step beyond
	// compatibility when ranking candidates in loose mode. Default 0.12.
	LoosePenalty float64
}

// DefaultGeneratorConfig returns the shipped generation settings.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{MaxBacktracks: 24, LoosePenalty: 0.12}
}

// Generator selects and orders classified tracks into a playable set under
// duration, tempo and harmonic-flow constraints.
type Generator struct {
	cfg GeneratorConfig
}

// NewGenerator constructs a Generator. A zero config selects defaults.
func NewGenerator(cfg GeneratorConfig) *Generator {
	if cfg.MaxBacktracks <= 0 {
		cfg.MaxBacktracks = 24
	}
	if cfg.LoosePenalty <= 0 {
		cfg.LoosePenalty = 0.12
	}
	return &Generator{cfg: cfg}
}

// Generate builds a playlist from the given classified tracks. The
// candidate pool is every track whose latest classification falls in
// targetCategories and whose tempo, if a range is constrained, lies inside
// it; tracks with unknown tempo are excluded only from tempo-constrained
// runs. The playlist is always returned; degradations surface as flags and
// warnings, never as silent truncation.
func (g *Generator) Generate(name string, classified []domain.ClassifiedTrack, targetCategories []string, cons domain.Constraints) (domain.Playlist, error) {
	if len(targetCategories) == 0 {
		return domain.Playlist{}, fmt.Errorf("generator: no target categories")
	}
	if cons.Harmonic == "" {
		cons.Harmonic = domain.HarmonicOff
	}

	pool := g.candidatePool(classified, targetCategories, cons)

	var (
		ordered  []domain.ClassifiedTrack
		harmonic = true
		warnings []string
	)
	switch cons.Harmonic {
	case domain.HarmonicStrict:
		var complete bool
		ordered, complete = g.orderHarmonic(pool, cons, true)
		if !complete {
			harmonic = false
			warnings = append(warnings, domain.ErrNoCompatibleOrdering.Error())
		}
	case domain.HarmonicLoose:
		ordered, _ = g.orderHarmonic(pool, cons, false)
		harmonic = adjacentCompatible(ordered)
	default:
		ordered = g.takeByDuration(pool, cons.TargetDurationSec)
	}

	ids := make([]string, len(ordered))
	totalMs := 0
	for i, ct := range ordered {
		ids[i] = ct.Track.ID
		totalMs += ct.Track.DurationMs
	}

	durationSatisfied := true
	if cons.TargetDurationSec > 0 {
		durationSatisfied = totalMs >= cons.TargetDurationSec*1000
	}

	return domain.Playlist{
		ID:                uuid.NewString(),
		Name:              name,
		TrackIDs:          ids,
		Constraints:       cons,
		DurationSatisfied: durationSatisfied,
		HarmonicSatisfied: harmonic,
		Warnings:          warnings,
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// candidatePool filters and orders candidates by descending classification
// confidence, with track id as the deterministic tiebreak.
func (g *Generator) candidatePool(classified []domain.ClassifiedTrack, targets []string, cons domain.Constraints) []domain.ClassifiedTrack {
	want := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		want[t] = struct{}{}
	}

	var pool []domain.ClassifiedTrack
	for _, ct := range classified {
		if _, ok := want[ct.Classification.CategoryName]; !ok {
			continue
		}
		if cons.TempoConstrained() {
			tempo := ct.Classification.Tempo
			if tempo.Unknown() {
				continue
			}
			if cons.MinBPM > 0 && tempo.BPM < cons.MinBPM {
				continue
			}
			if cons.MaxBPM > 0 && tempo.BPM > cons.MaxBPM {
				continue
			}
		}
		pool = append(pool, ct)
	}

	sort.Slice(pool, func(i, j int) bool {
		ci, cj := pool[i].Classification.Confidence, pool[j].Classification.Confidence
		if ci != cj {
			return ci > cj
		}
		return pool[i].Track.ID < pool[j].Track.ID
	})
	return pool
}

// takeByDuration appends tracks in pool order until the soft duration
// target is met or exceeded; the overshoot is at most the final track.
func (g *Generator) takeByDuration(pool []domain.ClassifiedTrack, targetSec int) []domain.ClassifiedTrack {
	if targetSec <= 0 {
		return pool
	}
	var out []domain.ClassifiedTrack
	totalMs := 0
	for _, ct := range pool {
		if totalMs >= targetSec*1000 {
			break
		}
		out = append(out, ct)
		totalMs += ct.Track.DurationMs
	}
	return out
}

// orderHarmonic walks the pool greedily from the highest-confidence track,
// always taking the best-ranked compatible unused candidate. In strict mode
// a dead end triggers backtracking, bounded by MaxBacktracks; when the
// budget runs out the longest path found so far is kept and the remaining
// tracks are appended unordered. Tracks with unknown key carry no harmonic
// constraint in either direction.
func (g *Generator) orderHarmonic(pool []domain.ClassifiedTrack, cons domain.Constraints, strict bool) ([]domain.ClassifiedTrack, bool) {
	if len(pool) == 0 {
		return nil, true
	}

	targetMs := cons.TargetDurationSec * 1000
	done := func(path []int, durMs int) bool {
		if targetMs > 0 && durMs >= targetMs {
			return true
		}
		return len(path) == len(pool)
	}

	used := make([]bool, len(pool))
	path := []int{0}
	used[0] = true
	durMs := pool[0].Track.DurationMs

	bestPath := append([]int(nil), path...)
	backtracks := 0
	// Next candidate rank to try at each depth, so backtracking resumes
	// where the previous attempt left off.
	nextRank := []int{0}

	for !done(path, durMs) {
		last := path[len(path)-1]
		cands := g.rankCandidates(pool, used, pool[last], strict)

		rank := nextRank[len(nextRank)-1]
		if rank < len(cands) {
			pick := cands[rank]
			nextRank[len(nextRank)-1]++
			path = append(path, pick)
			used[pick] = true
			durMs += pool[pick].Track.DurationMs
			nextRank = append(nextRank, 0)
			if len(path) > len(bestPath) {
				bestPath = append([]int(nil), path...)
			}
			continue
		}

		// Dead end: no compatible unused track from here.
		if !strict || len(path) <= 1 || backtracks >= g.cfg.MaxBacktracks {
			break
		}
		backtracks++
		drop := path[len(path)-1]
		path = path[:len(path)-1]
		nextRank = nextRank[:len(nextRank)-1]
		used[drop] = false
		durMs -= pool[drop].Track.DurationMs
	}

	complete := done(path, durMs)
	if complete || len(path) >= len(bestPath) {
		bestPath = path
	}

	out := make([]domain.ClassifiedTrack, 0, len(pool))
	inPath := make([]bool, len(pool))
	for _, i := range bestPath {
		out = append(out, pool[i])
		inPath[i] = true
	}
	if !complete && strict {
		// Give up: remainder appended unordered (pool order), flagged by the
		// caller via the incomplete result.
		for i := range pool {
			if !inPath[i] {
				out = append(out, pool[i])
			}
		}
	}
	return out, complete
}

// rankCandidates returns unused candidate indexes ordered best-first. In
// strict mode only Camelot-compatible tracks qualify; in loose mode every
// unused track qualifies and key jumps are penalized in the ordering score.
func (g *Generator) rankCandidates(pool []domain.ClassifiedTrack, used []bool, from domain.ClassifiedTrack, strict bool) []int {
	type scored struct {
		idx   int
		score float64
	}
	var cands []scored
	for i, ct := range pool {
		if used[i] {
			continue
		}
		dist, constrained := keyDistance(from, ct)
		if strict && constrained && dist > 1 {
			continue
		}
		score := ct.Classification.Confidence
		if constrained && dist > 1 {
			score -= g.cfg.LoosePenalty * float64(dist-1)
		}
		cands = append(cands, scored{idx: i, score: score})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return pool[cands[i].idx].Track.ID < pool[cands[j].idx].Track.ID
	})
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.idx
	}
	return out
}

// keyDistance returns the Camelot distance between two tracks and whether
// the pair is harmonically constrained at all. Unknown keys are
// unconstrained.
func keyDistance(a, b domain.ClassifiedTrack) (int, bool) {
	ka, kb := a.Classification.Key, b.Classification.Key
	if ka.Unknown() || kb.Unknown() {
		return 0, false
	}
	return ka.Key.CamelotDistance(kb.Key), true
}

// adjacentCompatible reports whether every adjacent pair with known keys
// satisfies the Camelot rule.
func adjacentCompatible(ordered []domain.ClassifiedTrack) bool {
	for i := 1; i < len(ordered); i++ {
		dist, constrained := keyDistance(ordered[i-1], ordered[i])
		if constrained && dist > 1 {
			return false
		}
	}
	return true
}
