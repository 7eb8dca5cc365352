package domain

import (
	"sort"
	"time"
)

// Gap between consecutive plays that starts a new listening session. Plays
// closer together than this are treated as one continuous set.
const sessionGap = 45 * time.Minute

// HistoryStats is the per-track aggregate derived from play events. It is
// recomputed from raw events whenever new history is ingested and is never
// mutated by the classifier.
type HistoryStats struct {
	PlayCount          int
	CompletionFraction float64 // fraction of plays completed vs. skipped
	AvgSetPosition     float64 // 0 = session opener, 1 = session closer
}

// ComputeSessionStats aggregates a full listening history into per-track
// stats. The event stream is clustered into sessions by timestamp gaps; a
// track's set position is its normalized index within each session it
// appears in, averaged over all its plays. Tracks absent from the map have
// no history.
func ComputeSessionStats(events []PlayEvent) map[string]*HistoryStats {
	if len(events) == 0 {
		return map[string]*HistoryStats{}
	}

	sorted := make([]PlayEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PlayedAt.Before(sorted[j].PlayedAt) })

	type acc struct {
		plays     int
		completed int
		posSum    float64
	}
	byTrack := make(map[string]*acc)

	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].PlayedAt.Sub(sorted[i-1].PlayedAt) <= sessionGap {
			continue
		}

		session := sorted[start:i]
		for j, ev := range session {
			pos := 0.5
			if len(session) > 1 {
				pos = float64(j) / float64(len(session)-1)
			}
			a := byTrack[ev.TrackID]
			if a == nil {
				a = &acc{}
				byTrack[ev.TrackID] = a
			}
			a.plays++
			if ev.Completed {
				a.completed++
			}
			a.posSum += pos
		}
		start = i
	}

	stats := make(map[string]*HistoryStats, len(byTrack))
	for id, a := range byTrack {
		stats[id] = &HistoryStats{
			PlayCount:          a.plays,
			CompletionFraction: float64(a.completed) / float64(a.plays),
			AvgSetPosition:     a.posSum / float64(a.plays),
		}
	}
	return stats
}
