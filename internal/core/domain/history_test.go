package domain

import (
	"testing"
	"time"
)

func TestComputeSessionStats(t *testing.T) {
	base := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	ev := func(id string, offset time.Duration, completed bool) PlayEvent {
		return PlayEvent{TrackID: id, PlayedAt: base.Add(offset), Completed: completed}
	}

	// One evening session of three plays, then a second session the next day
	// (gap well over 45 minutes) holding a single play.
	events := []PlayEvent{
		ev("opener", 0, true),
		ev("mid", 10*time.Minute, true),
		ev("closer", 20*time.Minute, false),
		ev("solo", 24*time.Hour, true),
	}

	stats := ComputeSessionStats(events)

	tests := []struct {
		id         string
		plays      int
		completion float64
		position   float64
	}{
		{"opener", 1, 1.0, 0.0},
		{"mid", 1, 1.0, 0.5},
		{"closer", 1, 0.0, 1.0},
		{"solo", 1, 1.0, 0.5}, // singleton session sits mid-set
	}
	for _, tt := range tests {
		s := stats[tt.id]
		if s == nil {
			t.Fatalf("%s: no stats", tt.id)
		}
		if s.PlayCount != tt.plays {
			t.Fatalf("%s: plays got %d, want %d", tt.id, s.PlayCount, tt.plays)
		}
		if s.CompletionFraction != tt.completion {
			t.Fatalf("%s: completion got %v, want %v", tt.id, s.CompletionFraction, tt.completion)
		}
		if s.AvgSetPosition != tt.position {
			t.Fatalf("%s: position got %v, want %v", tt.id, s.AvgSetPosition, tt.position)
		}
	}

	if _, ok := stats["never-played"]; ok {
		t.Fatal("unexpected stats for track with no plays")
	}
}

func TestComputeSessionStats_AveragesAcrossSessions(t *testing.T) {
	base := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	events := []PlayEvent{
		// Session 1: track opens.
		{TrackID: "t1", PlayedAt: base, Completed: true},
		{TrackID: "other", PlayedAt: base.Add(5 * time.Minute), Completed: true},
		// Session 2: same track closes.
		{TrackID: "other", PlayedAt: base.Add(3 * time.Hour), Completed: true},
		{TrackID: "t1", PlayedAt: base.Add(3*time.Hour + 5*time.Minute), Completed: true},
	}

	stats := ComputeSessionStats(events)
	s := stats["t1"]
	if s == nil {
		t.Fatal("no stats for t1")
	}
	if s.PlayCount != 2 {
		t.Fatalf("plays: got %d, want 2", s.PlayCount)
	}
	// Opened one session (0.0), closed another (1.0).
	if s.AvgSetPosition != 0.5 {
		t.Fatalf("avg position: got %v, want 0.5", s.AvgSetPosition)
	}
}

func TestComputeSessionStats_UnsortedInput(t *testing.T) {
	base := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
	events := []PlayEvent{
		{TrackID: "b", PlayedAt: base.Add(10 * time.Minute), Completed: true},
		{TrackID: "a", PlayedAt: base, Completed: true},
	}

	stats := ComputeSessionStats(events)
	if stats["a"].AvgSetPosition != 0.0 {
		t.Fatalf("a position: got %v, want 0.0", stats["a"].AvgSetPosition)
	}
	if stats["b"].AvgSetPosition != 1.0 {
		t.Fatalf("b position: got %v, want 1.0", stats["b"].AvgSetPosition)
	}
}

func TestComputeSessionStats_Empty(t *testing.T) {
	stats := ComputeSessionStats(nil)
	if len(stats) != 0 {
		t.Fatalf("expected empty stats, got %d entries", len(stats))
	}
}
