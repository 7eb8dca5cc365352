package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mfleury/setcrate/internal/core/domain"
	"github.com/mfleury/setcrate/internal/core/ports"
)

type recordingRepo struct {
	mu      sync.Mutex
	updates map[string][2]float64
}

var _ ports.LibraryRepository = (*recordingRepo)(nil)

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{updates: make(map[string][2]float64)}
}

func (r *recordingRepo) UpdateTrackAnalysis(ctx context.Context, trackID string, energy, loudness float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[trackID] = [2]float64{energy, loudness}
	return nil
}

func (r *recordingRepo) UpsertTracks(ctx context.Context, tracks []domain.Track) error { return nil }
func (r *recordingRepo) AllTracks(ctx context.Context) ([]domain.Track, error)         { return nil, nil }
func (r *recordingRepo) RecordPlays(ctx context.Context, events []domain.PlayEvent) error {
	return nil
}
func (r *recordingRepo) AllPlays(ctx context.Context) ([]domain.PlayEvent, error) { return nil, nil }
func (r *recordingRepo) SaveClassification(ctx context.Context, c domain.Classification) error {
	return nil
}
func (r *recordingRepo) LatestClassifications(ctx context.Context) ([]domain.ClassifiedTrack, error) {
	return nil, nil
}
func (r *recordingRepo) SavePlaylist(ctx context.Context, p domain.Playlist) error { return nil }
func (r *recordingRepo) GetPlaylist(ctx context.Context, id string) (domain.Playlist, []domain.Track, error) {
	return domain.Playlist{}, nil, domain.ErrNotFound
}

func withFakeAnalyzer(t *testing.T, fn func(url string) (float64, float64, error)) {
	t.Helper()
	orig := AnalyzePreviewFunc
	AnalyzePreviewFunc = fn
	t.Cleanup(func() { AnalyzePreviewFunc = orig })
}

func TestPool_BackfillsAnalysis(t *testing.T) {
	withFakeAnalyzer(t, func(url string) (float64, float64, error) {
		return 0.72, -8.4, nil
	})

	repo := newRecordingRepo()
	pool := NewPool(repo, 4)
	pool.Start(2)
	pool.Submit(Job{TrackID: "t1", PreviewURL: "https://preview.test/t1.mp3"})
	pool.Submit(Job{TrackID: "t2", PreviewURL: "https://preview.test/t2.mp3"})
	pool.Stop()

	if len(repo.updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(repo.updates))
	}
	got := repo.updates["t1"]
	if got[0] != 0.72 || got[1] != -8.4 {
		t.Fatalf("update: got %v, want [0.72 -8.4]", got)
	}
}

func TestPool_SkipsMissingPreview(t *testing.T) {
	called := false
	withFakeAnalyzer(t, func(url string) (float64, float64, error) {
		called = true
		return 0, 0, nil
	})

	repo := newRecordingRepo()
	pool := NewPool(repo, 1)
	pool.Start(1)
	pool.Submit(Job{TrackID: "t1"})
	pool.Stop()

	if called {
		t.Fatal("analyzer must not run without a preview URL")
	}
	if len(repo.updates) != 0 {
		t.Fatalf("expected no updates, got %v", repo.updates)
	}
}

func TestPool_AnalysisFailureLeavesTrackUntouched(t *testing.T) {
	withFakeAnalyzer(t, func(url string) (float64, float64, error) {
		return 0, 0, errors.New("decode failed")
	})

	repo := newRecordingRepo()
	pool := NewPool(repo, 1)
	pool.Start(1)
	pool.Submit(Job{TrackID: "t1", PreviewURL: "https://preview.test/t1.mp3"})
	pool.Stop()

	if len(repo.updates) != 0 {
		t.Fatalf("failed analysis must not update the track, got %v", repo.updates)
	}
}
