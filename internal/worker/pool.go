// Package worker provides background processing for preview-audio analysis.
// Tracks whose provider feature bundle carries a zero energy can have it
// backfilled by measuring the preview clip.
package worker

import (
	"context"
	"log"
	"sync"

	"github.com/mfleury/setcrate/internal/core/ports"
)

// Job identifies one preview clip to analyze.
type Job struct {
	TrackID    string
	PreviewURL string
}

// Pool manages background workers for preview analysis.
type Pool struct {
	repo ports.LibraryRepository
	jobs chan Job
	wg   sync.WaitGroup
}

// NewPool creates a worker pool with the given queue size.
func NewPool(repo ports.LibraryRepository, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{repo: repo, jobs: make(chan Job, queueSize)}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop waits for workers to finish after closing the queue.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) {
	select {
	case p.jobs <- job:
	default:
		log.Printf("WARN worker: dropping job for %s", job.TrackID)
	}
}

func (p *Pool) processJob(job Job) {
	if job.PreviewURL == "" {
		log.Printf("WARN worker: no preview URL for track %s, skipping analysis", job.TrackID)
		return
	}

	energy, loudness, err := AnalyzePreviewFunc(job.PreviewURL)
	if err != nil {
		log.Printf("WARN worker: preview analysis for %s failed: %v", job.TrackID, err)
		return
	}

	if err := p.repo.UpdateTrackAnalysis(context.Background(), job.TrackID, energy, loudness); err != nil {
		log.Printf("WARN worker: failed to update track %s: %v", job.TrackID, err)
		return
	}
	log.Printf("worker: backfilled energy %.2f loudness %.1f for track %s", energy, loudness, job.TrackID)
}
