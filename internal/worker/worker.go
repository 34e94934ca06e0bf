package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"scriba/internal/models"
	"scriba/internal/storage"
)

// Worker polls the job queue and processes one job at a time. Claiming
// a job and moving it to running is a single atomic update, so several
// workers can share a queue without double-processing.
type Worker struct {
	jobs        *storage.JobRepository
	transcripts *storage.TranscriptRepository
	runner      Runner
	interval    time.Duration
	stop        chan struct{}
	wg          sync.WaitGroup
}

// NewWorker creates a worker polling at the given interval.
func NewWorker(jobs *storage.JobRepository, transcripts *storage.TranscriptRepository, runner Runner, interval time.Duration) *Worker {
	return &Worker{
		jobs:        jobs,
		transcripts: transcripts,
		runner:      runner,
		interval:    interval,
		stop:        make(chan struct{}),
	}
}

// Start begins processing jobs
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
	log.Println("Worker started")
}

// Stop waits for the in-flight job to finish, then stops. A running job
// is never interrupted between iterations.
func (w *Worker) Stop() {
	close(w.stop)
	w.wg.Wait()
	log.Println("Worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		job, err := w.jobs.ClaimNextQueued(ctx)
		if err != nil {
			// Queue errors back off harder than an empty queue.
			log.Printf("Error claiming next job: %v", err)
			w.idle(ctx, 2*w.interval)
			continue
		}
		if job == nil {
			w.idle(ctx, w.interval)
			continue
		}

		w.processJob(ctx, job)
	}
}

// idle sleeps for d but wakes early on shutdown.
func (w *Worker) idle(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-w.stop:
	case <-timer.C:
	}
}

// processJob runs the pipeline for a claimed job and records the
// terminal state. Outputs are persisted before the job is marked done,
// so a done job always has its transcript row.
func (w *Worker) processJob(ctx context.Context, job *models.Job) {
	// Shutdown is honored only between iterations. A claimed job and its
	// terminal-status write run under a context that survives
	// cancellation, so a signal can never strand a job in running.
	ctx = context.WithoutCancel(ctx)

	log.Printf("Processing job %s (type: %s)", job.ID, job.Type)

	paths, err := w.runner.Run(ctx, job)
	if err != nil {
		jobErr := classify(err)
		if jobErr.Kind == KindUnexpected {
			log.Printf("Job %s failed unexpectedly: %v", job.ID, err)
		} else {
			log.Printf("Job %s failed (%s): %v", job.ID, jobErr.Kind, err)
		}
		if err := w.jobs.MarkFailed(ctx, job.ID, jobErr.userMessage()); err != nil {
			log.Printf("Error failing job %s: %v", job.ID, err)
		}
		return
	}

	if err := w.transcripts.SavePaths(ctx, job.ID, paths); err != nil {
		log.Printf("Error saving outputs for job %s: %v", job.ID, err)
		if err := w.jobs.MarkFailed(ctx, job.ID, "Failed to record transcript outputs."); err != nil {
			log.Printf("Error failing job %s: %v", job.ID, err)
		}
		return
	}

	if err := w.jobs.MarkDone(ctx, job.ID); err != nil {
		log.Printf("Error completing job %s: %v", job.ID, err)
		return
	}

	log.Printf("Job %s completed", job.ID)
}
