package ingest

import (
	"context"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Worker drains a bounded in-memory job queue with a fixed number of
// goroutines. Replacing the queue with an external broker only requires
// swapping this type; the pipeline itself is queue-agnostic.
type Worker struct {
	pipeline *Pipeline
	jobs     chan Job
	g        errgroup.Group
	log      *zap.SugaredLogger
}

func NewWorker(pipeline *Pipeline, queueDepth int, log *zap.SugaredLogger) *Worker {
	if queueDepth <= 0 {
		queueDepth = 64
	}
	return &Worker{
		pipeline: pipeline,
		jobs:     make(chan Job, queueDepth),
		log:      log,
	}
}

// Start launches numWorkers goroutines reading from the job queue. Each job
// runs under its own error boundary: a failed pipeline is logged and already
// recorded against the material, never propagated.
func (w *Worker) Start(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for i := 1; i <= numWorkers; i++ {
		id := i
		w.g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					w.log.Infow("ingest worker shutting down", "worker", id)
					w.drain()
					return nil
				case job := <-w.jobs:
					w.log.Infow("processing material", "worker", id, "material_id", job.MaterialID)
					if err := w.pipeline.ProcessOne(ctx, job); err != nil {
						w.log.Errorw("material processing failed", "worker", id, "material_id", job.MaterialID, "error", err)
					}
				}
			}
		})
	}
}

// drain discards jobs still buffered at shutdown. Their pipelines never ran,
// so the temp-file cleanup is done here; the reconciler flips their
// materials once the stuck TTL passes.
func (w *Worker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.log.Warnw("abandoning queued material on shutdown", "material_id", job.MaterialID)
			if err := os.Remove(job.LocalPath); err != nil && !os.IsNotExist(err) {
				w.log.Warnw("temp file cleanup failed", "material_id", job.MaterialID, "path", job.LocalPath, "error", err)
			}
		default:
			return
		}
	}
}

// Enqueue schedules a job for ingestion. If the queue is full, this call
// blocks until space frees up.
func (w *Worker) Enqueue(job Job) {
	w.jobs <- job
}

// Wait blocks until every worker goroutine has exited.
func (w *Worker) Wait() error {
	return w.g.Wait()
}
