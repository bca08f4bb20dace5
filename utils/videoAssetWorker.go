package utils

import (
	"academy/logger"
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VideoAssetJob is one Mux event waiting to be applied. Done receives the outcome.
type VideoAssetJob struct {
	Event VideoAssetEvent
	Done  func(applied bool, err error)
}

// VideoAssetWorker applies Mux events off the request path
type VideoAssetWorker struct {
	db   *gorm.DB
	jobs chan VideoAssetJob

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// AssetWorker is the running worker, nil when none was started
var AssetWorker *VideoAssetWorker

// StartVideoAssetWorker launches workers goroutines reading from a queue of queueSize jobs
func StartVideoAssetWorker(db *gorm.DB, workers, queueSize int) *VideoAssetWorker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	w := &VideoAssetWorker{
		db:   db,
		jobs: make(chan VideoAssetJob, queueSize),
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	logger.Log.Info("video asset worker started", zap.Int("workers", workers), zap.Int("queue", queueSize))
	return w
}

func (w *VideoAssetWorker) run() {
	defer w.wg.Done()
	for job := range w.jobs {
		runVideoAssetJob(w.db, job)
	}
}

// Enqueue returns false when the worker is stopped or the queue is full
func (w *VideoAssetWorker) Enqueue(job VideoAssetJob) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return false
	}
	select {
	case w.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for queued jobs to finish or ctx to expire
func (w *VideoAssetWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.jobs)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runVideoAssetJob(db *gorm.DB, job VideoAssetJob) {
	applied, err := ApplyVideoAssetEvent(db, job.Event)
	if err != nil {
		logger.Log.Error("applying video event failed",
			zap.String("event_id", job.Event.EventID),
			zap.String("type", job.Event.Type),
			zap.Error(err))
	}
	if job.Done != nil {
		job.Done(applied, err)
	}
}

// DispatchVideoAssetJob queues job on AssetWorker, or applies it inline when no worker can take it
func DispatchVideoAssetJob(db *gorm.DB, job VideoAssetJob) {
	if AssetWorker != nil && AssetWorker.Enqueue(job) {
		return
	}
	runVideoAssetJob(db, job)
}
