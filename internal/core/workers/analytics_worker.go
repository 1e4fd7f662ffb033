package workers

import (
	"context"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/metrics"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/platform/logger"
)

const defaultQueueSize = 100

type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, ev domain.CompletionEvent) (*domain.AnalyticsRecord, error)
}

type AnalyticsJob struct {
	Event domain.CompletionEvent
}

// AnalyticsWorker applies completion events to analytics records off the
// request path, so analytics failures never fail a completion.
type AnalyticsWorker struct {
	recorder   CompletionRecorder
	log        *logger.Logger
	jobs       chan AnalyticsJob
	jobTimeout time.Duration
	wg         sync.WaitGroup
}

func NewAnalyticsWorker(recorder CompletionRecorder, log *logger.Logger, queueSize int) *AnalyticsWorker {
	if queueSize < 1 {
		queueSize = defaultQueueSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AnalyticsWorker{
		recorder:   recorder,
		log:        log.With("component", "analytics_worker"),
		jobs:       make(chan AnalyticsJob, queueSize),
		jobTimeout: 5 * time.Second,
	}
}

func (w *AnalyticsWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.log.Info("analytics worker started")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				w.drain()
				w.log.Info("analytics worker shutting down")
				return
			}
		}
	}()
}

// Wait blocks until a started worker has returned.
func (w *AnalyticsWorker) Wait() {
	w.wg.Wait()
}

// Enqueue never blocks: with a full queue the job is dropped and counted.
func (w *AnalyticsWorker) Enqueue(ev domain.CompletionEvent) bool {
	select {
	case w.jobs <- AnalyticsJob{Event: ev}:
		return true
	default:
		metrics.WorkerJobsDropped.Inc()
		w.log.Warn("analytics queue full, dropping job", "user_id", ev.UserID, "kind", ev.Kind, "entity_id", ev.EntityID)
		return false
	}
}

func (w *AnalyticsWorker) Pending() int {
	return len(w.jobs)
}

// drain processes what is already queued with a fresh context so a shutdown
// does not silently lose accepted completions.
func (w *AnalyticsWorker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.processJob(context.Background(), job)
		default:
			return
		}
	}
}

func (w *AnalyticsWorker) processJob(ctx context.Context, job AnalyticsJob) {
	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	ev := job.Event
	if _, err := w.recorder.RecordCompletion(ctx, ev); err != nil {
		w.log.Error("analytics update failed", "user_id", ev.UserID, "kind", ev.Kind, "entity_id", ev.EntityID, "error", err)
	}
}
