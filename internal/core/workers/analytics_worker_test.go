package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu     sync.Mutex
	events []domain.CompletionEvent
	fail   bool
	done   chan struct{}
}

func newFakeRecorder(buffer int) *fakeRecorder {
	return &fakeRecorder{done: make(chan struct{}, buffer)}
}

func (f *fakeRecorder) RecordCompletion(ctx context.Context, ev domain.CompletionEvent) (*domain.AnalyticsRecord, error) {
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
	f.done <- struct{}{}

	if f.fail {
		return nil, errors.New("store down")
	}
	return domain.NewAnalyticsRecord(ev.UserID, ev.At), nil
}

func (f *fakeRecorder) recorded() []domain.CompletionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CompletionEvent(nil), f.events...)
}

func TestAnalyticsWorker_ProcessesJobs(t *testing.T) {
	recorder := newFakeRecorder(10)
	worker := NewAnalyticsWorker(recorder, nil, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	ev := domain.CompletionEvent{UserID: "u1", Kind: domain.KindHabit, EntityID: "h1", At: time.Now()}
	require.True(t, worker.Enqueue(ev))

	select {
	case <-recorder.done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	assert.Equal(t, []domain.CompletionEvent{ev}, recorder.recorded())

	cancel()
	worker.Wait()
}

func TestAnalyticsWorker_FailuresDoNotStopTheLoop(t *testing.T) {
	recorder := newFakeRecorder(10)
	recorder.fail = true
	worker := NewAnalyticsWorker(recorder, nil, 10)

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)

	worker.Enqueue(domain.CompletionEvent{UserID: "u1"})
	worker.Enqueue(domain.CompletionEvent{UserID: "u2"})

	for i := 0; i < 2; i++ {
		select {
		case <-recorder.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("job %d was not processed", i)
		}
	}

	cancel()
	worker.Wait()
	assert.Len(t, recorder.recorded(), 2)
}

func TestAnalyticsWorker_DropsWhenQueueIsFull(t *testing.T) {
	worker := NewAnalyticsWorker(newFakeRecorder(10), nil, 2)

	assert.True(t, worker.Enqueue(domain.CompletionEvent{UserID: "u1"}))
	assert.True(t, worker.Enqueue(domain.CompletionEvent{UserID: "u2"}))
	assert.False(t, worker.Enqueue(domain.CompletionEvent{UserID: "u3"}))
	assert.Equal(t, 2, worker.Pending())
}

func TestAnalyticsWorker_DrainsOnShutdown(t *testing.T) {
	recorder := newFakeRecorder(10)
	worker := NewAnalyticsWorker(recorder, nil, 10)

	for _, id := range []string{"u1", "u2", "u3"} {
		require.True(t, worker.Enqueue(domain.CompletionEvent{UserID: id}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	worker.Start(ctx)
	worker.Wait()

	assert.Zero(t, worker.Pending())
	assert.Len(t, recorder.recorded(), 3)
}

func TestNewAnalyticsWorker_DefaultQueueSize(t *testing.T) {
	worker := NewAnalyticsWorker(newFakeRecorder(1), nil, 0)
	assert.Equal(t, defaultQueueSize, cap(worker.jobs))
}
