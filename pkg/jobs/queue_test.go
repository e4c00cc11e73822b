package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobOnce(t *testing.T) {
	var calls int32
	done := make(chan struct{}, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		done <- struct{}{}
		return errors.New("send failed")
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "notify"}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueueRecoversFromPanic(t *testing.T) {
	processed := make(chan string, 2)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if job.ID == "boom" {
			panic("notifier exploded")
		}
		processed <- job.ID
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "boom"}))
	require.NoError(t, q.Enqueue(Job{ID: "ok"}))

	select {
	case id := <-processed:
		assert.Equal(t, "ok", id)
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "1"}))
}

func TestQueueEnqueueAfterStop(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	q.Start(context.Background())
	q.Stop()
	assert.Error(t, q.Enqueue(Job{ID: "1"}))
}

func TestQueueIgnoresStartContextCancellation(t *testing.T) {
	ran := make(chan error, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		ran <- ctx.Err()
		return nil
	}, QueueConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	defer q.Stop()
	cancel()

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	select {
	case err := <-ran:
		assert.NoError(t, err, "handler context must outlive the start context")
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueStopDrainsBufferedJobs(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		<-release
		atomic.AddInt32(&calls, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}
	close(release)
	q.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Error(t, q.Enqueue(Job{ID: "4"}))
}

func TestQueueShutdownDeadlineCancelsHandlers(t *testing.T) {
	started := make(chan struct{})
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "slow"}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
