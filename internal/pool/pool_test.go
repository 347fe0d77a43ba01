package pool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/podaac/swodlr-async-update/internal/domain"
	"github.com/podaac/swodlr-async-update/internal/pool"
	"github.com/podaac/swodlr-async-update/internal/repository/mock"
	"github.com/podaac/swodlr-async-update/internal/usecase"
)

func newTestPool(t *testing.T, poolSize int, transitions *mock.TransitionRepository, opts usecase.Options) (chan *domain.BatchMessage, *pool.WorkerPool, context.CancelFunc) {
	t.Helper()

	logger := zap.NewNop()
	products := &mock.ProductRepository{}
	dedup := &mock.DedupStore{}
	uc := usecase.NewProcessBatchUsecase(products, transitions, dedup, opts, logger)

	ch := make(chan *domain.BatchMessage, 16)
	ctx, cancel := context.WithCancel(context.Background())
	wp := pool.NewWorkerPool(poolSize, ch, uc, logger)
	wp.Start(ctx)

	return ch, wp, cancel
}

func sendBatch(ch chan<- *domain.BatchMessage, acked *atomic.Int32, nacked *atomic.Int32) {
	ch <- &domain.BatchMessage{
		MessageID: "", // no broker id: dedup is skipped
		Body:      []byte(`[{"job_status": "job-failed", "product_id": "9834b3aa-d3d1-49fa-b8ec-a4482e80c8be"}]`),
		Ack: func() error {
			acked.Add(1)
			return nil
		},
		Nack: func(requeue bool) error {
			nacked.Add(1)
			return nil
		},
	}
}

// Test: pool processes batches and ACKs them.
func TestPool_ProcessAndAck(t *testing.T) {
	transitions := &mock.TransitionRepository{}
	ch, wp, cancel := newTestPool(t, 2, transitions, usecase.Options{})

	var acked, nacked atomic.Int32

	for i := 0; i < 5; i++ {
		sendBatch(ch, &acked, &nacked)
	}

	// Give workers time to process.
	time.Sleep(200 * time.Millisecond)

	cancel()
	wp.Stop()

	if acked.Load() != 5 {
		t.Errorf("expected 5 ACKs, got %d", acked.Load())
	}
	if nacked.Load() != 0 {
		t.Errorf("expected 0 NACKs, got %d", nacked.Load())
	}
}

// Test: with the isolation policy (default), a persistence failure is still
// ACKed — the batch invocation completes.
func TestPool_PersistenceFailureStillAcked(t *testing.T) {
	transitions := &mock.TransitionRepository{
		RecordTransitionFn: func(ctx context.Context, tr domain.Transition) error {
			return errors.New("connection refused")
		},
	}
	ch, wp, cancel := newTestPool(t, 1, transitions, usecase.Options{})

	var acked, nacked atomic.Int32
	sendBatch(ch, &acked, &nacked)

	time.Sleep(200 * time.Millisecond)

	cancel()
	wp.Stop()

	if acked.Load() != 1 {
		t.Errorf("expected 1 ACK, got %d", acked.Load())
	}
	if nacked.Load() != 0 {
		t.Errorf("expected 0 NACKs, got %d", nacked.Load())
	}
}

// Test: with the requeue policy enabled, a persistence failure NACKs the
// delivery (no requeue — the DLX handles it).
func TestPool_NacksUnderRequeuePolicy(t *testing.T) {
	transitions := &mock.TransitionRepository{
		RecordTransitionFn: func(ctx context.Context, tr domain.Transition) error {
			return errors.New("connection refused")
		},
	}
	ch, wp, cancel := newTestPool(t, 1, transitions, usecase.Options{
		RequeueOnPersistenceError: true,
	})

	var acked, nacked atomic.Int32
	sendBatch(ch, &acked, &nacked)

	time.Sleep(200 * time.Millisecond)

	cancel()
	wp.Stop()

	if nacked.Load() != 1 {
		t.Errorf("expected 1 NACK, got %d", nacked.Load())
	}
	if acked.Load() != 0 {
		t.Errorf("expected 0 ACKs, got %d", acked.Load())
	}
}

// Test: a panic while processing one batch is recovered, the delivery is
// NACKed, and the same worker keeps consuming later batches.
func TestPool_RecoversFromPanic(t *testing.T) {
	transitions := &mock.TransitionRepository{
		RecordTransitionFn: func(ctx context.Context, tr domain.Transition) error {
			panic("boom")
		},
	}
	ch, wp, cancel := newTestPool(t, 1, transitions, usecase.Options{})

	var acked, nacked atomic.Int32

	// First batch writes a transition and panics inside the repository.
	sendBatch(ch, &acked, &nacked)

	// Second batch is waiting-only: no write, so it must be ACKed by the
	// surviving worker.
	ch <- &domain.BatchMessage{
		Body: []byte(`[{"job_status": "job-queued", "product_id": "9834b3aa-d3d1-49fa-b8ec-a4482e80c8be"}]`),
		Ack: func() error {
			acked.Add(1)
			return nil
		},
		Nack: func(requeue bool) error {
			nacked.Add(1)
			return nil
		},
	}

	time.Sleep(200 * time.Millisecond)

	cancel()
	wp.Stop()

	if nacked.Load() != 1 {
		t.Errorf("expected 1 NACK for the panicking batch, got %d", nacked.Load())
	}
	if acked.Load() != 1 {
		t.Errorf("expected 1 ACK from the surviving worker, got %d", acked.Load())
	}
}

// Test: pool shuts down gracefully (context cancellation).
func TestPool_GracefulShutdown(t *testing.T) {
	transitions := &mock.TransitionRepository{}
	ch, wp, cancel := newTestPool(t, 4, transitions, usecase.Options{})

	// Send some batches then immediately cancel.
	var acked, nacked atomic.Int32
	sendBatch(ch, &acked, &nacked)
	sendBatch(ch, &acked, &nacked)

	// Small delay so at least one batch gets picked up.
	time.Sleep(50 * time.Millisecond)
	cancel()
	wp.Stop()
	close(ch)

	total := acked.Load() + nacked.Load()
	if total < 1 {
		t.Errorf("expected at least 1 processed batch, got %d", total)
	}
}
