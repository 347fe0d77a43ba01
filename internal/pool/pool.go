package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/podaac/swodlr-async-update/internal/domain"
	"github.com/podaac/swodlr-async-update/internal/metrics"
	"github.com/podaac/swodlr-async-update/internal/usecase"
)

// WorkerPool manages a fixed-size pool of goroutines that process batches.
// Messages within a batch run sequentially inside the usecase; the pool only
// parallelizes whole batches. The default size is 1, which keeps status rows
// for any one product in arrival order.
type WorkerPool struct {
	size    int
	batches <-chan *domain.BatchMessage
	batchUC *usecase.ProcessBatchUsecase
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new fixed-size batch worker pool.
func NewWorkerPool(size int, batches <-chan *domain.BatchMessage, batchUC *usecase.ProcessBatchUsecase, logger *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		batches: batches,
		batchUC: batchUC,
		logger:  logger,
	}
}

// Start launches all worker goroutines. Call Stop to wait for them to finish.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("pool_size", p.size))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to finish their current batches and exit.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Worker shutting down", zap.Int("worker_id", id))
			return
		case msg, ok := <-p.batches:
			if !ok {
				p.logger.Debug("Batch channel closed", zap.Int("worker_id", id))
				return
			}
			p.handle(ctx, id, msg)
		}
	}
}

func (p *WorkerPool) handle(ctx context.Context, id int, msg *domain.BatchMessage) {
	p.logger.Debug("Worker processing batch",
		zap.Int("worker_id", id),
		zap.String("message_id", msg.MessageID),
	)

	metrics.WorkersActive.Inc()
	startTime := time.Now()

	err := p.process(ctx, id, msg)

	metrics.BatchDuration.Observe(time.Since(startTime).Seconds())
	metrics.WorkersActive.Dec()

	if err != nil {
		p.logger.Error("Batch processing failed",
			zap.Int("worker_id", id),
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)

		// Nack without requeue so the delivery lands in the DLQ. Requeuing a
		// deterministic failure would loop forever.
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Error("Failed to NACK batch",
				zap.String("message_id", msg.MessageID),
				zap.Error(nackErr),
			)
		}
		return
	}

	// The batch is fully handled: ack so the host does not redeliver it.
	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Error("Failed to ACK batch",
			zap.String("message_id", msg.MessageID),
			zap.Error(ackErr),
		)
	}
}

// process runs the orchestrator, converting a panic into an error so the
// worker goroutine survives and the delivery is nacked rather than stuck
// unacknowledged.
func (p *WorkerPool) process(ctx context.Context, id int, msg *domain.BatchMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Batch panic recovered",
				zap.Int("worker_id", id),
				zap.String("message_id", msg.MessageID),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("pool: batch panicked: %v", r)
		}
	}()

	return p.batchUC.Process(ctx, msg.MessageID, msg.Body)
}
