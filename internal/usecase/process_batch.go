package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/podaac/swodlr-async-update/internal/domain"
	"github.com/podaac/swodlr-async-update/internal/metrics"
	"github.com/podaac/swodlr-async-update/internal/repository"
	"github.com/podaac/swodlr-async-update/internal/validator"
)

// Options control batch-level policy.
type Options struct {
	// RequeueOnPersistenceError re-raises persistence failures to the caller
	// so the host can redeliver the whole batch. Off by default: status and
	// granule inserts are not idempotent, and redelivery would double-write
	// messages that already committed. The dedup store guards the residual
	// redelivery window.
	RequeueOnPersistenceError bool

	// DedupTTL bounds how long a processed delivery is remembered.
	DedupTTL time.Duration
}

// ProcessBatchUsecase drives one batch of SDS status notifications through
// validate, classify, resolve and write, isolating failures per message.
type ProcessBatchUsecase struct {
	products    repository.ProductRepository
	transitions repository.TransitionRepository
	dedup       repository.DedupStore
	opts        Options
	logger      *zap.Logger
}

// NewProcessBatchUsecase creates a new ProcessBatchUsecase.
func NewProcessBatchUsecase(
	products repository.ProductRepository,
	transitions repository.TransitionRepository,
	dedup repository.DedupStore,
	opts Options,
	logger *zap.Logger,
) *ProcessBatchUsecase {
	if opts.DedupTTL <= 0 {
		opts.DedupTTL = 10 * time.Minute
	}
	return &ProcessBatchUsecase{
		products:    products,
		transitions: transitions,
		dedup:       dedup,
		opts:        opts,
		logger:      logger,
	}
}

// Process handles one delivered batch body. It returns nil when the batch is
// fully handled (individual message failures included, per policy); a non-nil
// error signals the caller to nack the delivery.
func (uc *ProcessBatchUsecase) Process(ctx context.Context, messageID string, body []byte) error {
	// Step 1: drop redelivered batches. Without a broker message id there is
	// nothing to key on, so the delivery is processed as-is.
	if messageID != "" && uc.dedup != nil {
		acquired, err := uc.dedup.AcquireLock(ctx, messageID, uc.opts.DedupTTL)
		if err != nil {
			// Dedup store unavailable: prefer processing over dropping, at
			// the cost of a possible double-write on redelivery.
			uc.logger.Warn("Dedup check failed, processing anyway",
				zap.Error(err), zap.String("message_id", messageID))
		} else if !acquired {
			uc.logger.Info("Duplicate batch delivery, skipping",
				zap.String("message_id", messageID))
			metrics.BatchesTotal.WithLabelValues("duplicate").Inc()
			return nil
		}
	}

	// Step 2: decode the batch envelope. An undecodable body is a poison
	// message; it is logged and acked so it does not redeliver forever.
	elems, err := validator.DecodeBatch(body)
	if err != nil {
		uc.logger.Error("Batch failed to decode",
			zap.Error(err), zap.String("message_id", messageID))
		metrics.BatchesTotal.WithLabelValues("undecodable").Inc()
		return nil
	}
	uc.logger.Debug("Batch received", zap.Int("jobs", len(elems)))

	// Step 3: decode and validate each job, dropping invalid ones without
	// aborting the rest. A type-mismatched field fails only its own job.
	jobs := make([]domain.JobUpdate, 0, len(elems))
	for _, elem := range elems {
		raw, err := validator.DecodeJob(elem)
		if err != nil {
			uc.logger.Error("Job failed to decode",
				zap.Error(err),
				zap.ByteString("job", elem),
			)
			metrics.JobsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
			continue
		}
		job, err := validator.ValidateJob(raw)
		if err != nil {
			uc.logger.Error("Job failed to validate",
				zap.Error(err),
				zap.String("job_status", raw.JobStatus),
				zap.String("product_id", raw.ProductID),
			)
			metrics.JobsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
			continue
		}
		jobs = append(jobs, job)
	}

	// Steps 4-6: classify, resolve and write each job independently.
	var persistErr error
	for _, job := range jobs {
		if err := uc.processJob(ctx, job); err != nil {
			uc.logger.Error("Job update failed",
				zap.Error(err),
				zap.String("product_id", job.ProductID.String()),
				zap.String("job_status", job.JobStatus),
				zap.String("stage", job.Stage),
			)
			metrics.JobsTotal.WithLabelValues(metrics.OutcomeWriteFailed).Inc()
			persistErr = err
		}
	}

	if persistErr != nil {
		metrics.BatchesTotal.WithLabelValues("partial").Inc()
		if uc.opts.RequeueOnPersistenceError {
			return fmt.Errorf("usecase: batch had persistence failures: %w", persistErr)
		}
		return nil
	}

	metrics.BatchesTotal.WithLabelValues("ok").Inc()
	return nil
}

// processJob runs the pipeline for one validated job. Only resolver and
// writer errors propagate; a missing product is dropped here.
func (uc *ProcessBatchUsecase) processJob(ctx context.Context, job domain.JobUpdate) error {
	c := domain.Classify(job.JobStatus, job.Stage)
	if c.IsWaiting() {
		// Intermediate status: no lookup, no write.
		metrics.JobsTotal.WithLabelValues(metrics.OutcomeWaiting).Inc()
		return nil
	}

	product, err := uc.products.FindByID(ctx, job.ProductID)
	if errors.Is(err, repository.ErrProductNotFound) {
		// Possibly a race with product creation, possibly bad data. Either
		// way retry policy belongs to the queue layer, not here.
		uc.logger.Error("Product id not found",
			zap.String("product_id", job.ProductID.String()))
		metrics.JobsTotal.WithLabelValues(metrics.OutcomeProductNotFound).Inc()
		return nil
	}
	if err != nil {
		return err
	}

	// One timestamp per message so the status row and its granule rows are
	// provably from the same event.
	t := domain.Transition{
		ProductID: product.ID,
		Timestamp: time.Now().UTC(),
		State:     c.State,
		Reason:    c.Reason,
		Granules:  job.Granules,
	}
	if err := uc.transitions.RecordTransition(ctx, t); err != nil {
		return err
	}

	uc.logger.Info("Product transition recorded",
		zap.String("product_id", product.ID.String()),
		zap.String("state", string(c.State)),
		zap.Int("granules", len(job.Granules)),
	)
	metrics.JobsTotal.WithLabelValues(metrics.OutcomeWritten).Inc()
	return nil
}
