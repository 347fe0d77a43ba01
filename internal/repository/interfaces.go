package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/podaac/swodlr-async-update/internal/domain"
)

// ErrProductNotFound is returned by ProductRepository when no product row
// matches the requested id. A status update for a missing product is dropped
// and logged, never escalated to a batch failure.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the read-only lookup into the product store.
type ProductRepository interface {
	// FindByID fetches a product by primary key. Returns ErrProductNotFound
	// when the row does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// TransitionRepository defines the durable write for one classified update.
type TransitionRepository interface {
	// RecordTransition atomically inserts one status row and one granule row
	// per URI, all sharing the transition's timestamp. Either every row
	// lands or none do.
	RecordTransition(ctx context.Context, t domain.Transition) error
}

// DedupStore defines the distributed deduplication lock used to drop
// redelivered batches. Status and granule inserts are not idempotent, so the
// worker must not reprocess a delivery it has already seen.
type DedupStore interface {
	// AcquireLock attempts to claim a delivery for processing. Returns true
	// if this is the first time the delivery has been seen.
	AcquireLock(ctx context.Context, messageID string, ttl time.Duration) (bool, error)
}
