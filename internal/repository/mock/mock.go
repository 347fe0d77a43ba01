package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/podaac/swodlr-async-update/internal/domain"
	"github.com/podaac/swodlr-async-update/internal/repository"
)

// ---- ProductRepository mock ----

var _ repository.ProductRepository = (*ProductRepository)(nil)

// ProductRepository is a test double for repository.ProductRepository.
type ProductRepository struct {
	mu sync.Mutex

	FindByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// Recorded calls for assertions.
	FindCalls []uuid.UUID
}

func (m *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	m.FindCalls = append(m.FindCalls, id)
	m.mu.Unlock()
	if m.FindByIDFn != nil {
		return m.FindByIDFn(ctx, id)
	}
	return &domain.Product{ID: id}, nil // default: product exists
}

// ---- TransitionRepository mock ----

var _ repository.TransitionRepository = (*TransitionRepository)(nil)

// TransitionRepository is a test double for repository.TransitionRepository.
type TransitionRepository struct {
	mu sync.Mutex

	RecordTransitionFn func(ctx context.Context, t domain.Transition) error

	Transitions []domain.Transition
}

func (m *TransitionRepository) RecordTransition(ctx context.Context, t domain.Transition) error {
	m.mu.Lock()
	m.Transitions = append(m.Transitions, t)
	m.mu.Unlock()
	if m.RecordTransitionFn != nil {
		return m.RecordTransitionFn(ctx, t)
	}
	return nil
}

// ---- DedupStore mock ----

var _ repository.DedupStore = (*DedupStore)(nil)

// DedupStore is a test double for repository.DedupStore.
type DedupStore struct {
	mu sync.Mutex

	AcquireLockFn func(ctx context.Context, messageID string, ttl time.Duration) (bool, error)

	AcquireCalls []string
}

func (m *DedupStore) AcquireLock(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	m.AcquireCalls = append(m.AcquireCalls, messageID)
	m.mu.Unlock()
	if m.AcquireLockFn != nil {
		return m.AcquireLockFn(ctx, messageID, ttl)
	}
	return true, nil // default: first delivery
}
