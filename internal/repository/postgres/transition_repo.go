package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/podaac/swodlr-async-update/internal/domain"
	"github.com/podaac/swodlr-async-update/internal/repository"
)

var _ repository.TransitionRepository = (*pgTransitionRepo)(nil)

// txBeginner is the slice of pgxpool.Pool the writer needs. It is a seam so
// the rollback behavior can be exercised without a live database.
type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type pgTransitionRepo struct {
	db txBeginner
}

// NewTransitionRepository creates a PostgreSQL-backed transition writer. All
// rows for one transition are written in a single transaction.
func NewTransitionRepository(pool *pgxpool.Pool) repository.TransitionRepository {
	return &pgTransitionRepo{db: pool}
}

func (r *pgTransitionRepo) RecordTransition(ctx context.Context, t domain.Transition) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: begin transition: %w", err)
	}
	// Rollback is a no-op after a successful commit.
	defer tx.Rollback(ctx)

	statusQuery := `INSERT INTO product_statuses (product_id, timestamp, state, reason) VALUES ($1, $2, $3, $4)`

	var reason *string
	if t.Reason != "" {
		reason = &t.Reason
	}
	if _, err := tx.Exec(ctx, statusQuery, t.ProductID, t.Timestamp, string(t.State), reason); err != nil {
		return fmt.Errorf("postgres: insert status: %w", err)
	}

	granuleQuery := `INSERT INTO granules (product_id, timestamp, uri) VALUES ($1, $2, $3)`

	for _, uri := range t.Granules {
		if _, err := tx.Exec(ctx, granuleQuery, t.ProductID, t.Timestamp, uri); err != nil {
			return fmt.Errorf("postgres: insert granule: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit transition: %w", err)
	}
	return nil
}
