package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/podaac/swodlr-async-update/internal/domain"
	"github.com/podaac/swodlr-async-update/internal/repository"
)

var _ repository.ProductRepository = (*pgProductRepo)(nil)

type pgProductRepo struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a PostgreSQL-backed read-only product lookup.
func NewProductRepository(pool *pgxpool.Pool) repository.ProductRepository {
	return &pgProductRepo{pool: pool}
}

func (r *pgProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT id, cycle_id, pass_id, scene_id, created_at FROM l2_raster_products WHERE id = $1`

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.CycleID, &p.PassID, &p.SceneID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find product: %w", err)
	}
	return &p, nil
}
