package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a persisted L2 raster product tracked by the consuming
// application. This worker only reads it; the product row itself is owned by
// the upstream schema and never mutated here.
type Product struct {
	ID        uuid.UUID
	CycleID   int
	PassID    int
	SceneID   int
	CreatedAt time.Time
}

// Transition is one state-history write: exactly one status row plus one
// granule row per URI, all sharing the same timestamp so they are provably
// from the same logical event.
type Transition struct {
	ProductID uuid.UUID
	Timestamp time.Time
	State     ProductState
	Reason    string
	Granules  []string
}
