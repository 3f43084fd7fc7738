// Package store persists named configuration snapshots.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/inamate/orbitcam/internal/snapshot"
)

var (
	ErrNotFound  = errors.New("snapshot not found")
	ErrForbidden = errors.New("forbidden")
)

// Record is a saved configuration owned by one session.
type Record struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	OwnerID   string             `json:"ownerId"`
	Snapshot  *snapshot.Snapshot `json:"snapshot,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Store is implemented by Memory and Postgres. List omits snapshot bodies.
type Store interface {
	Create(ctx context.Context, name, ownerID string, snap *snapshot.Snapshot) (*Record, error)
	Get(ctx context.Context, id, ownerID string) (*Record, error)
	List(ctx context.Context, ownerID string) ([]Record, error)
	Delete(ctx context.Context, id, ownerID string) error
	Close()
}
