package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/inamate/orbitcam/internal/snapshot"
	"github.com/inamate/orbitcam/internal/typeid"
)

// Memory keeps records in process. It is used when no database is configured.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record), now: time.Now}
}

func (m *Memory) Create(ctx context.Context, name, ownerID string, snap *snapshot.Snapshot) (*Record, error) {
	rec := Record{
		ID:        typeid.NewSnapshotID(),
		Name:      name,
		OwnerID:   ownerID,
		Snapshot:  snap.Clone(),
		CreatedAt: m.now().UTC(),
	}

	m.mu.Lock()
	m.records[rec.ID] = rec
	m.mu.Unlock()

	out := rec
	out.Snapshot = rec.Snapshot.Clone()
	return &out, nil
}

func (m *Memory) Get(ctx context.Context, id, ownerID string) (*Record, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if rec.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	rec.Snapshot = rec.Snapshot.Clone()
	return &rec, nil
}

func (m *Memory) List(ctx context.Context, ownerID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := []Record{}
	for _, rec := range m.records {
		if rec.OwnerID != ownerID {
			continue
		}
		rec.Snapshot = nil
		records = append(records, rec)
	}
	// Newest first, same as the SQL ordering
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (m *Memory) Delete(ctx context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	if rec.OwnerID != ownerID {
		return ErrForbidden
	}
	delete(m.records, id)
	return nil
}

func (m *Memory) Close() {}
