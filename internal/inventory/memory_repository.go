package inventory

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests and development mode.
// Its Grant method stands in for the external item-granting system.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[int64][]Item
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[int64][]Item)}
}

// Grant records an item for the account.
func (r *MemoryRepository) Grant(item Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = int64(len(r.items[item.UserID]) + 1)
	r.items[item.UserID] = append(r.items[item.UserID], item)
}

// ListByUser returns all items for the account, newest acquisitions first.
func (r *MemoryRepository) ListByUser(_ context.Context, userID int64) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Item, len(r.items[userID]))
	copy(items, r.items[userID])
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ObtainedAt.After(items[j].ObtainedAt)
	})
	return items, nil
}
