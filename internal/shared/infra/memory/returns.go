// Package memory provides an in-process returns store used when no database is configured.
package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/cornjacket/returns-service/internal/services/returns"
)

// ReturnsStore implements returns.Repository in memory.
// IDs come from a monotonically increasing counter and are never reused.
type ReturnsStore struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]returns.Return
	logger *slog.Logger
}

// NewReturnsStore creates an empty store.
func NewReturnsStore(logger *slog.Logger) *ReturnsStore {
	return &ReturnsStore{
		rows:   make(map[int64]returns.Return),
		logger: logger.With("repository", "returns-memory"),
	}
}

func (s *ReturnsStore) Create(ctx context.Context, ret returns.Return) (*returns.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	ret.ID = s.nextID
	s.rows[ret.ID] = ret

	s.logger.Debug("return inserted", "return_id", ret.ID, "order_id", ret.OrderID)
	return &ret, nil
}

func (s *ReturnsStore) List(ctx context.Context) ([]returns.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]returns.Return, 0, len(s.rows))
	for _, ret := range s.rows {
		list = append(list, ret)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (s *ReturnsStore) Get(ctx context.Context, id int64) (*returns.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret, ok := s.rows[id]
	if !ok {
		return nil, returns.ErrNotFound
	}
	return &ret, nil
}

func (s *ReturnsStore) UpdateStatus(ctx context.Context, id int64, status returns.Status) (*returns.Return, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ret, ok := s.rows[id]
	if !ok {
		return nil, returns.ErrNotFound
	}
	ret.Status = status
	s.rows[id] = ret
	return &ret, nil
}

func (s *ReturnsStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return returns.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}
