// Package memory provides an in-memory repository used for local development
// and tests. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"despesas/internal/core"
)

type Store struct {
	mu      sync.RWMutex
	masters map[string]core.MasterTransaction
	order   []string // insertion order of ids
}

func NewStore() *Store {
	return &Store{
		masters: make(map[string]core.MasterTransaction),
	}
}

func (s *Store) LoadAll(ctx context.Context) ([]core.MasterTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.MasterTransaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.masters[id].Clone())
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.MasterTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.masters[id]
	if !ok {
		return core.MasterTransaction{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return m.Clone(), nil
}

func (s *Store) Upsert(ctx context.Context, m core.MasterTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertLocked(m)
	return nil
}

func (s *Store) UpsertMany(ctx context.Context, masters []core.MasterTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range masters {
		s.upsertLocked(m)
	}
	return nil
}

func (s *Store) upsertLocked(m core.MasterTransaction) {
	if _, exists := s.masters[m.ID]; !exists {
		s.order = append(s.order, m.ID)
	}
	s.masters[m.ID] = m.Clone()
}

func (s *Store) MarkPaid(ctx context.Context, id string, occurrence core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.masters[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	updated := m.Clone()
	updated.MarkPaid(occurrence)
	s.masters[id] = updated
	return nil
}

func (s *Store) DeleteOne(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.masters[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	s.removeLocked(id)
	return nil
}

func (s *Store) DeleteGroup(ctx context.Context, groupID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for _, id := range s.order {
		if s.masters[id].InstallmentGroupID == groupID && groupID != "" {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		s.removeLocked(id)
	}
	return removed, nil
}

func (s *Store) removeLocked(id string) {
	delete(s.masters, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) ReplaceAll(ctx context.Context, masters []core.MasterTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.masters = make(map[string]core.MasterTransaction, len(masters))
	s.order = s.order[:0]
	for _, m := range masters {
		s.upsertLocked(m)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
