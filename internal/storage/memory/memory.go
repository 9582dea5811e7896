// Package memory is a process-local repository used for tests, demos and
// the DATA_BACKEND=memory mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"movimenti/internal/core"
	"movimenti/internal/ports"
)

var _ ports.Repository = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	txns   map[string]core.Transaction
	goals  []core.SavingGoal
	alerts []core.Alert
}

func New() *Store {
	return &Store{txns: make(map[string]core.Transaction)}
}

// NewWithTransactions returns a store seeded with txns.
func NewWithTransactions(txns []core.Transaction) *Store {
	s := New()
	for _, t := range txns {
		s.txns[t.ID] = t
	}
	return s
}

func (s *Store) Close() error { return nil }

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(core.Transaction) bool { return true }), nil
}

func (s *Store) ListByDirection(_ context.Context, dir core.Direction) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(t core.Transaction) bool { return t.Direction == dir }), nil
}

func (s *Store) RecentTransactions(_ context.Context, limit int) ([]core.Transaction, error) {
	s.mu.RLock()
	all := s.sorted(func(core.Transaction) bool { return true })
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) SaveTransactions(_ context.Context, txns []core.Transaction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txns {
		s.txns[t.ID] = t
	}
	return len(txns), nil
}

func (s *Store) UpdateCategories(_ context.Context, categories map[string]core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cat := range categories {
		t, ok := s.txns[id]
		if !ok {
			continue
		}
		t.Category = cat
		s.txns[id] = t
	}
	return nil
}

// sorted returns matching transactions by date then ID. Caller holds the lock.
func (s *Store) sorted(keep func(core.Transaction) bool) []core.Transaction {
	out := make([]core.Transaction, 0, len(s.txns))
	for _, t := range s.txns {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) ListGoals(_ context.Context) ([]core.SavingGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.SavingGoal(nil), s.goals...), nil
}

func (s *Store) GetGoal(_ context.Context, id string) (core.SavingGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.goalIndex(id)
	if i < 0 {
		return core.SavingGoal{}, fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	return s.goals[i], nil
}

func (s *Store) CreateGoal(_ context.Context, g core.SavingGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.goalIndex(g.ID) >= 0 {
		return fmt.Errorf("goal %s already exists", g.ID)
	}
	s.goals = append(s.goals, g)
	return nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.SavingGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(g.ID)
	if i < 0 {
		return fmt.Errorf("goal %s: %w", g.ID, core.ErrNotFound)
	}
	s.goals[i] = g
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(id)
	if i < 0 {
		return fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	s.goals = append(s.goals[:i], s.goals[i+1:]...)
	return nil
}

func (s *Store) goalIndex(id string) int {
	for i, g := range s.goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) InsertAlert(_ context.Context, a core.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return nil
}

func (s *Store) LatestAlert(ctx context.Context) (core.Alert, error) {
	alerts, _ := s.ListAlerts(ctx, 1)
	if len(alerts) == 0 {
		return core.Alert{}, fmt.Errorf("latest alert: %w", core.ErrNotFound)
	}
	return alerts[0], nil
}

// ListAlerts returns up to limit alerts, newest first.
func (s *Store) ListAlerts(_ context.Context, limit int) ([]core.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Alert, 0, len(s.alerts))
	for i := len(s.alerts) - 1; i >= 0; i-- {
		out = append(out, s.alerts[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
