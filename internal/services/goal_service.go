package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"movimenti/internal/core"
	"movimenti/internal/ports"
)

// GoalService manages savings goals.
type GoalService struct {
	store ports.GoalStore
}

func NewGoalService(store ports.GoalStore) *GoalService {
	return &GoalService{store: store}
}

func (s *GoalService) List(ctx context.Context) ([]core.SavingGoal, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Create validates and stores a new goal. Validation failures wrap the core
// sentinel errors.
func (s *GoalService) Create(ctx context.Context, name string, target, saved decimal.Decimal) (core.SavingGoal, error) {
	g, err := core.NewSavingGoal(uuid.NewString(), name, target, saved)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("invalid goal: %w", err)
	}
	if err := s.store.CreateGoal(ctx, g); err != nil {
		return core.SavingGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

// UpdateSaved sets the saved amount and recomputes the remainder.
func (s *GoalService) UpdateSaved(ctx context.Context, id string, saved decimal.Decimal) (core.SavingGoal, error) {
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return core.SavingGoal{}, err
	}
	updated, err := g.WithSaved(saved)
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("invalid saved amount: %w", err)
	}
	if err := s.store.UpdateGoal(ctx, updated); err != nil {
		return core.SavingGoal{}, err
	}
	return updated, nil
}

func (s *GoalService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteGoal(ctx, id)
}
