package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

const (
	FoodDelivery  Category = "food_delivery"
	Groceries     Category = "groceries"
	Restaurants   Category = "restaurants"
	Transport     Category = "transport"
	Subscriptions Category = "subscriptions"
	Shopping      Category = "shopping"
	Entertainment Category = "entertainment"
	Utilities     Category = "utilities"
	RentHousing   Category = "rent_housing"
	BankingFees   Category = "banking_fees"
	Income        Category = "income"
	Refund        Category = "refund"
	Other         Category = "other"
)

const (
	AlertLoss    AlertKind = "loss"
	AlertProfit  AlertKind = "profit"
	AlertSummary AlertKind = "summary"
	AlertStartup AlertKind = "startup"
	AlertError   AlertKind = "error"
)

type (
	Direction string

	Category string

	AlertKind string

	Transaction struct {
		ID            string
		Date          time.Time
		Description   string
		Amount        decimal.Decimal // always >= 0, Direction carries the sign
		Direction     Direction
		Category      Category // empty until categorized
		AccountNumber string
		Currency      string
	}

	SavingGoal struct {
		ID        string
		Name      string
		Target    decimal.Decimal
		Saved     decimal.Decimal
		Remainder decimal.Decimal
	}

	Alert struct {
		ID        string
		Kind      AlertKind
		Message   string
		Delivered bool
		CreatedAt time.Time
	}

	// CategoryValue is a label/value pair as served to clients. For monthly
	// totals the label is the YYYY-MM key.
	CategoryValue struct {
		Category string          `json:"category"`
		Value    decimal.Decimal `json:"value"`
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDirection   = errors.New("invalid direction")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyID            = errors.New("empty id")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidTarget      = errors.New("target must be at least 0.01")
	ErrNegativeSaved      = errors.New("saved amount cannot be negative")
	ErrSavedExceedsTarget = errors.New("saved amount cannot exceed target")
	ErrNotFound           = errors.New("not found")
)

// InvalidDirectionError reports a direction that is neither credit nor debit.
type InvalidDirectionError struct {
	Value string
}

func (e *InvalidDirectionError) Error() string {
	return fmt.Sprintf("invalid direction %q: expected credit or debit", e.Value)
}

func (e *InvalidDirectionError) Unwrap() error { return ErrInvalidDirection }

// ParseDirection accepts credit/debit in any casing.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Credit):
		return Credit, nil
	case string(Debit):
		return Debit, nil
	}
	return "", &InvalidDirectionError{Value: s}
}

func (d Direction) Valid() bool {
	return d == Credit || d == Debit
}

// AllCategories returns every category in reporting order.
func AllCategories() []Category {
	return []Category{
		FoodDelivery, Groceries, Restaurants, Transport, Subscriptions, Shopping,
		Entertainment, Utilities, RentHousing, BankingFees, Income, Refund, Other,
	}
}

func (c Category) Known() bool {
	for _, k := range AllCategories() {
		if c == k {
			return true
		}
	}
	return false
}

// EffectiveCategory maps an uncategorized transaction to Other.
func (t Transaction) EffectiveCategory() Category {
	if t.Category == "" {
		return Other
	}
	return t.Category
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Direction.Valid() {
		return &InvalidDirectionError{Value: string(t.Direction)}
	}
	return nil
}

// NewSavingGoal builds a goal with its remainder computed.
func NewSavingGoal(id, name string, target, saved decimal.Decimal) (SavingGoal, error) {
	g := SavingGoal{ID: id, Name: strings.TrimSpace(name), Target: target, Saved: saved}
	if err := g.Validate(); err != nil {
		return SavingGoal{}, err
	}
	g.Remainder = target.Sub(saved)
	return g, nil
}

func (g SavingGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.Target.LessThan(decimal.New(1, -2)) {
		return ErrInvalidTarget
	}
	if g.Saved.IsNegative() {
		return ErrNegativeSaved
	}
	if g.Saved.GreaterThan(g.Target) {
		return ErrSavedExceedsTarget
	}
	return nil
}

// WithSaved returns a copy with a new saved amount and recomputed remainder.
func (g SavingGoal) WithSaved(saved decimal.Decimal) (SavingGoal, error) {
	if saved.IsNegative() {
		return SavingGoal{}, ErrNegativeSaved
	}
	if saved.GreaterThan(g.Target) {
		return SavingGoal{}, ErrSavedExceedsTarget
	}
	g.Saved = saved
	g.Remainder = g.Target.Sub(saved)
	return g, nil
}

// ProgressPercentage is saved/target as a percentage with two decimals.
func (g SavingGoal) ProgressPercentage() decimal.Decimal {
	return Percentage(g.Saved, g.Target)
}
