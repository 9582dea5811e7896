// Package firestore stores transactions, savings goals and alerts as
// Firestore documents.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"movimenti/internal/core"
	"movimenti/internal/ports"
)

const (
	transactionsCollection = "transactions"
	goalsCollection        = "savings_goals"
	alertsCollection       = "alerts"
)

var _ ports.Repository = (*Repository)(nil)

// Repository wraps a Firestore client.
type Repository struct {
	client *firestore.Client
}

// NewRepository connects using Application Default Credentials. Setting
// FIRESTORE_EMULATOR_HOST routes the client to a local emulator.
func NewRepository(ctx context.Context, projectID string) (*Repository, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return &Repository{client: client}, nil
}

func (r *Repository) Close() error {
	return r.client.Close()
}

type transactionDoc struct {
	ID            string    `firestore:"id"`
	Date          time.Time `firestore:"date"`
	Description   string    `firestore:"description"`
	Amount        string    `firestore:"amount"`
	Direction     string    `firestore:"direction"`
	Category      string    `firestore:"category"`
	AccountNumber string    `firestore:"accountNumber"`
	Currency      string    `firestore:"currency"`
}

type goalDoc struct {
	ID        string    `firestore:"id"`
	Name      string    `firestore:"name"`
	Target    string    `firestore:"target"`
	Saved     string    `firestore:"saved"`
	Remainder string    `firestore:"remainder"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type alertDoc struct {
	ID        string    `firestore:"id"`
	Kind      string    `firestore:"kind"`
	Message   string    `firestore:"message"`
	Delivered bool      `firestore:"delivered"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func toTransactionDoc(t core.Transaction) transactionDoc {
	return transactionDoc{
		ID:            t.ID,
		Date:          t.Date.UTC(),
		Description:   t.Description,
		Amount:        t.Amount.String(),
		Direction:     string(t.Direction),
		Category:      string(t.Category),
		AccountNumber: t.AccountNumber,
		Currency:      t.Currency,
	}
}

func (d transactionDoc) toCore() (core.Transaction, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: parse amount: %w", d.ID, err)
	}
	return core.Transaction{
		ID:            d.ID,
		Date:          d.Date.UTC(),
		Description:   d.Description,
		Amount:        amount,
		Direction:     core.Direction(d.Direction),
		Category:      core.Category(d.Category),
		AccountNumber: d.AccountNumber,
		Currency:      d.Currency,
	}, nil
}

func toGoalDoc(g core.SavingGoal, created time.Time) goalDoc {
	return goalDoc{
		ID:        g.ID,
		Name:      g.Name,
		Target:    g.Target.String(),
		Saved:     g.Saved.String(),
		Remainder: g.Remainder.String(),
		CreatedAt: created,
	}
}

func (d goalDoc) toCore() (core.SavingGoal, error) {
	g := core.SavingGoal{ID: d.ID, Name: d.Name}
	var err error
	if g.Target, err = decimal.NewFromString(d.Target); err != nil {
		return g, fmt.Errorf("goal %s: parse target: %w", d.ID, err)
	}
	if g.Saved, err = decimal.NewFromString(d.Saved); err != nil {
		return g, fmt.Errorf("goal %s: parse saved: %w", d.ID, err)
	}
	if g.Remainder, err = decimal.NewFromString(d.Remainder); err != nil {
		return g, fmt.Errorf("goal %s: parse remainder: %w", d.ID, err)
	}
	return g, nil
}

func (r *Repository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	q := r.client.Collection(transactionsCollection).OrderBy("date", firestore.Asc)
	return readTransactions(q.Documents(ctx))
}

func (r *Repository) ListByDirection(ctx context.Context, dir core.Direction) ([]core.Transaction, error) {
	q := r.client.Collection(transactionsCollection).
		Where("direction", "==", string(dir)).
		OrderBy("date", firestore.Asc)
	return readTransactions(q.Documents(ctx))
}

func (r *Repository) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	q := r.client.Collection(transactionsCollection).
		OrderBy("date", firestore.Desc).
		Limit(limit)
	return readTransactions(q.Documents(ctx))
}

func readTransactions(iter *firestore.DocumentIterator) ([]core.Transaction, error) {
	defer iter.Stop()
	var out []core.Transaction
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read transactions: %w", err)
		}
		var d transactionDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse transaction %s: %w", doc.Ref.ID, err)
		}
		t, err := d.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// SaveTransactions upserts through a BulkWriter keyed by transaction ID.
func (r *Repository) SaveTransactions(ctx context.Context, txns []core.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}
	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(txns))
	for _, t := range txns {
		ref := r.client.Collection(transactionsCollection).Doc(t.ID)
		job, err := bw.Set(ref, toTransactionDoc(t))
		if err != nil {
			bw.End()
			return 0, fmt.Errorf("queue transaction %s: %w", t.ID, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	written := 0
	var errs []error
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			errs = append(errs, fmt.Errorf("write transaction %s: %w", txns[i].ID, err))
			continue
		}
		written++
	}
	return written, errors.Join(errs...)
}

func (r *Repository) UpdateCategories(ctx context.Context, categories map[string]core.Category) error {
	var errs []error
	for id, cat := range categories {
		_, err := r.client.Collection(transactionsCollection).Doc(id).Update(ctx, []firestore.Update{
			{Path: "category", Value: string(cat)},
		})
		if err != nil && status.Code(err) != codes.NotFound {
			errs = append(errs, fmt.Errorf("update category for %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Repository) ListGoals(ctx context.Context) ([]core.SavingGoal, error) {
	iter := r.client.Collection(goalsCollection).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()
	var out []core.SavingGoal
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read goals: %w", err)
		}
		var d goalDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse goal %s: %w", doc.Ref.ID, err)
		}
		g, err := d.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *Repository) GetGoal(ctx context.Context, id string) (core.SavingGoal, error) {
	snap, err := r.client.Collection(goalsCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return core.SavingGoal{}, fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.SavingGoal{}, fmt.Errorf("get goal %s: %w", id, err)
	}
	var d goalDoc
	if err := snap.DataTo(&d); err != nil {
		return core.SavingGoal{}, fmt.Errorf("failed to parse goal %s: %w", id, err)
	}
	return d.toCore()
}

func (r *Repository) CreateGoal(ctx context.Context, g core.SavingGoal) error {
	_, err := r.client.Collection(goalsCollection).Doc(g.ID).Create(ctx, toGoalDoc(g, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (r *Repository) UpdateGoal(ctx context.Context, g core.SavingGoal) error {
	_, err := r.client.Collection(goalsCollection).Doc(g.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: g.Name},
		{Path: "target", Value: g.Target.String()},
		{Path: "saved", Value: g.Saved.String()},
		{Path: "remainder", Value: g.Remainder.String()},
	})
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("goal %s: %w", g.ID, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	return nil
}

func (r *Repository) DeleteGoal(ctx context.Context, id string) error {
	_, err := r.client.Collection(goalsCollection).Doc(id).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("goal %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return nil
}

func (r *Repository) InsertAlert(ctx context.Context, a core.Alert) error {
	_, err := r.client.Collection(alertsCollection).Doc(a.ID).Set(ctx, alertDoc{
		ID:        a.ID,
		Kind:      string(a.Kind),
		Message:   a.Message,
		Delivered: a.Delivered,
		CreatedAt: a.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (r *Repository) LatestAlert(ctx context.Context) (core.Alert, error) {
	alerts, err := r.ListAlerts(ctx, 1)
	if err != nil {
		return core.Alert{}, err
	}
	if len(alerts) == 0 {
		return core.Alert{}, fmt.Errorf("latest alert: %w", core.ErrNotFound)
	}
	return alerts[0], nil
}

func (r *Repository) ListAlerts(ctx context.Context, limit int) ([]core.Alert, error) {
	iter := r.client.Collection(alertsCollection).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()
	var out []core.Alert
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read alerts: %w", err)
		}
		var d alertDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse alert %s: %w", doc.Ref.ID, err)
		}
		out = append(out, core.Alert{
			ID:        d.ID,
			Kind:      core.AlertKind(d.Kind),
			Message:   d.Message,
			Delivered: d.Delivered,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return out, nil
}
