// Package services orchestrates the repositories for the HTTP layer and emits
// change events after each successful mutation.
package services

import (
	"context"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
)

// Ports consumed by the service. The storage package satisfies them.
type (
	TransactionStore interface {
		List(ctx context.Context, f core.Filter) ([]core.Transaction, error)
		Insert(ctx context.Context, in core.TransactionInput) (int64, error)
		Get(ctx context.Context, id int64) (core.Transaction, error)
		Update(ctx context.Context, id int64, in core.TransactionInput) error
		Delete(ctx context.Context, id int64) error
	}

	CategoryStore interface {
		List(ctx context.Context) ([]core.Category, error)
		Add(ctx context.Context, name string) error
	}

	Aggregates interface {
		Summary(ctx context.Context) (core.Summary, error)
		Charts(ctx context.Context) (core.Charts, error)
		CategoryBreakdown(ctx context.Context) ([]core.CategoryTotal, error)
	}

	// EventPublisher delivers change events. *amqp.Client implements it.
	EventPublisher interface {
		PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
	}
)

// LedgerService orchestrates transactions, categories and aggregates.
type LedgerService struct {
	transactions TransactionStore
	categories   CategoryStore
	aggregates   Aggregates
	publisher    EventPublisher
	logger       *applog.Logger
}

// NewLedgerService wires the service. publisher may be nil, in which case no
// events are emitted.
func NewLedgerService(tx TransactionStore, cats CategoryStore, agg Aggregates, publisher EventPublisher, logger *applog.Logger) *LedgerService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &LedgerService{
		transactions: tx,
		categories:   cats,
		aggregates:   agg,
		publisher:    publisher,
		logger:       logger.WithComponent(applog.ComponentLedger),
	}
}

// ListPage is everything the listing page renders.
type ListPage struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Summary      core.Summary
	ByCategory   []core.CategoryTotal
}

// ListPage loads the filtered transactions together with the summary cards
// and the category breakdown.
func (s *LedgerService) ListPage(ctx context.Context, f core.Filter) (ListPage, error) {
	txs, err := s.transactions.List(ctx, f)
	if err != nil {
		return ListPage{}, fmt.Errorf("list transactions: %w", err)
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return ListPage{}, fmt.Errorf("list categories: %w", err)
	}
	summary, err := s.aggregates.Summary(ctx)
	if err != nil {
		return ListPage{}, fmt.Errorf("summary: %w", err)
	}
	breakdown, err := s.aggregates.CategoryBreakdown(ctx)
	if err != nil {
		return ListPage{}, fmt.Errorf("category breakdown: %w", err)
	}
	return ListPage{Transactions: txs, Categories: cats, Summary: summary, ByCategory: breakdown}, nil
}

// Dashboard returns the summary cards and every chart series.
func (s *LedgerService) Dashboard(ctx context.Context) (core.Summary, core.Charts, error) {
	summary, err := s.aggregates.Summary(ctx)
	if err != nil {
		return core.Summary{}, core.Charts{}, fmt.Errorf("summary: %w", err)
	}
	charts, err := s.aggregates.Charts(ctx)
	if err != nil {
		return core.Summary{}, core.Charts{}, fmt.Errorf("charts: %w", err)
	}
	return summary, charts, nil
}

func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// AddCategory inserts name; duplicates are silently accepted.
func (s *LedgerService) AddCategory(ctx context.Context, name string) error {
	if err := s.categories.Add(ctx, name); err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	return nil
}

func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := s.transactions.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// Create stores a transaction and announces it.
func (s *LedgerService) Create(ctx context.Context, in core.TransactionInput) (int64, error) {
	id, err := s.transactions.Insert(ctx, in)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		applog.NewFields().
			WithTransaction(id, in.Date, in.Category, in.Amount).
			WithOperation(applog.OpCreate).
			ToSlice()...)
	s.publish(ctx, amqp.EventCreated, id)
	return id, nil
}

// Update replaces a transaction and announces it.
func (s *LedgerService) Update(ctx context.Context, id int64, in core.TransactionInput) error {
	if err := s.transactions.Update(ctx, id, in); err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		applog.NewFields().
			WithTransaction(id, in.Date, in.Category, in.Amount).
			WithOperation(applog.OpUpdate).
			ToSlice()...)
	s.publish(ctx, amqp.EventUpdated, id)
	return nil
}

// Delete removes a transaction. Deleting a missing id succeeds.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	if err := s.transactions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldTransactionID, id,
		applog.FieldOperation, applog.OpDelete)
	s.publish(ctx, amqp.EventDeleted, id)
	return nil
}

// publish never fails the caller: the row is already committed locally and
// the worker's scheduled resync repairs any missed event.
func (s *LedgerService) publish(ctx context.Context, kind amqp.EventKind, id int64) {
	if s.publisher == nil {
		return
	}
	event := amqp.NewTransactionEvent(kind, id)
	if err := s.publisher.PublishTransactionEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldError, err,
			applog.FieldEventKind, string(kind),
			applog.FieldTransactionID, id)
	}
}
