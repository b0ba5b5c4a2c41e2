// Package services orchestrates the ledger store, the aggregation folds in
// core and the event publisher.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EleazarRC/contabilidad-personal/internal/amqp"
	"github.com/EleazarRC/contabilidad-personal/internal/core"
	"github.com/EleazarRC/contabilidad-personal/internal/storage"
)

// Store is the persistence surface the services need.
type Store interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
	CountTransactions(ctx context.Context, f storage.TransactionFilter) (int64, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	AvailableYears(ctx context.Context) ([]int, error)
	SumExpenses(ctx context.Context, categoryIDs []int64, from, to core.Date) (core.Money, error)

	ListSavingsAccounts(ctx context.Context) ([]core.SavingsAccount, error)
	GetSavingsAccount(ctx context.Context, id int64) (core.SavingsAccount, error)
	CreateSavingsAccount(ctx context.Context, a core.SavingsAccount) (core.SavingsAccount, error)
	UpdateSavingsAccount(ctx context.Context, a core.SavingsAccount) (core.SavingsAccount, error)
	DeleteSavingsAccount(ctx context.Context, id int64) error
	ListSavingsMovements(ctx context.Context, f storage.MovementFilter) ([]core.SavingsMovement, error)
	CreateSavingsMovement(ctx context.Context, m core.SavingsMovement) (core.SavingsMovement, error)
	DeleteSavingsMovement(ctx context.Context, id int64) error

	ListDebts(ctx context.Context) ([]core.DebtAccount, error)
	GetDebt(ctx context.Context, id int64) (core.DebtAccount, error)
	CreateDebt(ctx context.Context, d core.DebtAccount) (core.DebtAccount, error)
	UpdateDebt(ctx context.Context, d core.DebtAccount) (core.DebtAccount, error)
	DeleteDebt(ctx context.Context, id int64) error
	ListDebtPayments(ctx context.Context, debtID int64) ([]core.DebtPayment, error)
	CreateDebtPayment(ctx context.Context, p core.DebtPayment) (core.DebtPayment, error)
	DeleteDebtPayment(ctx context.Context, id int64) error

	ListBudgets(ctx context.Context) ([]core.Budget, error)
	GetBudget(ctx context.Context, id int64) (core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget, categoryIDs []int64) (core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget, categoryIDs []int64) (core.Budget, error)
	DeleteBudget(ctx context.Context, id int64) error

	ListForecasts(ctx context.Context, f storage.ForecastFilter) ([]core.Forecast, error)
	GetForecast(ctx context.Context, id int64) (core.Forecast, error)
	CreateForecast(ctx context.Context, f core.Forecast) (core.Forecast, error)
	UpdateForecast(ctx context.Context, f core.Forecast) (core.Forecast, error)
	ToggleForecast(ctx context.Context, id int64) (bool, error)
	DeleteForecast(ctx context.Context, id int64) error

	Stats(ctx context.Context) (storage.DataStats, error)
	DeleteAllData(ctx context.Context) (storage.DeleteResult, error)
	ResetSequence(ctx context.Context, table string) error

	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher delivers ledger change notifications.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
	Close() error
}

var _ Store = (*storage.SQLiteRepository)(nil)
var _ EventPublisher = (*amqp.Client)(nil)

// LedgerService orchestrates ledger operations across the store and the
// event publisher. The publisher is optional.
type LedgerService struct {
	store     Store
	publisher EventPublisher
}

func NewLedgerService(store Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

// Ping reports whether the store is reachable.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish sends an event after a successful write. Failures are logged and
// never fail the request since the record is already stored.
func (s *LedgerService) publish(ctx context.Context, kind amqp.EventKind, action amqp.Action, id int64, year int) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not available, skipping ledger event",
			"kind", kind, "action", action, "id", id)
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewLedgerEvent(kind, action, id, year)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "action", action, "id", id, "error", err)
	}
}

// Close closes both the store and the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
