package services

import (
	"context"
	"log/slog"

	"github.com/EleazarRC/contabilidad-personal/internal/amqp"
	"github.com/EleazarRC/contabilidad-personal/internal/core"
	"github.com/EleazarRC/contabilidad-personal/internal/storage"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// TransactionQuery selects transactions. Month needs Year; a zero Year
// means all dates.
type TransactionQuery struct {
	Year       int
	Month      int
	Kind       core.Kind
	CategoryID int64
}

func (q TransactionQuery) filter() (storage.TransactionFilter, error) {
	f := storage.TransactionFilter{Kind: q.Kind, CategoryID: q.CategoryID}
	if q.Kind != "" && !q.Kind.Valid() {
		return f, core.Validationf("invalid transaction type %q", q.Kind)
	}
	switch {
	case q.Month != 0:
		if err := core.ValidateYearMonth(q.Year, q.Month); err != nil {
			return f, err
		}
		f.From, f.To = core.MonthWindow(q.Year, q.Month)
	case q.Year != 0:
		if err := core.ValidateYear(q.Year); err != nil {
			return f, err
		}
		f.From, f.To = core.YearWindow(q.Year)
	}
	return f, nil
}

// TransactionPage is one page of a transaction listing.
type TransactionPage struct {
	Data       []core.Transaction `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int64              `json:"totalPages"`
}

func (s *LedgerService) ListTransactions(ctx context.Context, q TransactionQuery) ([]core.Transaction, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	return s.store.ListTransactions(ctx, f)
}

// PageTransactions returns page (1-based) of the listing. limit defaults to
// DefaultPageLimit and is capped at MaxPageLimit.
func (s *LedgerService) PageTransactions(ctx context.Context, q TransactionQuery, page, limit int) (TransactionPage, error) {
	f, err := q.filter()
	if err != nil {
		return TransactionPage{}, err
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	limit = min(limit, MaxPageLimit)

	total, err := s.store.CountTransactions(ctx, f)
	if err != nil {
		return TransactionPage{}, err
	}
	f.Limit, f.Offset = limit, (page-1)*limit
	data, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return TransactionPage{}, err
	}
	return TransactionPage{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// CreateTransaction stores the transaction and publishes a change event.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return t, err
	}
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return t, err
	}
	slog.InfoContext(ctx, "Transaction created",
		"id", created.ID, "type", created.Kind, "amount", created.Amount.String(), "date", created.Date.String())
	s.publish(ctx, amqp.EventTransaction, amqp.ActionCreated, created.ID, created.Date.Year())
	return created, nil
}

// UpdateTransaction replaces the transaction. The published event carries
// the year the transaction had before the change.
func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return t, err
	}
	prev, err := s.store.GetTransaction(ctx, t.ID)
	if err != nil {
		return t, err
	}
	updated, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return t, err
	}
	slog.InfoContext(ctx, "Transaction updated", "id", updated.ID)
	s.publish(ctx, amqp.EventTransaction, amqp.ActionUpdated, updated.ID, prev.Date.Year())
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	prev, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.publish(ctx, amqp.EventTransaction, amqp.ActionDeleted, id, prev.Date.Year())
	return nil
}
