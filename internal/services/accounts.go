package services

import (
	"context"
	"log/slog"

	"github.com/EleazarRC/contabilidad-personal/internal/amqp"
	"github.com/EleazarRC/contabilidad-personal/internal/core"
	"github.com/EleazarRC/contabilidad-personal/internal/storage"
)

func movementEntries(movements []core.SavingsMovement) []core.LedgerEntry {
	entries := make([]core.LedgerEntry, len(movements))
	for i, m := range movements {
		entries[i] = m.LedgerEntry()
	}
	return entries
}

func paymentEntries(payments []core.DebtPayment) []core.LedgerEntry {
	entries := make([]core.LedgerEntry, len(payments))
	for i, p := range payments {
		entries[i] = p.LedgerEntry()
	}
	return entries
}

// ListSavingsAccounts returns every account with its derived balance,
// ordered by name.
func (s *LedgerService) ListSavingsAccounts(ctx context.Context) ([]core.SavingsBalance, error) {
	accounts, err := s.store.ListSavingsAccounts(ctx)
	if err != nil {
		return nil, err
	}
	movements, err := s.store.ListSavingsMovements(ctx, storage.MovementFilter{})
	if err != nil {
		return nil, err
	}
	return core.SavingsBalances(accounts, movementEntries(movements)), nil
}

// SavingsSummary totals all accounts, largest balance first.
func (s *LedgerService) SavingsSummary(ctx context.Context) (core.SavingsSummary, error) {
	balances, err := s.ListSavingsAccounts(ctx)
	if err != nil {
		return core.SavingsSummary{}, err
	}
	return core.SummarizeSavings(balances), nil
}

func (s *LedgerService) GetSavingsAccount(ctx context.Context, id int64) (core.SavingsBalance, error) {
	account, err := s.store.GetSavingsAccount(ctx, id)
	if err != nil {
		return core.SavingsBalance{}, err
	}
	movements, err := s.store.ListSavingsMovements(ctx, storage.MovementFilter{AccountID: id})
	if err != nil {
		return core.SavingsBalance{}, err
	}
	return core.NewSavingsBalance(account, movementEntries(movements)), nil
}

func (s *LedgerService) CreateSavingsAccount(ctx context.Context, a core.SavingsAccount) (core.SavingsAccount, error) {
	if a.Color == "" {
		a.Color = core.DefaultColor
	}
	if err := a.Validate(); err != nil {
		return a, err
	}
	created, err := s.store.CreateSavingsAccount(ctx, a)
	if err != nil {
		return a, err
	}
	slog.InfoContext(ctx, "Savings account created", "id", created.ID, "name", created.Name)
	return created, nil
}

func (s *LedgerService) UpdateSavingsAccount(ctx context.Context, a core.SavingsAccount) (core.SavingsAccount, error) {
	if a.Color == "" {
		a.Color = core.DefaultColor
	}
	if err := a.Validate(); err != nil {
		return a, err
	}
	return s.store.UpdateSavingsAccount(ctx, a)
}

// DeleteSavingsAccount fails with a conflict while the account has movements.
func (s *LedgerService) DeleteSavingsAccount(ctx context.Context, id int64) error {
	if err := s.store.DeleteSavingsAccount(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Savings account deleted", "id", id)
	return nil
}

// ListSavingsMovements returns the account's movements, newest first.
func (s *LedgerService) ListSavingsMovements(ctx context.Context, accountID int64) ([]core.SavingsMovement, error) {
	if _, err := s.store.GetSavingsAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.ListSavingsMovements(ctx, storage.MovementFilter{AccountID: accountID})
}

func (s *LedgerService) CreateSavingsMovement(ctx context.Context, m core.SavingsMovement) (core.SavingsMovement, error) {
	if err := m.Validate(); err != nil {
		return m, err
	}
	created, err := s.store.CreateSavingsMovement(ctx, m)
	if err != nil {
		return m, err
	}
	slog.InfoContext(ctx, "Savings movement recorded",
		"id", created.ID, "account_id", created.AccountID, "type", created.Kind, "amount", created.Amount.String())
	s.publish(ctx, amqp.EventSavingsMovement, amqp.ActionCreated, created.ID, created.Date.Year())
	return created, nil
}

func (s *LedgerService) DeleteSavingsMovement(ctx context.Context, id int64) error {
	if err := s.store.DeleteSavingsMovement(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Savings movement deleted", "id", id)
	s.publish(ctx, amqp.EventSavingsMovement, amqp.ActionDeleted, id, 0)
	return nil
}

// ListDebts returns every debt with its derived balance, largest first.
func (s *LedgerService) ListDebts(ctx context.Context) ([]core.DebtBalance, error) {
	debts, err := s.store.ListDebts(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListDebtPayments(ctx, 0)
	if err != nil {
		return nil, err
	}
	return core.DebtBalances(debts, paymentEntries(payments)), nil
}

func (s *LedgerService) DebtSummary(ctx context.Context) (core.DebtSummary, error) {
	balances, err := s.ListDebts(ctx)
	if err != nil {
		return core.DebtSummary{}, err
	}
	return core.SummarizeDebts(balances), nil
}

func (s *LedgerService) GetDebt(ctx context.Context, id int64) (core.DebtBalance, error) {
	debt, err := s.store.GetDebt(ctx, id)
	if err != nil {
		return core.DebtBalance{}, err
	}
	payments, err := s.store.ListDebtPayments(ctx, id)
	if err != nil {
		return core.DebtBalance{}, err
	}
	return core.NewDebtBalance(debt, paymentEntries(payments)), nil
}

func (s *LedgerService) CreateDebt(ctx context.Context, d core.DebtAccount) (core.DebtAccount, error) {
	if d.Color == "" {
		d.Color = core.DefaultDebtColor
	}
	if d.Type == "" {
		d.Type = core.Other
	}
	if err := d.Validate(); err != nil {
		return d, err
	}
	created, err := s.store.CreateDebt(ctx, d)
	if err != nil {
		return d, err
	}
	slog.InfoContext(ctx, "Debt created", "id", created.ID, "name", created.Name, "type", created.Type)
	return created, nil
}

func (s *LedgerService) UpdateDebt(ctx context.Context, d core.DebtAccount) (core.DebtAccount, error) {
	if d.Color == "" {
		d.Color = core.DefaultDebtColor
	}
	if d.Type == "" {
		d.Type = core.Other
	}
	if err := d.Validate(); err != nil {
		return d, err
	}
	return s.store.UpdateDebt(ctx, d)
}

// DeleteDebt fails with a conflict while the debt has payments.
func (s *LedgerService) DeleteDebt(ctx context.Context, id int64) error {
	if err := s.store.DeleteDebt(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Debt deleted", "id", id)
	return nil
}

func (s *LedgerService) ListDebtPayments(ctx context.Context, debtID int64) ([]core.DebtPayment, error) {
	if _, err := s.store.GetDebt(ctx, debtID); err != nil {
		return nil, err
	}
	return s.store.ListDebtPayments(ctx, debtID)
}

func (s *LedgerService) CreateDebtPayment(ctx context.Context, p core.DebtPayment) (core.DebtPayment, error) {
	if err := p.Validate(); err != nil {
		return p, err
	}
	created, err := s.store.CreateDebtPayment(ctx, p)
	if err != nil {
		return p, err
	}
	slog.InfoContext(ctx, "Debt payment recorded",
		"id", created.ID, "debt_id", created.DebtID, "type", created.Kind, "amount", created.Amount.String())
	s.publish(ctx, amqp.EventDebtPayment, amqp.ActionCreated, created.ID, created.Date.Year())
	return created, nil
}

func (s *LedgerService) DeleteDebtPayment(ctx context.Context, id int64) error {
	if err := s.store.DeleteDebtPayment(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Debt payment deleted", "id", id)
	s.publish(ctx, amqp.EventDebtPayment, amqp.ActionDeleted, id, 0)
	return nil
}
