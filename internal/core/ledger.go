package core

import (
	"cmp"
	"slices"
)

// LedgerEntry is the minimal view of a savings movement or debt payment
// needed to roll up an account balance.
type LedgerEntry struct {
	AccountID int64
	Amount    Money
	// Increases is true when the entry raises the account balance
	// (deposit on savings, charge on debts).
	Increases bool
	Date      Date
}

// Rollup is the derived state of one account.
type Rollup struct {
	Balance      Money
	Increased    Money
	Decreased    Money
	Count        int
	LastActivity *Date
}

// RollUp folds ledger entries onto an initial balance. With no entries the
// balance equals initial, totals are zero and LastActivity is nil.
func RollUp(initial Money, entries []LedgerEntry) Rollup {
	r := Rollup{Balance: initial}
	for _, e := range entries {
		if e.Increases {
			r.Increased = r.Increased.Add(e.Amount)
			r.Balance = r.Balance.Add(e.Amount)
		} else {
			r.Decreased = r.Decreased.Add(e.Amount)
			r.Balance = r.Balance.Sub(e.Amount)
		}
		r.Count++
		if r.LastActivity == nil || e.Date.After(r.LastActivity.Time) {
			d := e.Date
			r.LastActivity = &d
		}
	}
	return r
}

// GroupByAccount splits entries by AccountID.
func GroupByAccount(entries []LedgerEntry) map[int64][]LedgerEntry {
	out := make(map[int64][]LedgerEntry)
	for _, e := range entries {
		out[e.AccountID] = append(out[e.AccountID], e)
	}
	return out
}

func (m SavingsMovement) LedgerEntry() LedgerEntry {
	return LedgerEntry{AccountID: m.AccountID, Amount: m.Amount, Increases: m.Kind == Deposit, Date: m.Date}
}

func (p DebtPayment) LedgerEntry() LedgerEntry {
	return LedgerEntry{AccountID: p.DebtID, Amount: p.Amount, Increases: p.Kind == Charge, Date: p.Date}
}

// SavingsBalance is a savings account with its derived balance.
type SavingsBalance struct {
	SavingsAccount
	CurrentBalance   Money `json:"current_balance"`
	TotalDeposited   Money `json:"total_deposited"`
	TotalWithdrawn   Money `json:"total_withdrawn"`
	MovementCount    int   `json:"movement_count"`
	LastMovementDate *Date `json:"last_movement_date"`
}

// DebtBalance is a debt with what is currently owed.
type DebtBalance struct {
	DebtAccount
	CurrentBalance  Money `json:"current_balance"`
	TotalPaid       Money `json:"total_paid"`
	TotalCharged    Money `json:"total_charged"`
	PaymentCount    int   `json:"payment_count"`
	LastPaymentDate *Date `json:"last_payment_date"`
}

func NewSavingsBalance(a SavingsAccount, entries []LedgerEntry) SavingsBalance {
	r := RollUp(a.InitialBalance, entries)
	return SavingsBalance{
		SavingsAccount:   a,
		CurrentBalance:   r.Balance,
		TotalDeposited:   r.Increased,
		TotalWithdrawn:   r.Decreased,
		MovementCount:    r.Count,
		LastMovementDate: r.LastActivity,
	}
}

func NewDebtBalance(d DebtAccount, entries []LedgerEntry) DebtBalance {
	r := RollUp(d.InitialAmount, entries)
	return DebtBalance{
		DebtAccount:     d,
		CurrentBalance:  r.Balance,
		TotalPaid:       r.Decreased,
		TotalCharged:    r.Increased,
		PaymentCount:    r.Count,
		LastPaymentDate: r.LastActivity,
	}
}

// SavingsBalances rolls up every account and returns them ordered by name.
func SavingsBalances(accounts []SavingsAccount, entries []LedgerEntry) []SavingsBalance {
	byAccount := GroupByAccount(entries)
	out := make([]SavingsBalance, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, NewSavingsBalance(a, byAccount[a.ID]))
	}
	slices.SortStableFunc(out, func(a, b SavingsBalance) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// DebtBalances rolls up every debt and returns them largest balance first.
func DebtBalances(debts []DebtAccount, entries []LedgerEntry) []DebtBalance {
	byDebt := GroupByAccount(entries)
	out := make([]DebtBalance, 0, len(debts))
	for _, d := range debts {
		out = append(out, NewDebtBalance(d, byDebt[d.ID]))
	}
	slices.SortStableFunc(out, func(a, b DebtBalance) int {
		if c := cmp.Compare(b.CurrentBalance.Cents, a.CurrentBalance.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// SavingsSummary is the savings overview: accounts by balance descending
// plus totals across all of them.
type SavingsSummary struct {
	Accounts       []SavingsBalance `json:"accounts"`
	TotalSaved     Money            `json:"total_saved"`
	TotalDeposited Money            `json:"total_deposited"`
	TotalWithdrawn Money            `json:"total_withdrawn"`
	AccountsCount  int              `json:"accounts_count"`
}

func SummarizeSavings(balances []SavingsBalance) SavingsSummary {
	s := SavingsSummary{Accounts: slices.Clone(balances), AccountsCount: len(balances)}
	if s.Accounts == nil {
		s.Accounts = []SavingsBalance{}
	}
	for _, b := range balances {
		s.TotalSaved = s.TotalSaved.Add(b.CurrentBalance)
		s.TotalDeposited = s.TotalDeposited.Add(b.TotalDeposited)
		s.TotalWithdrawn = s.TotalWithdrawn.Add(b.TotalWithdrawn)
	}
	slices.SortStableFunc(s.Accounts, func(a, b SavingsBalance) int {
		if c := cmp.Compare(b.CurrentBalance.Cents, a.CurrentBalance.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return s
}

// DebtSummary is the debt overview.
type DebtSummary struct {
	Debts         []DebtBalance `json:"debts"`
	TotalDebt     Money         `json:"total_debt"`
	TotalPaid     Money         `json:"total_paid"`
	TotalCharged  Money         `json:"total_charged"`
	TotalOriginal Money         `json:"total_original"`
	DebtsCount    int           `json:"debts_count"`
}

func SummarizeDebts(balances []DebtBalance) DebtSummary {
	s := DebtSummary{Debts: balances, DebtsCount: len(balances)}
	if s.Debts == nil {
		s.Debts = []DebtBalance{}
	}
	for _, b := range balances {
		s.TotalDebt = s.TotalDebt.Add(b.CurrentBalance)
		s.TotalPaid = s.TotalPaid.Add(b.TotalPaid)
		s.TotalCharged = s.TotalCharged.Add(b.TotalCharged)
		s.TotalOriginal = s.TotalOriginal.Add(b.InitialAmount)
	}
	return s
}
