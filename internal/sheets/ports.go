// Package sheets defines the spreadsheet mirror of the transaction ledger.
package sheets

import (
	"context"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
)

// LedgerRow is one transaction as mirrored to a spreadsheet. Rows live in
// one sheet per year.
type LedgerRow struct {
	ID          int64
	Date        core.Date
	Kind        core.Kind
	Description string
	Category    string
	Amount      core.Money
}

// RowFromTransaction flattens a transaction for the mirror.
func RowFromTransaction(t core.Transaction) LedgerRow {
	return LedgerRow{
		ID:          t.ID,
		Date:        t.Date,
		Kind:        t.Kind,
		Description: t.Description,
		Category:    t.CategoryName,
		Amount:      t.Amount,
	}
}

func (r LedgerRow) Validate() error {
	if r.ID <= 0 {
		return core.Validationf("row id must be positive")
	}
	if !r.Kind.Valid() {
		return core.ErrInvalidKind
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	return r.Date.Validate()
}

// Ports for outbound adapters.
type (
	RowWriter interface {
		AppendRow(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}

	RowLister interface {
		// ListRows returns the rows of the given year in sheet order.
		ListRows(ctx context.Context, year int) ([]LedgerRow, error)
	}

	RowDeleter interface {
		// DeleteRow removes the row with the given id. A missing row is not
		// an error.
		DeleteRow(ctx context.Context, year int, id int64) error
	}

	// Mirror is the full spreadsheet surface used by the worker.
	Mirror interface {
		RowWriter
		RowLister
		RowDeleter
	}
)
