package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
	"github.com/EleazarRC/contabilidad-personal/internal/sheets"
)

func row(id int64, year int) sheets.LedgerRow {
	return sheets.LedgerRow{
		ID:          id,
		Date:        core.NewDate(year, 3, 1),
		Kind:        core.Expense,
		Description: "compra",
		Category:    "Alimentación",
		Amount:      core.NewMoney(1234),
	}
}

func TestStoreAppendListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	ref, err := s.AppendRow(ctx, row(1, 2024))
	require.NoError(t, err)
	assert.Equal(t, "mem:2024:1", ref)
	ref, err = s.AppendRow(ctx, row(2, 2024))
	require.NoError(t, err)
	assert.Equal(t, "mem:2024:2", ref)
	_, err = s.AppendRow(ctx, row(3, 2025))
	require.NoError(t, err)

	rows, err := s.ListRows(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)

	require.NoError(t, s.DeleteRow(ctx, 2024, 1))
	require.NoError(t, s.DeleteRow(ctx, 2024, 99))
	rows, err = s.ListRows(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(2), rows[0].ID)

	rows, err = s.ListRows(ctx, 1999)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStoreRejectsInvalidRow(t *testing.T) {
	bad := row(0, 2024)
	_, err := New().AppendRow(context.Background(), bad)
	assert.True(t, core.IsValidation(err))
}
