package google

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
	ports "github.com/EleazarRC/contabilidad-personal/internal/sheets"
)

// Column layout: A id, B date, C type, D description, E category, F amount.
func rowValues(r ports.LedgerRow) []any {
	return []any{r.ID, r.Date.String(), string(r.Kind), r.Description, r.Category, r.Amount.String()}
}

// parseLedgerRows converts a values matrix (as returned by Sheets API) into
// ledger rows. Rows without a numeric id or a parseable amount, such as the
// header or cleared rows, are skipped.
func parseLedgerRows(values [][]any) []ports.LedgerRow {
	out := make([]ports.LedgerRow, 0, len(values))
	for _, raw := range values {
		cols := toStrings(raw)
		if len(cols) < 6 {
			continue
		}
		id, err := strconv.ParseInt(cols[0], 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		date, err := core.ParseDate(cols[1])
		if err != nil {
			continue
		}
		amount, err := core.ParseMoney(cols[5])
		if err != nil {
			continue
		}
		out = append(out, ports.LedgerRow{
			ID:          id,
			Date:        date,
			Kind:        core.Kind(strings.ToLower(cols[2])),
			Description: cols[3],
			Category:    cols[4],
			Amount:      amount,
		})
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
