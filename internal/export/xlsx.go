// Package export renders ledger reports as spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/EleazarRC/contabilidad-personal/internal/core"
)

const (
	SummarySheet      = "Resumen"
	TransactionsSheet = "Movimientos"

	// ContentType is the MIME type of the files AnnualReport writes.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// Filename is the suggested download name of a year's report.
func Filename(year int) string {
	return fmt.Sprintf("contabilidad_%d.xlsx", year)
}

// AnnualReport writes a workbook with the month breakdown of summary and
// the listed transactions.
func AnnualReport(w io.Writer, summary core.AnnualSummary, txs []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummary(f, summary); err != nil {
		return err
	}

	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		return fmt.Errorf("create transactions sheet: %w", err)
	}
	if err := writeTransactions(f, txs); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func writeSummary(f *excelize.File, s core.AnnualSummary) error {
	if err := setRow(f, SummarySheet, 1, []any{fmt.Sprintf("Resumen %d", s.Year)}); err != nil {
		return err
	}
	if err := setRow(f, SummarySheet, 2, []any{"Mes", "Ingresos", "Gastos", "Balance"}); err != nil {
		return err
	}
	for i, m := range s.Months {
		balance := m.Income.Sub(m.Expense)
		row := []any{monthNames[m.Month-1], m.Income.Euros(), m.Expense.Euros(), balance.Euros()}
		if err := setRow(f, SummarySheet, i+3, row); err != nil {
			return err
		}
	}
	totals := []any{"Total", s.Income.Euros(), s.Expense.Euros(), s.Balance.Euros()}
	if err := setRow(f, SummarySheet, len(s.Months)+3, totals); err != nil {
		return err
	}

	f.SetColWidth(SummarySheet, "A", "A", 14)
	f.SetColWidth(SummarySheet, "B", "D", 14)
	return nil
}

func writeTransactions(f *excelize.File, txs []core.Transaction) error {
	header := []any{"Fecha", "Tipo", "Categoría", "Descripción", "Importe"}
	if err := setRow(f, TransactionsSheet, 1, header); err != nil {
		return err
	}
	for i, t := range txs {
		kind := "Gasto"
		if t.Kind == core.Income {
			kind = "Ingreso"
		}
		row := []any{t.Date.String(), kind, t.CategoryName, t.Description, t.Amount.Euros()}
		if err := setRow(f, TransactionsSheet, i+2, row); err != nil {
			return err
		}
	}

	f.SetColWidth(TransactionsSheet, "A", "A", 12)
	f.SetColWidth(TransactionsSheet, "B", "B", 10)
	f.SetColWidth(TransactionsSheet, "C", "C", 18)
	f.SetColWidth(TransactionsSheet, "D", "D", 40)
	f.SetColWidth(TransactionsSheet, "E", "E", 12)
	return nil
}
