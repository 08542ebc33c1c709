package export

import (
	"fmt"
	"io"

	"finly/internal/util"

	"github.com/xuri/excelize/v2"
)

const (
	sheetTransactions = "Transactions"
	sheetSummary      = "Summary"
)

// WriteXLSX writes a workbook with a Summary sheet and a Transactions sheet.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetTransactions); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	summary := [][]interface{}{
		{"Owner", r.Owner},
		{"Total income", util.FormatMoney(r.Totals.Income)},
		{"Total expense", util.FormatMoney(r.Totals.Expense)},
		{"Balance", util.FormatMoney(r.Totals.Balance)},
		{},
		{"Category", "Expense"},
	}
	for _, c := range r.CategoryExpenses {
		summary = append(summary, []interface{}{c.Name, util.FormatMoney(c.Amount)})
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	header := make([]interface{}, len(detailHeader))
	for i, h := range detailHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetTransactions, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range r.Transactions {
		cols := detailRow(&r.Transactions[i])
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			row[j] = c
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetTransactions, cell, &row); err != nil {
			return fmt.Errorf("write transaction row: %w", err)
		}
	}

	f.SetColWidth(sheetSummary, "A", "A", 18)
	f.SetColWidth(sheetSummary, "B", "B", 14)
	f.SetColWidth(sheetTransactions, "A", "A", 12)
	f.SetColWidth(sheetTransactions, "B", "B", 10)
	f.SetColWidth(sheetTransactions, "C", "C", 18)
	f.SetColWidth(sheetTransactions, "D", "D", 12)
	f.SetColWidth(sheetTransactions, "E", "E", 40)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
