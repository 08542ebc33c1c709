package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"finly/internal/util"
)

// Delimiter is the CSV field separator; semicolons keep decimal commas safe in
// spreadsheet locales that use them.
const Delimiter = ';'

func newCSVWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	return cw
}

// WriteDetailCSV writes the header row and one row per transaction.
func WriteDetailCSV(w io.Writer, r Report) error {
	cw := newCSVWriter(w)
	if err := writeDetail(cw, r); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteSummaryCSV writes the totals block, a blank row, the per-category expense
// block, a blank row, then the detail rows.
func WriteSummaryCSV(w io.Writer, r Report) error {
	cw := newCSVWriter(w)

	records := [][]string{
		{"Total income", util.FormatMoney(r.Totals.Income)},
		{"Total expense", util.FormatMoney(r.Totals.Expense)},
		{"Balance", util.FormatMoney(r.Totals.Balance)},
		{},
		{"Category", "Expense"},
	}
	for _, c := range r.CategoryExpenses {
		records = append(records, []string{c.Name, util.FormatMoney(c.Amount)})
	}
	records = append(records, []string{})

	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if err := writeDetail(cw, r); err != nil {
		return err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeDetail(cw *csv.Writer, r Report) error {
	if err := cw.Write(detailHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for i := range r.Transactions {
		if err := cw.Write(detailRow(&r.Transactions[i])); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	return nil
}
