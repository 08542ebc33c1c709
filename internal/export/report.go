// Package export renders transactions and their aggregates as CSV, PDF and XLSX documents.
package export

import (
	"fmt"
	"sort"
	"time"

	"finly/internal/models"
	"finly/internal/stats"
	"finly/internal/util"

	"github.com/shopspring/decimal"
)

const (
	PrefixSummary      = "finly_summary"
	PrefixTransactions = "finly_transakcje"
)

// Filename builds e.g. "finly_summary_2025-01-31.csv".
func Filename(prefix string, day time.Time, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, day.Format(util.DateLayout), ext)
}

// CategoryAmount is one line of the per-category expense block.
type CategoryAmount struct {
	Name   string
	Icon   string
	Amount decimal.Decimal
}

// Report is everything an exporter prints. Figures come from the stats package so
// every format shows the same numbers.
type Report struct {
	Owner            string
	Totals           stats.Summary
	CategoryExpenses []CategoryAmount
	Transactions     []models.Transaction
}

// NewReport aggregates txs for owner. Category expenses are ordered by amount
// descending, then name.
func NewReport(owner string, txs []models.Transaction) Report {
	var cats []CategoryAmount
	for name, ct := range stats.ByCategory(txs) {
		if ct.Expense.IsZero() {
			continue
		}
		cats = append(cats, CategoryAmount{Name: name, Icon: ct.Icon, Amount: ct.Expense})
	}
	sort.Slice(cats, func(i, j int) bool {
		if c := cats[i].Amount.Cmp(cats[j].Amount); c != 0 {
			return c > 0
		}
		return cats[i].Name < cats[j].Name
	})

	return Report{
		Owner:            owner,
		Totals:           stats.Totals(txs),
		CategoryExpenses: cats,
		Transactions:     txs,
	}
}

// detailRow is the common column set of CSV, PDF and XLSX transaction lines.
func detailRow(tx *models.Transaction) []string {
	return []string{
		tx.Date.Format(util.DateLayout),
		tx.Type,
		tx.CategoryName(),
		util.FormatMoney(tx.Amount),
		tx.Description,
	}
}

var detailHeader = []string{"Date", "Type", "Category", "Amount", "Description"}
