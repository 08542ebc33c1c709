// Package stats aggregates owner-scoped transactions into balances, breakdowns and
// budget summaries. All sums use exact decimal arithmetic.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"finly/internal/models"
	"finly/internal/util"

	"github.com/shopspring/decimal"
)

// RecentDays is the length of the recent-activity window.
const RecentDays = 30

// NoCategoryLabel names budgets that are not tied to a category.
const NoCategoryLabel = "No category"

var ErrInvalidSort = errors.New("invalid sort")

// Summary holds income and expense sums and their difference.
type Summary struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// Totals sums income and expense over txs. Balance = income - expense.
func Totals(txs []models.Transaction) Summary {
	income, expense := decimal.Zero, decimal.Zero
	for i := range txs {
		switch txs[i].Type {
		case models.TypeIncome:
			income = income.Add(txs[i].Amount)
		case models.TypeExpense:
			expense = expense.Add(txs[i].Amount)
		}
	}
	return Summary{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// Recent is Totals restricted to rows dated on or after today - RecentDays.
func Recent(txs []models.Transaction, today time.Time) Summary {
	since := today.AddDate(0, 0, -RecentDays)
	recent := make([]models.Transaction, 0, len(txs))
	for i := range txs {
		if !txs[i].Date.Before(since) {
			recent = append(recent, txs[i])
		}
	}
	return Totals(recent)
}

// CategoryTotals is one entry of the by-category breakdown.
type CategoryTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Icon    string
}

// ByCategory groups categorized rows by category name. Uncategorized rows are skipped.
func ByCategory(txs []models.Transaction) map[string]CategoryTotals {
	out := make(map[string]CategoryTotals)
	for i := range txs {
		tx := &txs[i]
		if tx.Category == nil {
			continue
		}
		ct, ok := out[tx.Category.Name]
		if !ok {
			ct = CategoryTotals{Income: decimal.Zero, Expense: decimal.Zero}
		}
		switch tx.Type {
		case models.TypeIncome:
			ct.Income = ct.Income.Add(tx.Amount)
		case models.TypeExpense:
			ct.Expense = ct.Expense.Add(tx.Amount)
		}
		ct.Icon = tx.Category.Icon
		out[tx.Category.Name] = ct
	}
	return out
}

// MonthTotals is one entry of the by-month breakdown.
type MonthTotals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// ByMonth groups rows by "YYYY-MM" of their date.
func ByMonth(txs []models.Transaction) map[string]MonthTotals {
	out := make(map[string]MonthTotals)
	for i := range txs {
		tx := &txs[i]
		key := tx.Date.Format(util.MonthLayout)
		mt, ok := out[key]
		if !ok {
			mt = MonthTotals{Income: decimal.Zero, Expense: decimal.Zero}
		}
		switch tx.Type {
		case models.TypeIncome:
			mt.Income = mt.Income.Add(tx.Amount)
		case models.TypeExpense:
			mt.Expense = mt.Expense.Add(tx.Amount)
		}
		out[key] = mt
	}
	return out
}

// TopCategory is the category with the largest total expense. All fields are nil
// when there is no categorized expense.
type TopCategory struct {
	Name   *string
	Amount *decimal.Decimal
	Icon   *string
}

// TopExpenseCategory picks the category name with the highest expense total.
// Equal totals resolve to the lexicographically smallest name.
func TopExpenseCategory(txs []models.Transaction) TopCategory {
	totals := make(map[string]decimal.Decimal)
	icons := make(map[string]string)
	for i := range txs {
		tx := &txs[i]
		if tx.Type != models.TypeExpense || tx.Category == nil {
			continue
		}
		name := tx.Category.Name
		if cur, ok := totals[name]; ok {
			totals[name] = cur.Add(tx.Amount)
		} else {
			totals[name] = tx.Amount
		}
		icons[name] = tx.Category.Icon
	}

	var top TopCategory
	for name, total := range totals {
		if top.Name == nil || total.GreaterThan(*top.Amount) || (total.Equal(*top.Amount) && name < *top.Name) {
			n, amount, icon := name, total, icons[name]
			top = TopCategory{Name: &n, Amount: &amount, Icon: &icon}
		}
	}
	return top
}

// CategoryRow is one line of the category list summary.
type CategoryRow struct {
	ID           uint
	Name         string
	Icon         string
	TotalExpense decimal.Decimal
	TotalIncome  decimal.Decimal
}

const (
	SortTotalExpense = "total_expense"
	SortTotalIncome  = "total_income"
)

// CategoryList sums income and expense per distinct category used in txs and sorts
// by sortKey ("total_expense", "total_income", or "" for name order) in direction
// "asc" or "desc" ("" means desc). Unknown keys or directions return ErrInvalidSort.
func CategoryList(txs []models.Transaction, sortKey, direction string) ([]CategoryRow, error) {
	if sortKey != "" && sortKey != SortTotalExpense && sortKey != SortTotalIncome {
		return nil, fmt.Errorf("%w: order_by must be %q or %q, got %q", ErrInvalidSort, SortTotalExpense, SortTotalIncome, sortKey)
	}
	desc := true
	switch direction {
	case "", "desc":
	case "asc":
		desc = false
	default:
		return nil, fmt.Errorf("%w: direction must be \"asc\" or \"desc\", got %q", ErrInvalidSort, direction)
	}

	byID := make(map[uint]*CategoryRow)
	for i := range txs {
		tx := &txs[i]
		if tx.Category == nil {
			continue
		}
		row, ok := byID[tx.Category.ID]
		if !ok {
			row = &CategoryRow{
				ID:           tx.Category.ID,
				Name:         tx.Category.Name,
				Icon:         tx.Category.Icon,
				TotalExpense: decimal.Zero,
				TotalIncome:  decimal.Zero,
			}
			byID[tx.Category.ID] = row
		}
		switch tx.Type {
		case models.TypeIncome:
			row.TotalIncome = row.TotalIncome.Add(tx.Amount)
		case models.TypeExpense:
			row.TotalExpense = row.TotalExpense.Add(tx.Amount)
		}
	}

	rows := make([]CategoryRow, 0, len(byID))
	for _, r := range byID {
		rows = append(rows, *r)
	}

	byName := func(a, b CategoryRow) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if sortKey == "" {
			return byName(a, b)
		}
		va, vb := a.TotalExpense, b.TotalExpense
		if sortKey == SortTotalIncome {
			va, vb = a.TotalIncome, b.TotalIncome
		}
		if c := va.Cmp(vb); c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		return byName(a, b)
	})
	return rows, nil
}

// BudgetStatus is the budget-vs-actual line of one budget.
type BudgetStatus struct {
	BudgetID   uint
	CategoryID *uint
	Category   string
	Month      time.Time
	Start      time.Time
	End        time.Time
	Budgeted   decimal.Decimal
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	OverBudget bool
}

// BudgetSummary compares every budget with the expenses of its category in the
// calendar month of budget.Month (first through last day, inclusive). A budget
// without a category is compared with uncategorized expenses.
func BudgetSummary(budgets []models.Budget, expenses []models.Transaction) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(budgets))
	for i := range budgets {
		b := &budgets[i]
		start, end := util.MonthWindow(b.Month)

		spent := decimal.Zero
		for j := range expenses {
			tx := &expenses[j]
			if tx.Type != models.TypeExpense || !sameCategory(b.CategoryID, tx.CategoryID) {
				continue
			}
			if tx.Date.Before(start) || tx.Date.After(end) {
				continue
			}
			spent = spent.Add(tx.Amount)
		}

		label := NoCategoryLabel
		if b.Category != nil {
			label = b.Category.Name
		}
		out = append(out, BudgetStatus{
			BudgetID:   b.ID,
			CategoryID: b.CategoryID,
			Category:   label,
			Month:      b.Month,
			Start:      start,
			End:        end,
			Budgeted:   b.Amount,
			Spent:      spent,
			Remaining:  b.Amount.Sub(spent),
			OverBudget: spent.GreaterThan(b.Amount),
		})
	}
	return out
}

func sameCategory(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// BudgetWindow is the smallest date range covering every budget's month, used to
// load the expenses BudgetSummary needs in one query. ok is false for no budgets.
func BudgetWindow(budgets []models.Budget) (from, to time.Time, ok bool) {
	for i := range budgets {
		start, end := util.MonthWindow(budgets[i].Month)
		if !ok || start.Before(from) {
			from = start
		}
		if !ok || end.After(to) {
			to = end
		}
		ok = true
	}
	return from, to, ok
}
