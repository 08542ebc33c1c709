package stats

import (
	"errors"
	"testing"
	"time"

	"finly/internal/models"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func tx(typ, amount, date string, cat *models.Category) models.Transaction {
	t := models.Transaction{Type: typ, Amount: d(amount), Date: day(date), Category: cat}
	if cat != nil {
		t.CategoryID = &cat.ID
	}
	return t
}

var (
	food   = &models.Category{ID: 1, Name: "Food", Icon: "🍔"}
	rent   = &models.Category{ID: 2, Name: "Rent", Icon: "🏠"}
	salary = &models.Category{ID: 3, Name: "Salary", Icon: "💰"}
)

func TestScenario_BalanceAndFood(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TypeExpense, "50.00", "2025-01-05", food),
		tx(models.TypeIncome, "1000.00", "2025-01-10", nil),
	}

	sum := Totals(txs)
	if !sum.Balance.Equal(d("950.00")) {
		t.Errorf("balance = %s, want 950.00", sum.Balance)
	}
	if got := ByCategory(txs)["Food"].Expense; !got.Equal(d("50.00")) {
		t.Errorf("by_category[Food].expense = %s, want 50.00", got)
	}
}

func TestTotals_ExactDecimal(t *testing.T) {
	var txs []models.Transaction
	for i := 0; i < 1000; i++ {
		txs = append(txs, tx(models.TypeIncome, "0.10", "2025-01-01", nil))
		txs = append(txs, tx(models.TypeExpense, "0.01", "2025-01-01", nil))
	}
	sum := Totals(txs)
	if !sum.Income.Equal(d("100")) || !sum.Expense.Equal(d("10")) || !sum.Balance.Equal(d("90")) {
		t.Errorf("totals = %+v, want 100/10/90 exactly", sum)
	}
	if !sum.Balance.Equal(sum.Income.Sub(sum.Expense)) {
		t.Error("balance must equal income - expense")
	}
}

func TestTotals_Empty(t *testing.T) {
	sum := Totals(nil)
	if !sum.Income.IsZero() || !sum.Expense.IsZero() || !sum.Balance.IsZero() {
		t.Errorf("empty totals = %+v, want zeros", sum)
	}
}

func TestRecent(t *testing.T) {
	today := day("2025-03-31")
	txs := []models.Transaction{
		tx(models.TypeIncome, "100", "2025-03-31", nil),
		tx(models.TypeExpense, "10", "2025-03-01", nil), // exactly 30 days back
		tx(models.TypeExpense, "99", "2025-02-28", nil), // 31 days back
	}
	r := Recent(txs, today)
	if !r.Income.Equal(d("100")) || !r.Expense.Equal(d("10")) || !r.Balance.Equal(d("90")) {
		t.Errorf("recent = %+v, want 100/10/90", r)
	}
}

func TestByCategory_SumsMatchCategorizedRows(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TypeExpense, "12.30", "2025-01-01", food),
		tx(models.TypeExpense, "7.70", "2025-01-02", food),
		tx(models.TypeExpense, "800", "2025-01-03", rent),
		tx(models.TypeIncome, "3000", "2025-01-04", salary),
		tx(models.TypeIncome, "5", "2025-01-05", food),
		tx(models.TypeExpense, "42", "2025-01-06", nil),
	}

	byCat := ByCategory(txs)
	if len(byCat) != 3 {
		t.Fatalf("got %d categories, want 3", len(byCat))
	}
	if byCat["Food"].Icon != "🍔" {
		t.Errorf("Food icon = %q", byCat["Food"].Icon)
	}

	sumCats := decimal.Zero
	for _, ct := range byCat {
		sumCats = sumCats.Add(ct.Income).Add(ct.Expense)
	}
	sumRows := decimal.Zero
	for _, x := range txs {
		if x.Category != nil {
			sumRows = sumRows.Add(x.Amount)
		}
	}
	if !sumCats.Equal(sumRows) {
		t.Errorf("category sums %s != categorized rows %s", sumCats, sumRows)
	}

	// uncategorized rows still count toward the balance
	if !Totals(txs).Expense.Equal(d("862")) {
		t.Errorf("total expense = %s, want 862", Totals(txs).Expense)
	}
}

func TestByMonth(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TypeExpense, "10", "2025-01-31", nil),
		tx(models.TypeIncome, "20", "2025-01-01", food),
		tx(models.TypeExpense, "5", "2025-02-01", nil),
	}
	m := ByMonth(txs)
	if len(m) != 2 {
		t.Fatalf("got %d months, want 2", len(m))
	}
	if !m["2025-01"].Income.Equal(d("20")) || !m["2025-01"].Expense.Equal(d("10")) {
		t.Errorf("2025-01 = %+v", m["2025-01"])
	}
	if !m["2025-02"].Expense.Equal(d("5")) || !m["2025-02"].Income.IsZero() {
		t.Errorf("2025-02 = %+v", m["2025-02"])
	}
}

func TestTopExpenseCategory(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TypeExpense, "30", "2025-01-01", food),
		tx(models.TypeExpense, "30", "2025-01-02", food),
		tx(models.TypeExpense, "50", "2025-01-03", rent),
		tx(models.TypeIncome, "9999", "2025-01-04", salary),
	}
	top := TopExpenseCategory(txs)
	if top.Name == nil || *top.Name != "Food" {
		t.Fatalf("top name = %v, want Food", top.Name)
	}
	if !top.Amount.Equal(d("60")) || *top.Icon != "🍔" {
		t.Errorf("top = %s %s", top.Amount, *top.Icon)
	}
}

func TestTopExpenseCategory_TieBreakByName(t *testing.T) {
	zeta := &models.Category{ID: 9, Name: "Zeta"}
	alpha := &models.Category{ID: 8, Name: "Alpha"}
	for i := 0; i < 20; i++ {
		top := TopExpenseCategory([]models.Transaction{
			tx(models.TypeExpense, "10", "2025-01-01", zeta),
			tx(models.TypeExpense, "10", "2025-01-01", alpha),
		})
		if *top.Name != "Alpha" {
			t.Fatalf("tie resolved to %s, want Alpha", *top.Name)
		}
	}
}

func TestTopExpenseCategory_None(t *testing.T) {
	top := TopExpenseCategory([]models.Transaction{
		tx(models.TypeIncome, "10", "2025-01-01", salary),
		tx(models.TypeExpense, "10", "2025-01-01", nil),
	})
	if top.Name != nil || top.Amount != nil || top.Icon != nil {
		t.Errorf("top = %+v, want all nil", top)
	}
}

func TestCategoryList_SortIncomeAscending(t *testing.T) {
	a := &models.Category{ID: 1, Name: "A"}
	b := &models.Category{ID: 2, Name: "B"}
	txs := []models.Transaction{
		tx(models.TypeIncome, "50", "2025-01-01", b),
		tx(models.TypeIncome, "10", "2025-01-01", a),
	}

	rows, err := CategoryList(txs, SortTotalIncome, "asc")
	if err != nil {
		t.Fatalf("CategoryList error = %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "A" || rows[1].Name != "B" {
		t.Errorf("order = %v, want [A B]", rows)
	}
	if !rows[0].TotalExpense.IsZero() {
		t.Errorf("A total_expense = %s, want 0", rows[0].TotalExpense)
	}

	rows, _ = CategoryList(txs, SortTotalIncome, "desc")
	if rows[0].Name != "B" {
		t.Errorf("desc first = %s, want B", rows[0].Name)
	}
}

func TestCategoryList_DistinctByID(t *testing.T) {
	food2 := &models.Category{ID: 7, Name: "Food"}
	rows, err := CategoryList([]models.Transaction{
		tx(models.TypeExpense, "5", "2025-01-01", food),
		tx(models.TypeExpense, "6", "2025-01-01", food2),
		tx(models.TypeExpense, "1", "2025-01-01", nil),
	}, SortTotalExpense, "")
	if err != nil {
		t.Fatalf("CategoryList error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (same name, different ids)", len(rows))
	}
	if rows[0].ID != 7 {
		t.Errorf("default direction should be desc, first id = %d", rows[0].ID)
	}
}

func TestCategoryList_InvalidSort(t *testing.T) {
	if _, err := CategoryList(nil, "amount", "asc"); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("unknown key error = %v, want ErrInvalidSort", err)
	}
	if _, err := CategoryList(nil, SortTotalExpense, "up"); !errors.Is(err, ErrInvalidSort) {
		t.Errorf("unknown direction error = %v, want ErrInvalidSort", err)
	}
	rows, err := CategoryList(nil, "", "")
	if err != nil || len(rows) != 0 {
		t.Errorf("empty list = %v, %v", rows, err)
	}
}

func TestBudgetSummary_Scenario(t *testing.T) {
	budgets := []models.Budget{{ID: 1, CategoryID: &food.ID, Category: food, Amount: d("100.00"), Month: day("2025-01-01")}}
	expenses := []models.Transaction{tx(models.TypeExpense, "50.00", "2025-01-05", food)}

	got := BudgetSummary(budgets, expenses)
	if len(got) != 1 {
		t.Fatalf("got %d statuses, want 1", len(got))
	}
	s := got[0]
	if !s.Spent.Equal(d("50.00")) || !s.Remaining.Equal(d("50.00")) || s.OverBudget {
		t.Errorf("status = spent %s remaining %s over %v, want 50/50/false", s.Spent, s.Remaining, s.OverBudget)
	}
	if s.Category != "Food" {
		t.Errorf("category = %q, want Food", s.Category)
	}
}

func TestBudgetSummary_WindowAndOverBudget(t *testing.T) {
	budgets := []models.Budget{
		{ID: 1, CategoryID: &food.ID, Category: food, Amount: d("100"), Month: day("2025-02-01")},
		{ID: 2, CategoryID: &rent.ID, Category: rent, Amount: d("800"), Month: day("2025-02-01")},
		{ID: 3, Amount: d("10"), Month: day("2025-02-01")},
	}
	expenses := []models.Transaction{
		tx(models.TypeExpense, "60", "2025-02-01", food),
		tx(models.TypeExpense, "60", "2025-02-28", food),
		tx(models.TypeExpense, "500", "2025-01-31", food), // outside window
		tx(models.TypeExpense, "500", "2025-03-01", food), // outside window
		tx(models.TypeIncome, "1000", "2025-02-10", food), // not an expense
		tx(models.TypeExpense, "800", "2025-02-15", rent),
		tx(models.TypeExpense, "4", "2025-02-15", nil),
	}

	got := BudgetSummary(budgets, expenses)

	if !got[0].Spent.Equal(d("120")) || !got[0].Remaining.Equal(d("-20")) || !got[0].OverBudget {
		t.Errorf("food = %+v, want spent 120 remaining -20 over", got[0])
	}
	if !got[1].Spent.Equal(d("800")) || !got[1].Remaining.IsZero() || got[1].OverBudget {
		t.Errorf("rent = %+v, want spent 800 remaining 0 not over (strict)", got[1])
	}
	if got[2].Category != NoCategoryLabel || !got[2].Spent.Equal(d("4")) {
		t.Errorf("uncategorized = %+v", got[2])
	}
	for _, s := range got {
		if !s.Remaining.Equal(s.Budgeted.Sub(s.Spent)) {
			t.Errorf("budget %d remaining %s != budgeted - spent", s.BudgetID, s.Remaining)
		}
		if s.OverBudget != s.Spent.GreaterThan(s.Budgeted) {
			t.Errorf("budget %d over_budget inconsistent", s.BudgetID)
		}
	}
	if got[0].End.Format("2006-01-02") != "2025-02-28" {
		t.Errorf("window end = %s", got[0].End)
	}
}

func TestBudgetWindow(t *testing.T) {
	if _, _, ok := BudgetWindow(nil); ok {
		t.Error("no budgets should report ok=false")
	}
	from, to, ok := BudgetWindow([]models.Budget{
		{Month: day("2025-03-01")},
		{Month: day("2024-11-15")},
	})
	if !ok || from.Format("2006-01-02") != "2024-11-01" || to.Format("2006-01-02") != "2025-03-31" {
		t.Errorf("window = %s..%s", from, to)
	}
}
