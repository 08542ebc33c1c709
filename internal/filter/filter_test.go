package filter

import (
	"errors"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"finly/internal/config"
	"finly/internal/database"
	"finly/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestResolve_Type(t *testing.T) {
	for in, want := range map[string]string{"income": "income", "expense": "expense", "other": "", "": "", "INCOME": ""} {
		f, err := Resolve(1, Params{Type: in}, Strict)
		if err != nil {
			t.Fatalf("Resolve(type=%q) error = %v", in, err)
		}
		if f.Type != want {
			t.Errorf("Resolve(type=%q).Type = %q, want %q", in, f.Type, want)
		}
	}
}

func TestResolve_Category(t *testing.T) {
	f, _ := Resolve(1, Params{Category: "12"}, Lenient)
	if f.CategoryID == nil || *f.CategoryID != 12 || f.CategoryName != "" {
		t.Errorf("numeric category should resolve to id 12, got %+v", f)
	}

	f, _ = Resolve(1, Params{Category: "Food"}, Lenient)
	if f.CategoryID != nil || f.CategoryName != "Food" {
		t.Errorf("name category should resolve to name, got %+v", f)
	}

	f, _ = Resolve(1, Params{Category: "-3"}, Lenient)
	if f.CategoryID != nil || f.CategoryName != "-3" {
		t.Errorf("unparseable id should fall back to name, got %+v", f)
	}
}

func TestResolve_Dates(t *testing.T) {
	f, err := Resolve(1, Params{StartDate: "2025-01-01", EndDate: "2025-01-31"}, Strict)
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if !f.Start.Equal(day("2025-01-01")) || !f.End.Equal(day("2025-01-31")) {
		t.Errorf("bounds = %v..%v", f.Start, f.End)
	}

	if _, err := Resolve(1, Params{StartDate: "2025-02-30"}, Strict); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("strict bad start_date error = %v, want ErrInvalidDate", err)
	}
	if _, err := Resolve(1, Params{EndDate: "yesterday"}, Strict); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("strict bad end_date error = %v, want ErrInvalidDate", err)
	}

	f, err = Resolve(1, Params{StartDate: "nope", EndDate: "2025-01-31"}, Lenient)
	if err != nil {
		t.Fatalf("lenient bad start_date error = %v, want nil", err)
	}
	if f.Start != nil || f.End == nil {
		t.Errorf("lenient mode should drop only the bad bound, got %+v", f)
	}
}

func TestResolve_Month(t *testing.T) {
	f, err := Resolve(1, Params{Month: "2024-02"}, Lenient)
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if !f.Start.Equal(day("2024-02-01")) || !f.End.Equal(day("2024-02-29")) {
		t.Errorf("month window = %v..%v", f.Start, f.End)
	}

	for _, bad := range []string{"2025-13-1", "2025-13", "2025-1", "Jan"} {
		for _, mode := range []Mode{Strict, Lenient} {
			if _, err := Resolve(1, Params{Month: bad}, mode); !errors.Is(err, ErrInvalidMonth) {
				t.Errorf("Resolve(month=%q, mode=%d) error = %v, want ErrInvalidMonth", bad, mode, err)
			}
		}
	}
}

func TestResolve_MonthIntersectsRange(t *testing.T) {
	f, err := Resolve(1, Params{Month: "2025-01", StartDate: "2025-01-10", EndDate: "2025-03-01"}, Strict)
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if !f.Start.Equal(day("2025-01-10")) || !f.End.Equal(day("2025-01-31")) {
		t.Errorf("bounds = %v..%v, want 2025-01-10..2025-01-31", f.Start, f.End)
	}
}

func TestResolve_Order(t *testing.T) {
	cases := map[string]Order{"highest": OrderHighest, "lowest": OrderLowest, "": OrderDefault, "date": OrderDefault}
	for in, want := range cases {
		f, _ := Resolve(1, Params{OrderBy: in}, Lenient)
		if f.Order != want {
			t.Errorf("order_by=%q -> %v, want %v", in, f.Order, want)
		}
	}
}

func TestParamsFromQuery(t *testing.T) {
	q, _ := url.ParseQuery("type=expense&category=Food&start_date=2025-01-01&end_date=2025-01-31&month=2025-01&order_by=highest")
	p := ParamsFromQuery(q)
	want := Params{Type: "expense", Category: "Food", StartDate: "2025-01-01", EndDate: "2025-01-31", Month: "2025-01", OrderBy: "highest"}
	if p != want {
		t.Errorf("ParamsFromQuery = %+v, want %+v", p, want)
	}
}

// ---------- against a real database ----------

type fixture struct {
	db          *gorm.DB
	alice, bob  models.User
	food, other models.Category
}

func setupFixture(t *testing.T) fixture {
	t.Helper()
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "filter.db")})
	if err != nil {
		t.Fatalf("Init test database failed: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	fx := fixture{db: db}
	fx.alice = models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	fx.bob = models.User{Username: "bobby", Email: "bob@example.com", PasswordHash: "x"}
	db.Create(&fx.alice)
	db.Create(&fx.bob)
	fx.food = models.Category{UserID: fx.alice.ID, Name: "Food"}
	fx.other = models.Category{UserID: fx.bob.ID, Name: "Food"}
	db.Create(&fx.food)
	db.Create(&fx.other)

	add := func(user uint, cat *uint, typ, amount, date string) {
		tx := models.Transaction{
			UserID:     user,
			CategoryID: cat,
			Type:       typ,
			Amount:     decimal.RequireFromString(amount),
			Date:       day(date),
		}
		if err := db.Create(&tx).Error; err != nil {
			t.Fatalf("create transaction: %v", err)
		}
	}
	add(fx.alice.ID, &fx.food.ID, models.TypeExpense, "50.00", "2025-01-05")
	add(fx.alice.ID, nil, models.TypeIncome, "1000.00", "2025-01-10")
	add(fx.alice.ID, &fx.food.ID, models.TypeExpense, "20.50", "2025-02-01")
	add(fx.alice.ID, nil, models.TypeExpense, "7.25", "2024-12-31")
	add(fx.bob.ID, &fx.other.ID, models.TypeExpense, "999.00", "2025-01-05")
	return fx
}

func find(t *testing.T, fx fixture, p Params) []models.Transaction {
	t.Helper()
	f, err := Resolve(fx.alice.ID, p, Lenient)
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	txs, err := f.Find(fx.db)
	if err != nil {
		t.Fatalf("Find error = %v", err)
	}
	return txs
}

func TestApply_OwnerScoped(t *testing.T) {
	fx := setupFixture(t)
	txs := find(t, fx, Params{})
	if len(txs) != 4 {
		t.Fatalf("got %d transactions, want 4", len(txs))
	}
	for _, tx := range txs {
		if tx.UserID != fx.alice.ID {
			t.Errorf("foreign transaction %d leaked into result", tx.ID)
		}
	}
	// default order: date descending
	for i := 1; i < len(txs); i++ {
		if txs[i].Date.After(txs[i-1].Date) {
			t.Errorf("default order not date descending at %d", i)
		}
	}
}

func TestApply_CategoryByNameAndID(t *testing.T) {
	fx := setupFixture(t)

	byName := find(t, fx, Params{Category: "Food"})
	if len(byName) != 2 {
		t.Errorf("category=Food got %d rows, want 2", len(byName))
	}
	for _, tx := range byName {
		if tx.CategoryName() != "Food" {
			t.Errorf("row %d category = %q", tx.ID, tx.CategoryName())
		}
	}

	// bob's category id must not expose bob's rows
	if got := find(t, fx, Params{Category: uintString(fx.other.ID)}); len(got) != 0 {
		t.Errorf("foreign category id returned %d rows, want 0", len(got))
	}
}

func TestApply_DateRangeInclusive(t *testing.T) {
	fx := setupFixture(t)
	got := find(t, fx, Params{StartDate: "2025-01-05", EndDate: "2025-01-10"})
	if len(got) != 2 {
		t.Errorf("inclusive range got %d rows, want 2", len(got))
	}

	got = find(t, fx, Params{Month: "2025-01", Type: "expense"})
	if len(got) != 1 || !got[0].Amount.Equal(decimal.RequireFromString("50")) {
		t.Errorf("month=2025-01 type=expense got %v", got)
	}
}

func TestApply_AmountOrder(t *testing.T) {
	fx := setupFixture(t)

	high := find(t, fx, Params{OrderBy: "highest"})
	for i := 1; i < len(high); i++ {
		if high[i].Amount.GreaterThan(high[i-1].Amount) {
			t.Errorf("highest not non-increasing at %d: %s > %s", i, high[i].Amount, high[i-1].Amount)
		}
	}
	low := find(t, fx, Params{OrderBy: "lowest"})
	for i := 1; i < len(low); i++ {
		if low[i].Amount.LessThan(low[i-1].Amount) {
			t.Errorf("lowest not non-decreasing at %d: %s < %s", i, low[i].Amount, low[i-1].Amount)
		}
	}
	if !high[0].Amount.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("highest first = %s, want 1000", high[0].Amount)
	}
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
