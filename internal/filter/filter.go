// Package filter turns transaction query parameters into an owner-scoped gorm query.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finly/internal/models"
	"finly/internal/util"

	"gorm.io/gorm"
)

var (
	ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
)

// Mode controls how malformed date bounds are treated.
type Mode int

const (
	// Strict rejects malformed start_date/end_date (statistics and summary exports).
	Strict Mode = iota
	// Lenient drops malformed start_date/end_date (transaction list and its exports).
	Lenient
)

// Order is the requested sort of a transaction listing.
type Order int

const (
	OrderDefault Order = iota
	OrderHighest
	OrderLowest
)

// Params are the raw query parameters accepted by the transaction endpoints.
type Params struct {
	Type      string
	Category  string
	StartDate string
	EndDate   string
	Month     string
	OrderBy   string
}

// ParamsFromQuery reads Params from a URL query.
func ParamsFromQuery(q url.Values) Params {
	return Params{
		Type:      strings.TrimSpace(q.Get("type")),
		Category:  strings.TrimSpace(q.Get("category")),
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
		Month:     strings.TrimSpace(q.Get("month")),
		OrderBy:   strings.TrimSpace(q.Get("order_by")),
	}
}

// Filter is a resolved predicate over one user's transactions plus a sort order.
// Date bounds are inclusive calendar days.
type Filter struct {
	UserID       uint
	Type         string
	CategoryID   *uint
	CategoryName string
	Start        *time.Time
	End          *time.Time
	Order        Order
}

// Resolve validates p and builds the Filter for userID.
func Resolve(userID uint, p Params, mode Mode) (Filter, error) {
	f := Filter{UserID: userID}

	if models.ValidType(p.Type) {
		f.Type = p.Type
	}

	if p.Category != "" {
		if id, err := strconv.ParseUint(p.Category, 10, 64); err == nil {
			cid := uint(id)
			f.CategoryID = &cid
		} else {
			f.CategoryName = p.Category
		}
	}

	if p.StartDate != "" {
		t, err := util.ParseDate(p.StartDate)
		switch {
		case err == nil:
			f.Start = &t
		case mode == Strict:
			return Filter{}, fmt.Errorf("start_date %q: %w", p.StartDate, ErrInvalidDate)
		}
	}
	if p.EndDate != "" {
		t, err := util.ParseDate(p.EndDate)
		switch {
		case err == nil:
			f.End = &t
		case mode == Strict:
			return Filter{}, fmt.Errorf("end_date %q: %w", p.EndDate, ErrInvalidDate)
		}
	}

	if p.Month != "" {
		m, err := util.ParseMonth(p.Month)
		if err != nil {
			return Filter{}, fmt.Errorf("month %q: %w", p.Month, ErrInvalidMonth)
		}
		first, last := util.MonthWindow(m)
		f.narrow(first, last)
	}

	switch p.OrderBy {
	case "highest":
		f.Order = OrderHighest
	case "lowest":
		f.Order = OrderLowest
	}

	return f, nil
}

// narrow intersects the date bounds with [from, to].
func (f *Filter) narrow(from, to time.Time) {
	if f.Start == nil || from.After(*f.Start) {
		f.Start = &from
	}
	if f.End == nil || to.Before(*f.End) {
		f.End = &to
	}
}

// OrderClause is the ORDER BY for the requested sort.
func (f Filter) OrderClause() string {
	switch f.Order {
	case OrderHighest:
		return "transactions.amount DESC, transactions.date DESC, transactions.id DESC"
	case OrderLowest:
		return "transactions.amount ASC, transactions.date DESC, transactions.id DESC"
	default:
		return "transactions.date DESC, transactions.created_at DESC, transactions.id DESC"
	}
}

// Apply scopes db to the filter: owner first, then every requested predicate, then ordering.
func (f Filter) Apply(db *gorm.DB) *gorm.DB {
	q := db.Model(&models.Transaction{}).Where("transactions.user_id = ?", f.UserID)

	if f.Type != "" {
		q = q.Where("transactions.type = ?", f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("transactions.category_id = ?", *f.CategoryID)
	} else if f.CategoryName != "" {
		sub := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Category{}).
			Select("id").
			Where("user_id = ? AND name = ?", f.UserID, f.CategoryName)
		q = q.Where("transactions.category_id IN (?)", sub)
	}
	if f.Start != nil {
		q = q.Where("transactions.date >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("transactions.date <= ?", *f.End)
	}

	return q.Order(f.OrderClause())
}

// Find loads the matching transactions with their categories.
func (f Filter) Find(db *gorm.DB) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := f.Apply(db).Preload("Category").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	return txs, nil
}
