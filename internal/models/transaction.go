package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// ValidType reports whether t is one of the two transaction types.
func ValidType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction is a single income or expense record.
// Amount is an exact decimal with two places; Date is a calendar date kept at UTC midnight.
type Transaction struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      uint            `gorm:"index;not null"`
	CategoryID  *uint           `gorm:"index"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Type        string          `gorm:"size:10;index;not null"`
	Description string          `gorm:"type:text"`
	Date        time.Time       `gorm:"type:date;index;not null"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`

	Category *Category `gorm:"constraint:OnDelete:SET NULL"`
}

// CategoryName returns the category name or "" for uncategorized rows.
func (t *Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}
