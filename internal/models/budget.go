package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending in a category for one calendar month.
// Month is expected to be the first day of the month; that is a caller convention.
type Budget struct {
	ID         uint            `gorm:"primaryKey"`
	UserID     uint            `gorm:"index;not null"`
	CategoryID *uint           `gorm:"index"`
	Amount     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Month      time.Time       `gorm:"type:date;index;not null"`

	Category *Category `gorm:"constraint:OnDelete:SET NULL"`
}
