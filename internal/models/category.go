package models

// Category groups transactions. Names are free text and not unique per user.
type Category struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"index;not null"`
	Name   string `gorm:"size:100;not null"`
	Icon   string `gorm:"size:50"`
}
