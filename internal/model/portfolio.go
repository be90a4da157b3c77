package model

import (
	"time"

	"gorm.io/gorm"
)

// Portfolio is one published version of a portfolio document. Every publish creates
// a new row with its own unique URL.
type Portfolio struct {
	ID          string    `gorm:"primaryKey;uuid;not null"`
	OwnerID     string    `gorm:"index:idx_portfolios_owner_created;not null"`
	UniqueURL   string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"not null"`
	Theme       string    `gorm:"index;not null"`
	Content     string    `gorm:"not null"` // encoded PortfolioDocument
	Compression string    // the compression algorithm used to encode the content
	CreatedAt   time.Time `gorm:"index:idx_portfolios_owner_created"`
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Portfolio) TableName() string {
	return "portfolios"
}

// ThemeCount is one bucket of the theme distribution.
type ThemeCount struct {
	Theme string
	Count int64
}
