package model

import "time"

// Draft is the last synced state of an edit session's preview slot.
type Draft struct {
	SessionID   string `gorm:"primaryKey;uuid;not null"`
	OwnerID     string `gorm:"index"`
	Content     string `gorm:"not null"`
	Compression string
	Version     int64
	UpdatedAt   time.Time
}

func (Draft) TableName() string {
	return "drafts"
}
