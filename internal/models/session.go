package models

import (
	"time"
)

// SessionRecord persists an authorization session for the database session store
type SessionRecord struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Data      string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	UpdatedAt time.Time
}

func (SessionRecord) TableName() string {
	return "oauth_sessions"
}
