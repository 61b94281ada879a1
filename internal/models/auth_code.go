package models

import (
	"time"
)

// DefaultCodeTimeout is how long an authorization code stays exchangeable
const DefaultCodeTimeout = 10 * time.Minute

// AuthCode is a one-time code handed to the client through a browser redirect
type AuthCode struct {
	ID          uint      `gorm:"primaryKey"`
	Code        string    `gorm:"uniqueIndex;size:128;not null"`
	ClientID    uint      `gorm:"index;not null"`
	Client      Client    `gorm:"constraint:OnDelete:CASCADE"`
	MemberID    uint      `gorm:"index;not null"`
	Member      Member    `gorm:"constraint:OnDelete:CASCADE"`
	RedirectURI string    `gorm:"size:1024"`
	Scopes      []Scope   `gorm:"many2many:oauth_auth_code_scopes"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (AuthCode) TableName() string {
	return "oauth_auth_codes"
}

// ExpiresAt is fixed by the creation time, later writes do not move it
func (a *AuthCode) ExpiresAt(timeout time.Duration) time.Time {
	return a.CreatedAt.Add(timeout)
}

// IsValid reports whether the code can still be exchanged at now
func (a *AuthCode) IsValid(now time.Time, timeout time.Duration) bool {
	return !now.After(a.ExpiresAt(timeout))
}
