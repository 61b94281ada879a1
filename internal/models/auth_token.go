package models

import (
	"time"
)

// AuthToken is a bearer access token issued for a client acting on behalf of a member
type AuthToken struct {
	ID       uint    `gorm:"primaryKey"`
	Code     string  `gorm:"uniqueIndex;size:255;not null"`
	ClientID uint    `gorm:"index;not null"`
	Client   Client  `gorm:"constraint:OnDelete:CASCADE"`
	MemberID uint    `gorm:"index;not null"`
	Member   Member  `gorm:"constraint:OnDelete:CASCADE"`
	Scopes   []Scope `gorm:"many2many:oauth_auth_token_scopes"`
	// Expires is nil for tokens issued while token expiry was disabled
	Expires   *time.Time
	CreatedAt time.Time
}

func (AuthToken) TableName() string {
	return "oauth_auth_tokens"
}

// Expired reports whether the token is past its expiry. When expiry is
// disabled server-wide no token is ever expired.
func (t *AuthToken) Expired(now time.Time, expiryEnabled bool) bool {
	if !expiryEnabled || t.Expires == nil {
		return false
	}
	return now.After(*t.Expires)
}
