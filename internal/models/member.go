package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Member is an authenticated end user
type Member struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

func (Member) TableName() string {
	return "members"
}

// SetPassword stores a bcrypt hash of the plain password
func (m *Member) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares a plain password with the stored hash
func (m *Member) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(plain)) == nil
}
