package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxIdentifierAttempts bounds the generate-and-recheck loop. The unique index on
// Identifier is what actually guarantees uniqueness.
const maxIdentifierAttempts = 5

// ErrIdentifierImmutable is returned when an update tries to change a client identifier
var ErrIdentifierImmutable = errors.New("client identifier cannot be changed")

// Client is a registered third-party application
type Client struct {
	ID              uint             `gorm:"primaryKey" json:"-"`
	Identifier      string           `gorm:"uniqueIndex;size:128;not null" json:"client_id"`
	Name            string           `gorm:"not null" json:"name"`
	Description     string           `json:"description,omitempty"`
	Website         string           `json:"website,omitempty"`
	DefaultEndpoint string           `gorm:"size:1024" json:"default_endpoint,omitempty"`
	AutoAllow       bool             `json:"auto_allow"`
	RedirectionURLs []RedirectionURL `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"redirection_urls,omitempty"`
	CreatedAt       time.Time        `json:"-"`
	UpdatedAt       time.Time        `json:"-"`
}

func (Client) TableName() string {
	return "oauth_clients"
}

// Endpoints returns the registered redirect endpoints as plain strings
func (c *Client) Endpoints() []string {
	endpoints := make([]string, 0, len(c.RedirectionURLs))
	for _, u := range c.RedirectionURLs {
		endpoints = append(endpoints, u.Endpoint)
	}
	return endpoints
}

// BeforeCreate assigns an identifier on first persist when none was given
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.Identifier != "" {
		return nil
	}
	db := tx.Session(&gorm.Session{NewDB: true})
	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		candidate := strings.ReplaceAll(uuid.NewString(), "-", "")
		var count int64
		if err := db.Model(&Client{}).Where("identifier = ?", candidate).Count(&count).Error; err != nil {
			return fmt.Errorf("checking client identifier: %w", err)
		}
		if count == 0 {
			c.Identifier = candidate
			return nil
		}
	}
	return fmt.Errorf("could not generate a unique client identifier after %d attempts", maxIdentifierAttempts)
}

// BeforeUpdate rejects identifier changes made through Update/Updates
func (c *Client) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("Identifier") {
		return ErrIdentifierImmutable
	}
	return nil
}

// RedirectionURL is one registered redirect endpoint of a client
type RedirectionURL struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	ClientID  uint      `gorm:"index;not null" json:"-"`
	Endpoint  string    `gorm:"size:1024;not null" json:"endpoint"`
	CreatedAt time.Time `json:"-"`
}

func (RedirectionURL) TableName() string {
	return "oauth_redirection_urls"
}
