package models

import "strings"

// Scope is a named capability that can be granted to a client.
// Default scopes are granted when a client asks for none; CantDisallow
// scopes are always granted once requested, whatever the end user picks.
type Scope struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	Name         string `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Description  string `json:"description,omitempty"`
	Default      bool   `gorm:"column:is_default" json:"default"`
	CantDisallow bool   `json:"cant_disallow"`
}

func (Scope) TableName() string {
	return "oauth_scopes"
}

// Title is the default human readable label, e.g. "Read your profile (profile)"
func (s Scope) Title() string {
	return s.Description + " (" + s.Name + ")"
}

// ScopeNames returns the names of the given scopes in order
func ScopeNames(scopes []Scope) []string {
	names := make([]string, 0, len(scopes))
	for _, s := range scopes {
		names = append(names, s.Name)
	}
	return names
}

// JoinScopeNames renders scopes the way they travel on the wire: space separated
func JoinScopeNames(scopes []Scope) string {
	return strings.Join(ScopeNames(scopes), " ")
}
