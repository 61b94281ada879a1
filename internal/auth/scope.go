package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/services"
)

// ScopeValidator resolves requested scope strings against the scope catalog
type ScopeValidator struct {
	scopes services.ScopeService
}

func NewScopeValidator(scopes services.ScopeService) *ScopeValidator {
	return &ScopeValidator{scopes: scopes}
}

// ResolveRequested turns a space separated scope string into catalog scopes.
// A blank string yields the default scopes. Any unknown or repeated name, or
// an empty name from doubled spaces, fails with invalid_scope.
func (v *ScopeValidator) ResolveRequested(ctx context.Context, requested string) ([]models.Scope, error) {
	if strings.TrimSpace(requested) == "" {
		scopes, err := v.scopes.GetDefaultScopes(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading default scopes: %w", err)
		}
		return scopes, nil
	}

	names := strings.Split(requested, " ")
	scopes, err := v.scopes.GetScopesByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("loading requested scopes: %w", err)
	}
	if len(scopes) != len(names) {
		return nil, invalidScope()
	}
	return scopes, nil
}

// MandatoryScopes returns the scopes among requested the end user cannot refuse
func MandatoryScopes(requested []models.Scope) []models.Scope {
	var mandatory []models.Scope
	for _, s := range requested {
		if s.CantDisallow {
			mandatory = append(mandatory, s)
		}
	}
	return mandatory
}

// HasAllScopes reports whether granted covers every required scope name
func HasAllScopes(granted []models.Scope, required []string) bool {
	if len(required) == 0 {
		return true
	}
	wanted := make(map[string]bool, len(required))
	for _, name := range required {
		wanted[name] = true
	}
	matched := 0
	for _, s := range granted {
		if wanted[s.Name] {
			matched++
		}
	}
	return matched == len(required)
}

// grantedScopes is what an explicit consent grants: the requested scopes the
// end user selected, plus every mandatory one.
func grantedScopes(requested []models.Scope, selected []string) []models.Scope {
	chosen := make(map[string]bool, len(selected))
	for _, name := range selected {
		chosen[name] = true
	}
	var granted []models.Scope
	for _, s := range requested {
		if chosen[s.Name] || s.CantDisallow {
			granted = append(granted, s)
		}
	}
	return granted
}
