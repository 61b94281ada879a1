package auth

import (
	"context"
	"fmt"
	"net/url"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/services"
	"github.com/sirupsen/logrus"
)

// CodeIssuer creates one-time authorization codes
type CodeIssuer struct {
	codes services.CodeService
}

func NewCodeIssuer(codes services.CodeService) *CodeIssuer {
	return &CodeIssuer{codes: codes}
}

// Issue stores a new code bound to client, member, redirectURI and scopes
func (i *CodeIssuer) Issue(ctx context.Context, client *models.Client, member *models.Member, redirectURI string, scopes []models.Scope) (*models.AuthCode, error) {
	code := &models.AuthCode{
		ClientID:    client.ID,
		Client:      *client,
		MemberID:    member.ID,
		RedirectURI: redirectURI,
		Scopes:      scopes,
	}
	if err := i.codes.CreateCode(ctx, code); err != nil {
		return nil, fmt.Errorf("issuing authorization code: %w", err)
	}

	log.WithFields(logrus.Fields{
		"client": client.Identifier,
		"member": member.ID,
		"code":   redact(code.Code),
		"scope":  models.JoinScopeNames(scopes),
	}).Info("Authorization code issued")
	return code, nil
}

// SendEndpoint is where the user agent goes with a fresh code: the bound
// redirect URI, or the client's default endpoint, carrying code, state and scope.
func SendEndpoint(code *models.AuthCode, client *models.Client, state string) string {
	target := code.RedirectURI
	if target == "" {
		target = client.DefaultEndpoint
	}
	params := url.Values{}
	params.Set("code", code.Code)
	if state != "" {
		params.Set("state", state)
	}
	params.Set("scope", models.JoinScopeNames(code.Scopes))
	return appendQuery(target, params)
}
