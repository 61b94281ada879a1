package middleware

import (
	"net/http"

	"github.com/franciscosanchezn/gin-oauth-server/internal/auth"
	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// TokenKey is the gin context key holding the request's resolved access token
const TokenKey = "oauthToken"

// Authenticator resolves and checks bearer credentials
type Authenticator interface {
	Authenticate(r *http.Request, scopes []string) (*models.AuthToken, error)
	HasScopes(r *http.Request, current *models.AuthToken, scopes []string) (*models.AuthToken, error)
}

// MemberLogin signs the token's member in for the rest of the request
type MemberLogin interface {
	LogIn(c *gin.Context, member *models.Member, persistent bool) error
}

// RequireOAuth guards a route with a bearer token carrying scopes.
// On success the token is stored under TokenKey and its member is logged in.
func RequireOAuth(authn Authenticator, login MemberLogin, scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := resolveToken(c, authn, login, scopes); err != nil {
			auth.WriteBearerError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentToken returns the token RequireOAuth resolved, or nil
func CurrentToken(c *gin.Context) *models.AuthToken {
	v, ok := c.Get(TokenKey)
	if !ok {
		return nil
	}
	token, _ := v.(*models.AuthToken)
	return token
}

// RequireScopes is the in-handler form of RequireOAuth. It answers the
// request with a bearer error and returns false when scopes are not held.
func RequireScopes(c *gin.Context, authn Authenticator, login MemberLogin, scopes ...string) bool {
	if _, err := resolveToken(c, authn, login, scopes); err != nil {
		auth.WriteBearerError(c, err)
		return false
	}
	return true
}

// HasScopes reports whether the request's token holds scopes without
// writing a response
func HasScopes(c *gin.Context, authn Authenticator, login MemberLogin, scopes ...string) bool {
	_, err := resolveToken(c, authn, login, scopes)
	return err == nil
}

// resolveToken checks scopes against the request's token, authenticating
// first when none has been resolved. A freshly resolved token's member is
// logged in.
func resolveToken(c *gin.Context, authn Authenticator, login MemberLogin, scopes []string) (*models.AuthToken, error) {
	current := CurrentToken(c)
	token, err := authn.HasScopes(c.Request, current, scopes)
	if err != nil {
		return nil, err
	}
	c.Set(TokenKey, token)

	if current == nil && login != nil {
		member := token.Member
		if err := login.LogIn(c, &member, true); err != nil {
			log.WithError(err).WithField("member", member.ID).Error("Failed to log in token member")
		}
	}
	return token, nil
}

// BearerHTTPError fails a protected handler. Once a token has been resolved
// for the request, 400, 401 and 403 are reported as bearer errors; anything
// else is a plain API error.
func BearerHTTPError(c *gin.Context, status int, message string) {
	if CurrentToken(c) != nil {
		if perr := auth.TranslateHTTPError(status, message); perr != nil {
			auth.WriteBearerError(c, perr)
			return
		}
	}
	c.AbortWithStatusJSON(status, models.NewAPIError(apiErrorCode(status), message))
}

func apiErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return models.ErrBadRequest
	case http.StatusUnauthorized:
		return models.ErrUnauthorized
	case http.StatusForbidden:
		return models.ErrForbidden
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusConflict:
		return models.ErrConflict
	}
	return models.ErrInternalServer
}
