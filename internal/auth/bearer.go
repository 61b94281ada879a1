package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/franciscosanchezn/gin-oauth-server/internal/metrics"
	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/services"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const accessTokenParam = "access_token"

// BearerAuthenticator resolves bearer credentials on resource requests (RFC 6750)
type BearerAuthenticator struct {
	tokens services.TokenService
	config Config
	now    func() time.Time
}

func NewBearerAuthenticator(tokens services.TokenService, cfg Config) *BearerAuthenticator {
	return &BearerAuthenticator{tokens: tokens, config: cfg, now: time.Now}
}

// Authenticate finds the request's access token and checks it carries scopes.
// Sources are tried in order: Authorization header, form body, query string.
// Errors are always *ProtocolError.
func (b *BearerAuthenticator) Authenticate(r *http.Request, scopes []string) (*models.AuthToken, error) {
	token, err := b.authenticate(r, scopes)
	if err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) {
			metrics.BearerRejections.WithLabelValues(metrics.ErrorLabel(perr.Code())).Inc()
			log.WithFields(logrus.Fields{
				"error":       perr.Code(),
				"description": perr.Description,
				"path":        r.URL.Path,
			}).Debug("Bearer authentication failed")
		}
		return nil, err
	}
	return token, nil
}

func (b *BearerAuthenticator) authenticate(r *http.Request, scopes []string) (*models.AuthToken, error) {
	if b.config.AllowHeader {
		if header := r.Header.Get("Authorization"); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				return nil, invalidRequest("Unsupported Authorization header.")
			}
			code := strings.TrimPrefix(header, "Bearer ")
			other := queryValue(r) != "" || formValue(r) != ""
			return b.check(r, code, scopes, other)
		}
	}
	if b.config.AllowFormBody {
		if code := formValue(r); code != "" {
			return b.check(r, code, scopes, queryValue(r) != "")
		}
	}
	if b.config.AllowURLParam {
		if code := queryValue(r); code != "" {
			return b.check(r, code, scopes, formValue(r) != "")
		}
	}
	return nil, errUnauthorized()
}

// check resolves code and validates it. otherSource tells whether the request
// also presented a token some other way.
func (b *BearerAuthenticator) check(r *http.Request, code string, scopes []string, otherSource bool) (*models.AuthToken, error) {
	token, err := b.tokens.GetTokenByValue(r.Context(), code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalidToken("The token does not exist.")
	}
	if err != nil {
		return nil, serverError(err)
	}

	switch {
	case token.Expired(b.now(), b.config.TokensExpire()):
		return nil, invalidToken("The token has expired.")
	case otherSource:
		return nil, invalidRequest("Multiple methods used.")
	case !HasAllScopes(token.Scopes, scopes):
		return nil, insufficientScope("")
	}
	return token, nil
}

// HasScopes checks scopes against the request's token. Without a token
// already resolved for this request it runs the full Authenticate; otherwise
// it only compares scopes. The returned token is the one that was checked.
func (b *BearerAuthenticator) HasScopes(r *http.Request, current *models.AuthToken, scopes []string) (*models.AuthToken, error) {
	if current == nil {
		return b.Authenticate(r, scopes)
	}
	if !HasAllScopes(current.Scopes, scopes) {
		metrics.BearerRejections.WithLabelValues(ErrInsufficientScope.Error()).Inc()
		return current, insufficientScope("")
	}
	return current, nil
}

// TranslateHTTPError re-expresses a protected handler's failure status as a
// bearer error once a token is known, nil for statuses with no mapping.
func TranslateHTTPError(status int, message string) *ProtocolError {
	switch status {
	case http.StatusBadRequest:
		return invalidRequest(message)
	case http.StatusUnauthorized:
		return invalidToken(message)
	case http.StatusForbidden:
		return insufficientScope(message)
	}
	return nil
}

func formValue(r *http.Request) string {
	return r.PostFormValue(accessTokenParam)
}

func queryValue(r *http.Request) string {
	return r.URL.Query().Get(accessTokenParam)
}
