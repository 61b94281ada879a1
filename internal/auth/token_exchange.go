package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/franciscosanchezn/gin-oauth-server/internal/metrics"
	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-oauth2/oauth2/v4"
	oautherrors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ExchangeRequest is the part of a token request the exchange looks at
type ExchangeRequest struct {
	Method      string
	GrantType   string
	Code        string
	RedirectURI string
}

// TokenResponse is the token endpoint success body
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   *int64 `json:"expires_in,omitempty"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

// TokenIssuer exchanges authorization codes for access tokens
type TokenIssuer struct {
	codes  services.CodeService
	tokens services.TokenService
	config Config
	now    func() time.Time
}

func NewTokenIssuer(codes services.CodeService, tokens services.TokenService, cfg Config) *TokenIssuer {
	return &TokenIssuer{codes: codes, tokens: tokens, config: cfg, now: time.Now}
}

// Exchange validates req and, when it holds a live code, replaces the code
// with an access token. Errors are always *ProtocolError.
func (i *TokenIssuer) Exchange(ctx context.Context, req ExchangeRequest) (*TokenResponse, error) {
	if req.Method != http.MethodPost {
		return nil, invalidRequest("POST is required")
	}
	if req.GrantType != string(oauth2.AuthorizationCode) {
		return nil, newProtocolError(oautherrors.ErrUnsupportedGrantType, "grant_type must be authorization_code")
	}
	if req.Code == "" {
		return nil, invalidGrant("Access code not found.")
	}

	code, err := i.codes.GetCodeByValue(ctx, req.Code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, invalidGrant("Access code not found.")
	}
	if err != nil {
		return nil, serverError(err)
	}

	now := i.now()
	if !code.IsValid(now, i.config.CodeTimeout) {
		return nil, invalidGrant("Access code expired.")
	}
	if code.RedirectURI != req.RedirectURI {
		return nil, invalidGrant("Invalid redirect URI.")
	}

	token := &models.AuthToken{
		ClientID: code.ClientID,
		MemberID: code.MemberID,
		Scopes:   code.Scopes,
	}
	if i.config.TokensExpire() {
		expires := now.Add(i.config.TokenLife)
		token.Expires = &expires
	}

	if err := i.tokens.ExchangeCode(ctx, code, token); err != nil {
		if errors.Is(err, services.ErrCodeConsumed) {
			// A replay looks exactly like an unknown code
			return nil, invalidGrant("Access code not found.")
		}
		return nil, serverError(err)
	}

	response := &TokenResponse{
		AccessToken: token.Code,
		TokenType:   "Bearer",
		Scope:       models.JoinScopeNames(code.Scopes),
	}
	if i.config.TokensExpire() {
		seconds := int64(i.config.TokenLife / time.Second)
		response.ExpiresIn = &seconds
	}

	log.WithFields(logrus.Fields{
		"client": code.Client.Identifier,
		"member": code.MemberID,
		"token":  redact(token.Code),
		"scope":  response.Scope,
	}).Info("Access token issued")
	return response, nil
}

// HandleToken serves the token endpoint
// @Summary Token endpoint
// @Description Exchange an authorization code for a bearer access token
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Produce json
// @Param grant_type formData string true "Must be authorization_code"
// @Param code formData string true "Authorization code"
// @Param redirect_uri formData string true "Redirect URI bound to the code, exact match"
// @Success 200 {object} auth.TokenResponse
// @Failure 400 {object} models.OAuth2Error
// @Router /oauth/token [post]
func (o *OAuthService) HandleToken(c *gin.Context) {
	req := ExchangeRequest{
		Method:      c.Request.Method,
		GrantType:   c.PostForm("grant_type"),
		Code:        c.PostForm("code"),
		RedirectURI: c.PostForm("redirect_uri"),
	}

	response, err := o.tokens.Exchange(c.Request.Context(), req)
	if err != nil {
		var perr *ProtocolError
		if !errors.As(err, &perr) {
			perr = serverError(err)
		}
		metrics.ExchangeErrors.WithLabelValues(perr.Code()).Inc()
		log.WithFields(logrus.Fields{
			"error":       perr.Code(),
			"description": perr.Description,
			"code":        redact(req.Code),
		}).Warn("Token request rejected")
		writeJSONError(c, perr, "")
		return
	}

	body, err := json.Marshal(response)
	if err != nil {
		writeJSONError(c, serverError(err), "")
		return
	}
	metrics.TokensIssued.Inc()
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.Data(http.StatusOK, jsonContentType, body)
}
