package auth

import (
	"time"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

// SetLogLevel adjusts the package logger
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Config tunes the authorization server
type Config struct {
	// CodeTimeout is how long an authorization code can be exchanged
	CodeTimeout time.Duration
	// TokenLife is the access token lifetime; negative means tokens never expire
	TokenLife   time.Duration
	TokenLength int

	// Bearer credential sources
	AllowHeader   bool
	AllowFormBody bool
	AllowURLParam bool

	LoginPath   string
	SignupPath  string
	RunAuthPath string
	AllowPath   string
	CancelPath  string
}

// DefaultConfig returns the stock settings
func DefaultConfig() Config {
	return Config{
		CodeTimeout: models.DefaultCodeTimeout,
		TokenLife:   time.Hour,
		TokenLength: services.DefaultTokenLength,
		AllowHeader: true,
		LoginPath:   "/login",
		SignupPath:  "/register",
		RunAuthPath: "/oauth/runauth",
		AllowPath:   "/oauth/allow",
		CancelPath:  "/oauth/cancel",
	}
}

// TokensExpire reports whether issued tokens carry an expiry
func (c Config) TokensExpire() bool {
	return c.TokenLife >= 0
}

// Identity is the end-user authentication collaborator
type Identity interface {
	// CurrentMember returns the authenticated member, or nil
	CurrentMember(c *gin.Context) *models.Member
	LogIn(c *gin.Context, member *models.Member, persistent bool) error
}

// OAuthService serves the authorize, consent, cancel and token endpoints
type OAuthService struct {
	config   Config
	clients  services.ClientService
	scopes   *ScopeValidator
	codes    *CodeIssuer
	tokens   *TokenIssuer
	bearer   *BearerAuthenticator
	identity Identity

	renderConsent ConsentRenderer
	scopeTitle    ScopeTitleFunc
}

func NewOAuthService(db *gorm.DB, identity Identity, cfg Config) *OAuthService {
	codeService := services.NewCodeService(db)
	tokenService := services.NewTokenService(db, cfg.TokenLength)

	return &OAuthService{
		config:        cfg,
		clients:       services.NewClientService(db),
		scopes:        NewScopeValidator(services.NewScopeService(db)),
		codes:         NewCodeIssuer(codeService),
		tokens:        NewTokenIssuer(codeService, tokenService, cfg),
		bearer:        NewBearerAuthenticator(tokenService, cfg),
		identity:      identity,
		renderConsent: DefaultConsentRenderer,
		scopeTitle:    models.Scope.Title,
	}
}

// Bearer returns the authenticator protected resources use
func (o *OAuthService) Bearer() *BearerAuthenticator {
	return o.bearer
}

// SetConsentRenderer replaces the consent page
func (o *OAuthService) SetConsentRenderer(renderer ConsentRenderer) {
	o.renderConsent = renderer
}

// SetScopeTitleFunc replaces how scopes are labelled on the consent page
func (o *OAuthService) SetScopeTitleFunc(title ScopeTitleFunc) {
	o.scopeTitle = title
}

// redact keeps enough of a secret to correlate log lines
func redact(secret string) string {
	if len(secret) <= 6 {
		return "***"
	}
	return secret[:6] + "..."
}
