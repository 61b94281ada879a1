// Package session keeps the pending authorization request of a user agent
// between the authorize, login, consent and code-issue steps.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

const (
	// CookieName carries the session identifier
	CookieName = "oauth_session"
	contextKey = "authorizationSession"
)

// ErrNotFound is returned by stores when no live session exists for an id
var ErrNotFound = errors.New("session not found")

// AuthorizationSession is the state of one in-flight authorize request
type AuthorizationSession struct {
	ClientID  uint   `json:"client_id,omitempty"`
	ReturnURI string `json:"return_uri,omitempty"`
	State     string `json:"state,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

// Store persists sessions by id
type Store interface {
	Load(ctx context.Context, id string) (*AuthorizationSession, error)
	Save(ctx context.Context, id string, data *AuthorizationSession, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Session is the handle a request works with
type Session struct {
	ID   string
	Data AuthorizationSession

	store Store
	ttl   time.Duration
}

// Save writes the current data back to the store
func (s *Session) Save(ctx context.Context) error {
	return s.store.Save(ctx, s.ID, &s.Data, s.ttl)
}

// Clear empties the session and removes it from the store
func (s *Session) Clear(ctx context.Context) error {
	s.Data = AuthorizationSession{}
	return s.store.Delete(ctx, s.ID)
}

// Middleware attaches the user agent's session to the gin context, issuing
// a new session cookie when none is present.
func Middleware(store Store, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := &Session{store: store, ttl: ttl}

		id, err := c.Cookie(CookieName)
		if err == nil && id != "" {
			data, loadErr := store.Load(c.Request.Context(), id)
			switch {
			case loadErr == nil:
				sess.Data = *data
			case errors.Is(loadErr, ErrNotFound):
			default:
				log.WithError(loadErr).Error("Failed to load authorization session")
			}
			sess.ID = id
		} else {
			sess.ID = uuid.NewString()
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     CookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(ttl.Seconds()),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})

		c.Set(contextKey, sess)
		c.Next()
	}
}

// FromContext returns the session attached by Middleware, or nil
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}

// New builds a detached session, used by handlers mounted without Middleware and in tests
func New(store Store, id string, ttl time.Duration) *Session {
	return &Session{ID: id, store: store, ttl: ttl}
}
