// Package identity is the end-user authentication collaborator: it remembers
// which member a user agent belongs to with a signed cookie.
package identity

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

const (
	// CookieName holds the signed member token
	CookieName       = "member_token"
	memberContextKey = "member"

	persistentTTL = 30 * 24 * time.Hour
	sessionTTL    = 24 * time.Hour
)

// CookieIdentity implements the identity collaborator on top of an HS256 signed cookie
type CookieIdentity struct {
	members services.MemberService
	secret  []byte
	secure  bool
	now     func() time.Time
}

func NewCookieIdentity(members services.MemberService, secret string, secure bool) *CookieIdentity {
	return &CookieIdentity{
		members: members,
		secret:  []byte(secret),
		secure:  secure,
		now:     time.Now,
	}
}

// CurrentMember returns the member logged in on this request, or nil
func (i *CookieIdentity) CurrentMember(c *gin.Context) *models.Member {
	if v, ok := c.Get(memberContextKey); ok {
		member, _ := v.(*models.Member)
		return member
	}

	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return nil
	}
	memberID, err := i.parse(raw)
	if err != nil {
		log.WithError(err).Debug("Ignoring invalid member cookie")
		return nil
	}
	member, err := i.members.GetMemberByID(c.Request.Context(), memberID)
	if err != nil {
		log.WithError(err).WithField("member_id", memberID).Warn("Member cookie refers to unknown member")
		return nil
	}
	c.Set(memberContextKey, member)
	return member
}

// LogIn makes member the current member of this request and of the user agent.
// A persistent login survives browser restarts.
func (i *CookieIdentity) LogIn(c *gin.Context, member *models.Member, persistent bool) error {
	ttl := sessionTTL
	maxAge := 0
	if persistent {
		ttl = persistentTTL
		maxAge = int(persistentTTL.Seconds())
	}

	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(member.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return fmt.Errorf("signing member cookie: %w", err)
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(memberContextKey, member)
	return nil
}

// LogOut forgets the member on this user agent
func (i *CookieIdentity) LogOut(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   i.secure,
	})
	c.Set(memberContextKey, (*models.Member)(nil))
}

func (i *CookieIdentity) parse(raw string) (uint, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		// Only accept HMAC so a forged "none" or RSA header cannot pass
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return 0, fmt.Errorf("token parsing failed: %w", err)
	}
	if !token.Valid {
		return 0, fmt.Errorf("token is invalid")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return uint(id), nil
}
