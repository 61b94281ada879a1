package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/franciscosanchezn/gin-oauth-server/internal/auth"
	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthenticator grants token when the requested scopes are all in it
type fakeAuthenticator struct {
	token *models.AuthToken
	calls int
}

func (f *fakeAuthenticator) Authenticate(r *http.Request, scopes []string) (*models.AuthToken, error) {
	f.calls++
	if f.token == nil {
		return nil, auth.TranslateHTTPError(http.StatusUnauthorized, "The token does not exist.")
	}
	return f.HasScopes(r, f.token, scopes)
}

func (f *fakeAuthenticator) HasScopes(r *http.Request, current *models.AuthToken, scopes []string) (*models.AuthToken, error) {
	if current == nil {
		return f.Authenticate(r, scopes)
	}
	if !auth.HasAllScopes(current.Scopes, scopes) {
		return current, auth.TranslateHTTPError(http.StatusForbidden, "")
	}
	return current, nil
}

type fakeLogin struct {
	member     *models.Member
	persistent bool
}

func (f *fakeLogin) LogIn(_ *gin.Context, member *models.Member, persistent bool) error {
	f.member = member
	f.persistent = persistent
	return nil
}

func sampleToken() *models.AuthToken {
	return &models.AuthToken{
		Member: models.Member{ID: 7, Email: "member@example.com"},
		Scopes: []models.Scope{{Name: "read"}, {Name: "profile"}},
	}
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireOAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		token     *models.AuthToken
		scopes    []string
		status    int
		challenge string
	}{
		{name: "granted", token: sampleToken(), scopes: []string{"profile"}, status: http.StatusOK},
		{name: "no scopes required", token: sampleToken(), status: http.StatusOK},
		{
			name:      "missing scope",
			token:     sampleToken(),
			scopes:    []string{"write"},
			status:    http.StatusForbidden,
			challenge: `Bearer error="insufficient_scope"`,
		},
		{
			name:      "no token",
			status:    http.StatusUnauthorized,
			challenge: `Bearer error="invalid_token" error_description="The token does not exist."`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authn := &fakeAuthenticator{token: tt.token}
			login := &fakeLogin{}

			r := gin.New()
			r.GET("/me", RequireOAuth(authn, login, tt.scopes...), func(c *gin.Context) {
				c.String(http.StatusOK, CurrentToken(c).Member.Email)
			})

			w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.challenge, w.Header().Get("WWW-Authenticate"))

			if tt.status == http.StatusOK {
				assert.Equal(t, "member@example.com", w.Body.String())
				require.NotNil(t, login.member)
				assert.Equal(t, uint(7), login.member.ID)
				assert.True(t, login.persistent)
			} else {
				assert.Nil(t, login.member)
			}
		})
	}
}

func TestRequireOAuthReusesResolvedToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	authn := &fakeAuthenticator{token: sampleToken()}

	r := gin.New()
	r.GET("/me",
		RequireOAuth(authn, nil),
		RequireOAuth(authn, nil, "read"),
		func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, authn.calls)
}

func TestRequireScopesAndHasScopes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	authn := &fakeAuthenticator{token: sampleToken()}

	r := gin.New()
	r.GET("/probe", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"read":  HasScopes(c, authn, nil, "read"),
			"write": HasScopes(c, authn, nil, "write"),
		})
	})
	r.GET("/fatal", func(c *gin.Context) {
		if !RequireScopes(c, authn, nil, "write") {
			return
		}
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/probe", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var probe map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &probe))
	assert.Equal(t, map[string]bool{"read": true, "write": false}, probe)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/fatal", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "insufficient_scope")
}

func TestScopeChecksLogInFreshToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name  string
		check func(c *gin.Context, authn Authenticator, login MemberLogin) bool
		ok    bool
	}{
		{
			name:  "HasScopes granted",
			check: func(c *gin.Context, a Authenticator, l MemberLogin) bool { return HasScopes(c, a, l, "read") },
			ok:    true,
		},
		{
			name:  "RequireScopes granted",
			check: func(c *gin.Context, a Authenticator, l MemberLogin) bool { return RequireScopes(c, a, l, "read") },
			ok:    true,
		},
		{
			name:  "HasScopes denied",
			check: func(c *gin.Context, a Authenticator, l MemberLogin) bool { return HasScopes(c, a, l, "write") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authn := &fakeAuthenticator{token: sampleToken()}
			login := &fakeLogin{}

			r := gin.New()
			r.GET("/check", func(c *gin.Context) {
				if !tt.check(c, authn, login) {
					c.AbortWithStatus(http.StatusTeapot)
					return
				}
				c.Status(http.StatusOK)
			})

			w := serve(r, httptest.NewRequest(http.MethodGet, "/check", nil))
			assert.Equal(t, 1, authn.calls)
			if tt.ok {
				assert.Equal(t, http.StatusOK, w.Code)
				require.NotNil(t, login.member)
				assert.Equal(t, uint(7), login.member.ID)
				assert.True(t, login.persistent)
			} else {
				assert.Nil(t, login.member)
			}
		})
	}
}

func TestScopeChecksReuseTokenWithoutSecondLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	authn := &fakeAuthenticator{token: sampleToken()}
	first := &fakeLogin{}
	second := &fakeLogin{}

	r := gin.New()
	r.GET("/check", RequireOAuth(authn, first), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"profile": HasScopes(c, authn, second, "profile")})
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/check", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"profile":true}`, w.Body.String())
	assert.Equal(t, 1, authn.calls)
	assert.NotNil(t, first.member)
	assert.Nil(t, second.member)
}

func TestBearerHTTPError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	authn := &fakeAuthenticator{token: sampleToken()}

	r := gin.New()
	r.GET("/protected/:status", RequireOAuth(authn, nil), func(c *gin.Context) {
		switch c.Param("status") {
		case "403":
			BearerHTTPError(c, http.StatusForbidden, "Not your resource")
		case "404":
			BearerHTTPError(c, http.StatusNotFound, "No such thing")
		}
	})
	r.GET("/open", func(c *gin.Context) {
		BearerHTTPError(c, http.StatusForbidden, "Nope")
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/protected/403", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, `Bearer error="insufficient_scope" error_description="Not your resource"`, w.Header().Get("WWW-Authenticate"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/protected/404", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get("WWW-Authenticate"))
	assert.Contains(t, w.Body.String(), "No such thing")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("WWW-Authenticate"))
}
