package auth

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeAutoAllowIssuesCode(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	a := s.agent(t)

	w := a.get(authorizeURL(s.trusted, url.Values{
		"redirect_uri": {appCallback},
		"scope":        {"read"},
		"state":        {"xyz"},
	}))
	assert.Equal(t, "/oauth/runauth", location(t, w).String())

	target := location(t, a.get("/oauth/runauth"))
	assert.Equal(t, "app.example.com", target.Host)
	assert.Equal(t, "/cb", target.Path)
	assert.NotEmpty(t, target.Query().Get("code"))
	assert.Equal(t, "read", target.Query().Get("scope"))
	assert.Equal(t, "xyz", target.Query().Get("state"))

	// the session is spent once the code is out
	w = a.get("/oauth/runauth")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid client identifier", w.Body.String())
}

func TestAuthorizeWithoutRedirectURIUsesDefaultEndpoint(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	a := s.agent(t)

	location(t, a.get(authorizeURL(s.trusted, nil)))
	target := location(t, a.get("/oauth/runauth"))
	assert.Equal(t, appCallback, target.Scheme+"://"+target.Host+target.Path)
	assert.Equal(t, "read profile", target.Query().Get("scope"))
	assert.Empty(t, target.Query().Get("state"))

	w := s.exchange(tokenRequest(target.Query().Get("code"), ""))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(3600), body["expires_in"])
	assert.Equal(t, "read profile", body["scope"])
}

func TestAuthorizeClientErrors(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{
			name:   "unknown client",
			target: "/oauth/authorize?client_id=nope&response_type=code",
			want:   "Invalid client identifier",
		},
		{
			name:   "missing client",
			target: "/oauth/authorize?response_type=code",
			want:   "Invalid client identifier",
		},
		{
			name:   "unregistered redirect",
			target: authorizeURL(s.trusted, url.Values{"redirect_uri": {"https://evil.example.com/cb"}}),
			want:   "Invalid redirect URI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.agent(t).get(tt.target)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
			assert.Empty(t, w.Header().Get("Location"))
		})
	}
}

func TestAuthorizeRedirectsProtocolErrors(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	tests := []struct {
		name        string
		params      url.Values
		wantError   string
		description string
	}{
		{
			name:        "token response type",
			params:      url.Values{"response_type": {"token"}, "state": {"s1"}},
			wantError:   "unsupported_response_type",
			description: "This OAuth server requires a code response_type.",
		},
		{
			name:        "unknown scope",
			params:      url.Values{"scope": {"read bogus"}, "state": {"s1"}},
			wantError:   "invalid_scope",
			description: "At least one of the scopes requested is invalid.",
		},
		{
			name:        "repeated scope",
			params:      url.Values{"scope": {"read read"}, "state": {"s1"}},
			wantError:   "invalid_scope",
			description: "At least one of the scopes requested is invalid.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := location(t, s.agent(t).get(authorizeURL(s.trusted, tt.params)))
			assert.Equal(t, "app.example.com", target.Host)
			assert.Equal(t, tt.wantError, target.Query().Get("error"))
			assert.Equal(t, tt.description, target.Query().Get("error_description"))
			assert.Equal(t, "s1", target.Query().Get("state"))
		})
	}
}

func TestAuthorizeUnauthenticatedGoesToLogin(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	s.identity.member = nil

	w := s.agent(t).get(authorizeURL(s.trusted, nil))
	assert.Equal(t, "/login?BackURL=%2Foauth%2Frunauth", w.Header().Get("Location"))

	w = s.agent(t).get(authorizeURL(s.trusted, url.Values{"signup": {"true"}}))
	assert.Equal(t, "/register?BackURL=%2Foauth%2Frunauth", w.Header().Get("Location"))
}

func TestAuthorizeResumesAfterLogin(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	member := s.member
	s.identity.member = nil
	a := s.agent(t)

	location(t, a.get(authorizeURL(s.trusted, url.Values{"state": {"later"}})))
	assert.Equal(t, "/login", location(t, a.get("/oauth/runauth")).Path)

	s.identity.member = member
	target := location(t, a.get("/oauth/runauth"))
	assert.NotEmpty(t, target.Query().Get("code"))
	assert.Equal(t, "later", target.Query().Get("state"))
}

func TestConsentFlow(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	start := func(t *testing.T) *agent {
		a := s.agent(t)
		location(t, a.get(authorizeURL(s.consent, url.Values{
			"redirect_uri": {"https://third.example.com/cb"},
			"scope":        {"read write profile"},
			"state":        {"st"},
		})))
		return a
	}

	t.Run("renders requested scopes", func(t *testing.T) {
		w := start(t).get("/oauth/runauth")
		require.Equal(t, http.StatusOK, w.Code)

		var view ConsentView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, "/oauth/allow", view.AllowURL)
		assert.Equal(t, "/oauth/cancel", view.CancelURL)
		require.Len(t, view.Scopes, 3)
		assert.Equal(t, ConsentScope{Name: "read", Title: "Read your data (read)"}, view.Scopes[0])
		assert.True(t, view.Scopes[2].Locked)
	})

	t.Run("allow keeps mandatory scopes", func(t *testing.T) {
		a := start(t)
		target := location(t, a.post("/oauth/allow", url.Values{"scopes": {"write", "admin"}}))
		assert.Equal(t, "third.example.com", target.Host)
		assert.Equal(t, "write profile", target.Query().Get("scope"))
		assert.Equal(t, "st", target.Query().Get("state"))
	})

	t.Run("allow with nothing ticked", func(t *testing.T) {
		target := location(t, start(t).post("/oauth/allow", nil))
		assert.Equal(t, "profile", target.Query().Get("scope"))
	})

	t.Run("cancel reports access denied", func(t *testing.T) {
		a := start(t)
		target := location(t, a.get("/oauth/cancel"))
		assert.Equal(t, "third.example.com", target.Host)
		assert.Equal(t, "access_denied", target.Query().Get("error"))
		assert.Equal(t, "The resource owner denied the authorisation request.", target.Query().Get("error_description"))
		assert.Equal(t, "st", target.Query().Get("state"))

		// nothing left to cancel
		w := a.get("/oauth/cancel")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCancelWithoutPendingRequest(t *testing.T) {
	s := newTestServer(t, DefaultConfig())

	w := s.agent(t).get("/oauth/cancel")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid redirect URI", w.Body.String())
}

func TestCancelWithDefaultEndpointOnly(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	a := s.agent(t)

	// no redirect_uri means nothing to return to
	location(t, a.get(authorizeURL(s.consent, nil)))
	w := a.get("/oauth/cancel")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthorizeWithoutSessionMiddleware(t *testing.T) {
	s := newTestServer(t, DefaultConfig())
	s.router.GET("/bare/authorize", s.svc.HandleAuthorize)

	w := s.agent(t).get("/bare/authorize?client_id=" + s.trusted.Identifier)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "server_error")
}
