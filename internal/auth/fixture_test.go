package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-oauth-server/internal/database"
	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/services"
	"github.com/franciscosanchezn/gin-oauth-server/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const appCallback = "https://app.example.com/cb"

type fakeIdentity struct {
	member *models.Member
}

func (f *fakeIdentity) CurrentMember(*gin.Context) *models.Member {
	return f.member
}

func (f *fakeIdentity) LogIn(_ *gin.Context, member *models.Member, _ bool) error {
	f.member = member
	return nil
}

type testServer struct {
	db       *gorm.DB
	svc      *OAuthService
	identity *fakeIdentity
	router   *gin.Engine

	member *models.Member
	// trusted auto-allows, consent always asks
	trusted *models.Client
	consent *models.Client
	scopes  map[string]models.Scope
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	gin.SetMode(gin.TestMode)
	db := database.NewTestDB(t)
	ctx := context.Background()

	member := &models.Member{Email: "member@example.com", Name: "Member"}
	require.NoError(t, member.SetPassword("password"))
	require.NoError(t, services.NewMemberService(db).CreateMember(ctx, member))

	scopeService := services.NewScopeService(db)
	scopes := map[string]models.Scope{}
	for _, s := range []models.Scope{
		{Name: "read", Description: "Read your data", Default: true},
		{Name: "write", Description: "Change your data"},
		{Name: "profile", Description: "See your profile", Default: true, CantDisallow: true},
	} {
		require.NoError(t, scopeService.CreateScope(ctx, &s))
		scopes[s.Name] = s
	}

	clients := services.NewClientService(db)
	trusted := &models.Client{Name: "Trusted", DefaultEndpoint: appCallback, AutoAllow: true}
	require.NoError(t, clients.CreateClient(ctx, trusted))
	require.NoError(t, clients.AddRedirectionURL(ctx, trusted.ID, appCallback))

	consent := &models.Client{Name: "Third Party", DefaultEndpoint: "https://third.example.com/cb"}
	require.NoError(t, clients.CreateClient(ctx, consent))
	require.NoError(t, clients.AddRedirectionURL(ctx, consent.ID, "https://third.example.com/"))

	identity := &fakeIdentity{member: member}
	svc := NewOAuthService(db, identity, cfg)

	router := gin.New()
	router.Any("/oauth/token", svc.HandleToken)
	flow := router.Group("/oauth", session.Middleware(session.NewMemoryStore(), time.Hour, false))
	flow.GET("/authorize", svc.HandleAuthorize)
	flow.GET("/runauth", svc.HandleRunAuth)
	flow.POST("/allow", svc.HandleAllow)
	flow.GET("/cancel", svc.HandleCancel)

	return &testServer{
		db:       db,
		svc:      svc,
		identity: identity,
		router:   router,
		member:   member,
		trusted:  trusted,
		consent:  consent,
		scopes:   scopes,
	}
}

// agent is a user agent that keeps its session cookie between requests
type agent struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (s *testServer) agent(t *testing.T) *agent {
	return &agent{t: t, router: s.router}
}

func (a *agent) get(target string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (a *agent) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *agent) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range a.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		a.cookies = cookies
	}
	return w
}

// location parses the redirect target of w
func location(t *testing.T, w *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	u, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return u
}

func authorizeURL(client *models.Client, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("client_id", client.Identifier)
	if params.Get("response_type") == "" {
		params.Set("response_type", "code")
	}
	return "/oauth/authorize?" + params.Encode()
}

// issueCode runs authorize and consent for the trusted client and returns the code
func (s *testServer) issueCode(t *testing.T, redirectURI, scope string) string {
	t.Helper()
	a := s.agent(t)
	params := url.Values{"scope": {scope}}
	if redirectURI != "" {
		params.Set("redirect_uri", redirectURI)
	}
	w := a.get(authorizeURL(s.trusted, params))
	require.Equal(t, "/oauth/runauth", location(t, w).String())

	code := location(t, a.get("/oauth/runauth")).Query().Get("code")
	require.NotEmpty(t, code)
	return code
}

func tokenRequest(code, redirectURI string) *http.Request {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func (s *testServer) exchange(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}
