package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-oauth-server/internal/database"
	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIdentity(t *testing.T) (*CookieIdentity, *models.Member) {
	db := database.NewTestDB(t)
	members := services.NewMemberService(db)
	member := &models.Member{Email: "jane@example.com", Name: "Jane"}
	require.NoError(t, member.SetPassword("password"))
	require.NoError(t, members.CreateMember(context.Background(), member))
	return NewCookieIdentity(members, "test-secret", false), member
}

func newContext(req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestLogInThenCurrentMember(t *testing.T) {
	id, member := setupIdentity(t)

	c, w := newContext(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, id.LogIn(c, member, true))
	assert.Equal(t, member.ID, id.CurrentMember(c).ID, "same request sees the login")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, int(persistentTTL.Seconds()), cookies[0].MaxAge)

	next := httptest.NewRequest(http.MethodGet, "/oauth/runauth", nil)
	next.AddCookie(cookies[0])
	c2, _ := newContext(next)
	current := id.CurrentMember(c2)
	require.NotNil(t, current)
	assert.Equal(t, "jane@example.com", current.Email)
}

func TestNonPersistentLoginIsSessionCookie(t *testing.T) {
	id, member := setupIdentity(t)

	c, w := newContext(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, id.LogIn(c, member, false))
	assert.Equal(t, 0, w.Result().Cookies()[0].MaxAge)
}

func TestCurrentMemberRejectsBadCookies(t *testing.T) {
	id, member := setupIdentity(t)
	other := NewCookieIdentity(id.members, "other-secret", false)

	c, w := newContext(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, other.LogIn(c, member, false))
	forged := w.Result().Cookies()[0]

	testCases := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie"},
		{name: "garbage", cookie: &http.Cookie{Name: CookieName, Value: "not-a-jwt"}},
		{name: "signed with another secret", cookie: forged},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			c, _ := newContext(req)
			assert.Nil(t, id.CurrentMember(c))
		})
	}
}

func TestExpiredCookie(t *testing.T) {
	id, member := setupIdentity(t)
	issued := time.Now().Add(-48 * time.Hour)
	id.now = func() time.Time { return issued }

	c, w := newContext(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, id.LogIn(c, member, false))

	id.now = time.Now
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(w.Result().Cookies()[0])
	c2, _ := newContext(req)
	assert.Nil(t, id.CurrentMember(c2))
}

func TestLogOut(t *testing.T) {
	id, member := setupIdentity(t)

	c, w := newContext(httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.NoError(t, id.LogIn(c, member, false))
	id.LogOut(c)

	assert.Nil(t, id.CurrentMember(c))
	assert.Nil(t, id.CurrentMember(&gin.Context{Request: httptest.NewRequest(http.MethodGet, "/", nil)}))
	cookies := w.Result().Cookies()
	assert.Equal(t, -1, cookies[len(cookies)-1].MaxAge)
}
