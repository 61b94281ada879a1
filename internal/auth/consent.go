package auth

import (
	"net/http"

	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/gin-gonic/gin"
)

// ScopeTitleFunc labels a scope for the end user
type ScopeTitleFunc func(models.Scope) string

// ConsentScope is one checkbox on the consent form
type ConsentScope struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	// Locked scopes are granted whether ticked or not
	Locked bool `json:"locked"`
}

// ConsentView is everything a consent page needs
type ConsentView struct {
	Client    *models.Client `json:"client"`
	Member    *models.Member `json:"member"`
	Scopes    []ConsentScope `json:"scopes"`
	AllowURL  string         `json:"allow_url"`
	CancelURL string         `json:"cancel_url"`
}

// ConsentRenderer writes the consent page. The page posts the ticked scope
// names as "scopes" to AllowURL, or sends the user to CancelURL.
type ConsentRenderer func(c *gin.Context, view ConsentView)

// DefaultConsentRenderer describes the consent form as JSON
func DefaultConsentRenderer(c *gin.Context, view ConsentView) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, view)
}

func (o *OAuthService) consentView(client *models.Client, member *models.Member, requested []models.Scope) ConsentView {
	scopes := make([]ConsentScope, 0, len(requested))
	for _, s := range requested {
		scopes = append(scopes, ConsentScope{Name: s.Name, Title: o.scopeTitle(s), Locked: s.CantDisallow})
	}
	return ConsentView{
		Client:    client,
		Member:    member,
		Scopes:    scopes,
		AllowURL:  o.config.AllowPath,
		CancelURL: o.config.CancelPath,
	}
}
