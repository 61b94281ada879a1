package controllers

import (
	"net/http"

	"github.com/franciscosanchezn/gin-oauth-server/internal/middleware"
	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/gin-gonic/gin"
)

// ResourceController serves data owned by the member an access token acts for
type ResourceController struct{}

func NewResourceController() *ResourceController {
	return &ResourceController{}
}

type meResponse struct {
	Member *models.Member `json:"member"`
	Client string         `json:"client_id"`
	Scope  string         `json:"scope"`
}

// Me godoc
// @Summary Current member
// @Description The member and grant behind the presented access token
// @Tags resources
// @Produce json
// @Success 200 {object} controllers.meResponse
// @Failure 401 {string} string "WWW-Authenticate: Bearer"
// @Failure 403 {string} string "WWW-Authenticate: Bearer error=\"insufficient_scope\""
// @Security BearerAuth
// @Router /api/v1/me [get]
func (rc *ResourceController) Me(c *gin.Context) {
	token := middleware.CurrentToken(c)
	if token == nil {
		middleware.BearerHTTPError(c, http.StatusUnauthorized, "No access token")
		return
	}
	member := token.Member
	c.JSON(http.StatusOK, meResponse{
		Member: &member,
		Client: token.Client.Identifier,
		Scope:  models.JoinScopeNames(token.Scopes),
	})
}
