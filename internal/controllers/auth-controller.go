package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

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

// MemberSession is the login state of a user agent
type MemberSession interface {
	CurrentMember(c *gin.Context) *models.Member
	LogIn(c *gin.Context, member *models.Member, persistent bool) error
	LogOut(c *gin.Context)
}

type AuthController struct {
	members  services.MemberService
	sessions MemberSession
}

func NewAuthController(members services.MemberService, sessions MemberSession) *AuthController {
	return &AuthController{members: members, sessions: sessions}
}

type loginRequest struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
	Remember bool   `form:"remember" json:"remember"`
	BackURL  string `form:"BackURL" json:"back_url"`
}

type registerRequest struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,min=6"`
	Name     string `form:"name" json:"name"`
	BackURL  string `form:"BackURL" json:"back_url"`
}

// LoginForm godoc
// @Summary Describe the login form
// @Description Logged in members are sent straight on to BackURL
// @Tags identity
// @Produce json
// @Param BackURL query string false "Relative URL to return to after login"
// @Success 200 {object} map[string]interface{}
// @Success 302
// @Router /login [get]
func (ac *AuthController) LoginForm(c *gin.Context) {
	back := safeBackURL(c.Query("BackURL"))
	if member := ac.sessions.CurrentMember(c); member != nil && back != "" {
		c.Redirect(http.StatusFound, back)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"action":   "/login",
		"method":   http.MethodPost,
		"fields":   []string{"email", "password", "remember", "BackURL"},
		"back_url": back,
		"signup":   "/register",
	})
}

// Login godoc
// @Summary Log a member in
// @Description Check email and password, set the member cookie and return to BackURL
// @Tags identity
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param remember formData bool false "Keep the login across browser restarts"
// @Param BackURL formData string false "Relative URL to return to"
// @Success 200 {object} models.Member
// @Success 303
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Router /login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	member, err := ac.members.GetMemberByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.WithError(err).Error("Failed to look up member")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Login failed"))
		return
	}
	if member == nil || !member.CheckPassword(req.Password) {
		log.WithField("email", req.Email).Info("Rejected login")
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrInvalidCredentials, "Invalid email or password"))
		return
	}

	ac.finish(c, member, req.Remember, http.StatusOK, backURL(c, req.BackURL))
}

// Register godoc
// @Summary Register a member
// @Description Create a member, log them in and return to BackURL
// @Tags identity
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param email formData string true "Email"
// @Param password formData string true "Password, at least 6 characters"
// @Param name formData string false "Display name"
// @Param BackURL formData string false "Relative URL to return to"
// @Success 201 {object} models.Member
// @Success 303
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Router /register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
		return
	}

	member := &models.Member{Email: strings.TrimSpace(req.Email), Name: req.Name}
	if err := member.SetPassword(req.Password); err != nil {
		log.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Registration failed"))
		return
	}

	if err := ac.members.CreateMember(c.Request.Context(), member); err != nil {
		if errors.Is(err, services.ErrMemberExists) {
			c.JSON(http.StatusConflict, models.NewAPIError(models.ErrMemberExists, "A member with this email already exists"))
			return
		}
		log.WithError(err).Error("Failed to create member")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Registration failed"))
		return
	}
	log.WithField("member", member.ID).Info("Member registered")

	ac.finish(c, member, false, http.StatusCreated, backURL(c, req.BackURL))
}

// Logout godoc
// @Summary Log the member out
// @Tags identity
// @Success 204
// @Router /logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	ac.sessions.LogOut(c)
	c.Status(http.StatusNoContent)
}

func (ac *AuthController) finish(c *gin.Context, member *models.Member, persistent bool, status int, back string) {
	if err := ac.sessions.LogIn(c, member, persistent); err != nil {
		log.WithError(err).Error("Failed to set member cookie")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Login failed"))
		return
	}
	if back != "" {
		c.Redirect(http.StatusSeeOther, back)
		return
	}
	c.JSON(status, member)
}

func backURL(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return safeBackURL(fromBody)
	}
	return safeBackURL(c.Query("BackURL"))
}

// safeBackURL only lets through paths on this server, empty otherwise
func safeBackURL(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return raw
}
