package auth

import (
	"errors"
	"net/url"
	"strings"

	"github.com/franciscosanchezn/gin-oauth-server/internal/metrics"
	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/go-oauth2/oauth2/v4"
	oautherrors "github.com/go-oauth2/oauth2/v4/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// HandleAuthorize starts an authorization code request
// @Summary Authorization endpoint
// @Description Validate the client request, then send the user agent to login or consent
// @Tags OAuth2
// @Param client_id query string true "Client identifier"
// @Param redirect_uri query string false "Redirect URI, defaults to the client's default endpoint"
// @Param response_type query string true "Must be code"
// @Param scope query string false "Space separated scopes"
// @Param state query string false "Opaque value echoed back to the client"
// @Param signup query string false "true sends unauthenticated users to registration"
// @Success 302
// @Failure 400 {string} string "Unknown client or redirect URI"
// @Router /oauth/authorize [get]
func (o *OAuthService) HandleAuthorize(c *gin.Context) {
	sess, ok := o.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := sess.Clear(ctx); err != nil {
		writeJSONError(c, serverError(err), "")
		return
	}
	if state := c.Request.FormValue("state"); state != "" {
		sess.Data.State = state
	}

	client, err := o.clients.GetClientByIdentifier(ctx, c.Request.FormValue("client_id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeClientError(c, errInvalidClient)
		return
	}
	if err != nil {
		writeJSONError(c, serverError(err), "")
		return
	}
	sess.Data.ClientID = client.ID

	uri := c.Request.FormValue("redirect_uri")
	if !ValidRedirectURI(client, uri) {
		log.WithFields(logrus.Fields{"client": client.Identifier, "redirect_uri": uri}).Warn("Rejected redirect URI")
		writeClientError(c, errInvalidRedirectURI)
		return
	}
	sess.Data.ReturnURI = uri
	target := uri
	if target == "" {
		target = client.DefaultEndpoint
	}

	if c.Request.FormValue("response_type") != string(oauth2.Code) {
		o.redirectError(c, sess, target, newProtocolError(oautherrors.ErrUnsupportedResponseType,
			"This OAuth server requires a code response_type."))
		return
	}

	scope := c.Request.FormValue("scope")
	if _, err := o.scopes.ResolveRequested(ctx, scope); err != nil {
		o.redirectError(c, sess, target, asProtocolError(err))
		return
	}
	sess.Data.Scope = strings.TrimSpace(scope)

	if err := sess.Save(ctx); err != nil {
		o.redirectError(c, sess, target, serverError(err))
		return
	}

	if o.identity.CurrentMember(c) == nil {
		o.redirectToLogin(c, c.Request.FormValue("signup") == "true")
		return
	}
	redirect(c, o.config.RunAuthPath)
}

// HandleRunAuth is where an authenticated member lands to approve the pending request
// @Summary Consent step
// @Description Auto-allow trusted clients or describe the consent form
// @Tags OAuth2
// @Produce json
// @Success 200 {object} auth.ConsentView
// @Success 302
// @Failure 400 {string} string "No pending request"
// @Router /oauth/runauth [get]
func (o *OAuthService) HandleRunAuth(c *gin.Context) {
	member := o.identity.CurrentMember(c)
	if member == nil {
		o.redirectToLogin(c, false)
		return
	}
	sess, client, requested, ok := o.pending(c)
	if !ok {
		return
	}

	if client.AutoAllow {
		o.issueAndRedirect(c, sess, client, member, requested, "auto")
		return
	}
	o.renderConsent(c, o.consentView(client, member, requested))
}

// HandleAllow accepts the consent form
// @Summary Consent accept
// @Description Issue a code for the scopes the member ticked plus every mandatory scope
// @Tags OAuth2
// @Accept application/x-www-form-urlencoded
// @Param scopes formData []string false "Selected scope names" collectionFormat(multi)
// @Success 302
// @Failure 400 {string} string "No pending request"
// @Router /oauth/allow [post]
func (o *OAuthService) HandleAllow(c *gin.Context) {
	member := o.identity.CurrentMember(c)
	if member == nil {
		o.redirectToLogin(c, false)
		return
	}
	sess, client, requested, ok := o.pending(c)
	if !ok {
		return
	}

	granted := grantedScopes(requested, c.PostFormArray("scopes"))
	o.issueAndRedirect(c, sess, client, member, granted, "explicit")
}

// HandleCancel is the end user declining the request
// @Summary Consent cancel
// @Description Report access_denied to the client
// @Tags OAuth2
// @Success 302
// @Failure 400 {string} string "No pending request"
// @Router /oauth/cancel [get]
func (o *OAuthService) HandleCancel(c *gin.Context) {
	sess, ok := o.session(c)
	if !ok {
		return
	}
	uri := sess.Data.ReturnURI
	if uri == "" {
		if err := sess.Clear(c.Request.Context()); err != nil {
			log.WithError(err).Error("Failed to clear authorization session")
		}
		writeClientError(c, errInvalidRedirectURI)
		return
	}
	o.redirectError(c, sess, uri, newProtocolError(oautherrors.ErrAccessDenied,
		"The resource owner denied the authorisation request."))
}

// pending reloads the client and requested scopes of the session's request
func (o *OAuthService) pending(c *gin.Context) (*session.Session, *models.Client, []models.Scope, bool) {
	sess, ok := o.session(c)
	if !ok {
		return nil, nil, nil, false
	}
	ctx := c.Request.Context()

	if sess.Data.ClientID == 0 {
		writeClientError(c, errInvalidClient)
		return nil, nil, nil, false
	}
	client, err := o.clients.GetClientByID(ctx, sess.Data.ClientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if clearErr := sess.Clear(ctx); clearErr != nil {
			log.WithError(clearErr).Error("Failed to clear authorization session")
		}
		writeClientError(c, errInvalidClient)
		return nil, nil, nil, false
	}
	if err != nil {
		writeJSONError(c, serverError(err), "")
		return nil, nil, nil, false
	}

	requested, err := o.scopes.ResolveRequested(ctx, sess.Data.Scope)
	if err != nil {
		o.redirectError(c, sess, returnTarget(sess, client), asProtocolError(err))
		return nil, nil, nil, false
	}
	return sess, client, requested, true
}

func (o *OAuthService) issueAndRedirect(c *gin.Context, sess *session.Session, client *models.Client, member *models.Member, scopes []models.Scope, consent string) {
	ctx := c.Request.Context()
	code, err := o.codes.Issue(ctx, client, member, sess.Data.ReturnURI, scopes)
	if err != nil {
		o.redirectError(c, sess, returnTarget(sess, client), serverError(err))
		return
	}

	state := sess.Data.State
	if err := sess.Clear(ctx); err != nil {
		log.WithError(err).Error("Failed to clear authorization session")
	}
	metrics.CodesIssued.WithLabelValues(consent).Inc()
	redirect(c, SendEndpoint(code, client, state))
}

func (o *OAuthService) redirectToLogin(c *gin.Context, signup bool) {
	target := o.config.LoginPath
	if signup {
		target = o.config.SignupPath
	}
	redirect(c, target+"?BackURL="+url.QueryEscape(o.config.RunAuthPath))
}

func (o *OAuthService) session(c *gin.Context) (*session.Session, bool) {
	sess := session.FromContext(c)
	if sess == nil {
		writeJSONError(c, serverError(errors.New("authorization session middleware not installed")), "")
		return nil, false
	}
	return sess, true
}

func returnTarget(sess *session.Session, client *models.Client) string {
	if sess.Data.ReturnURI != "" {
		return sess.Data.ReturnURI
	}
	return client.DefaultEndpoint
}

func asProtocolError(err error) *ProtocolError {
	var perr *ProtocolError
	if errors.As(err, &perr) {
		return perr
	}
	return serverError(err)
}
