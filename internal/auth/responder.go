package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/franciscosanchezn/gin-oauth-server/internal/metrics"
	"github.com/franciscosanchezn/gin-oauth-server/internal/models"
	"github.com/franciscosanchezn/gin-oauth-server/internal/session"
	"github.com/gin-gonic/gin"
)

const jsonContentType = "application/json;charset=UTF-8"

// redirectError sends perr back to the client at target, echoing the stashed
// state. The session is cleared first. Without a target the error is written
// as JSON instead.
func (o *OAuthService) redirectError(c *gin.Context, sess *session.Session, target string, perr *ProtocolError) {
	state := sess.Data.State
	if err := sess.Clear(c.Request.Context()); err != nil {
		log.WithError(err).Error("Failed to clear authorization session")
	}
	metrics.AuthorizeErrors.WithLabelValues(perr.Code()).Inc()

	if target == "" {
		writeJSONError(c, perr, state)
		return
	}

	params := url.Values{}
	params.Set("error", perr.Code())
	if perr.Description != "" {
		params.Set("error_description", perr.Description)
	}
	if perr.URI != "" {
		params.Set("error_uri", perr.URI)
	}
	if state != "" {
		params.Set("state", state)
	}
	redirect(c, appendQuery(target, params))
}

func writeJSONError(c *gin.Context, perr *ProtocolError, state string) {
	body := models.OAuth2Error{
		Error:            perr.Code(),
		ErrorDescription: perr.Description,
		ErrorURI:         perr.URI,
		State:            state,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	status := perr.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.Header("Cache-Control", "no-store")
	c.Data(status, jsonContentType, raw)
	c.Abort()
}

func writeClientError(c *gin.Context, err *ClientResolutionError) {
	metrics.AuthorizeErrors.WithLabelValues("client_resolution").Inc()
	c.String(http.StatusBadRequest, err.Message)
	c.Abort()
}

// WriteBearerError answers a protected resource request that failed bearer
// authentication. The error travels in the WWW-Authenticate header.
func WriteBearerError(c *gin.Context, err error) {
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		perr = serverError(err)
	}
	c.Header("WWW-Authenticate", BearerChallenge(perr))
	c.AbortWithStatus(perr.Status)
}

// BearerChallenge renders the WWW-Authenticate value for perr
func BearerChallenge(perr *ProtocolError) string {
	var b strings.Builder
	b.WriteString("Bearer")
	if code := perr.Code(); code != "" {
		fmt.Fprintf(&b, " error=%q", code)
		if perr.Description != "" {
			fmt.Fprintf(&b, " error_description=%q", perr.Description)
		}
		if perr.URI != "" {
			fmt.Fprintf(&b, " error_uri=%q", perr.URI)
		}
	}
	return b.String()
}

// redirect sends the user agent to target. Custom app schemes are written
// verbatim into Location.
func redirect(c *gin.Context, target string) {
	if u, err := url.Parse(target); err == nil && u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		c.Header("Location", target)
		c.Status(http.StatusFound)
		c.Abort()
		return
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

// appendQuery adds params to target's query string, keeping any fragment last
func appendQuery(target string, params url.Values) string {
	fragment := ""
	if i := strings.Index(target, "#"); i >= 0 {
		target, fragment = target[:i], target[i:]
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
		if strings.HasSuffix(target, "?") || strings.HasSuffix(target, "&") {
			sep = ""
		}
	}
	return target + sep + params.Encode() + fragment
}
