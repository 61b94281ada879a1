package auth

import (
	"errors"
	"net/http"

	oautherrors "github.com/go-oauth2/oauth2/v4/errors"
)

// Bearer token error codes (RFC 6750) that the oauth2 errors package does not define
var (
	ErrInvalidToken      = errors.New("invalid_token")
	ErrInsufficientScope = errors.New("insufficient_scope")
)

// ProtocolError is an OAuth error that is reported to the client in the
// standard vocabulary. Err is nil for a bare bearer challenge that carries
// no error code.
type ProtocolError struct {
	Err         error
	Description string
	URI         string
	Status      int
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return "unauthorized"
	}
	if e.Description != "" {
		return e.Err.Error() + ": " + e.Description
	}
	return e.Err.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Code is the wire error code, empty for a bare challenge
func (e *ProtocolError) Code() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func newProtocolError(err error, description string) *ProtocolError {
	return &ProtocolError{Err: err, Description: description, Status: http.StatusBadRequest}
}

func invalidRequest(description string) *ProtocolError {
	return newProtocolError(oautherrors.ErrInvalidRequest, description)
}

func invalidGrant(description string) *ProtocolError {
	return newProtocolError(oautherrors.ErrInvalidGrant, description)
}

func invalidScope() *ProtocolError {
	return newProtocolError(oautherrors.ErrInvalidScope, "At least one of the scopes requested is invalid.")
}

func serverError(err error) *ProtocolError {
	log.WithError(err).Error("Internal error while handling OAuth request")
	return &ProtocolError{Err: oautherrors.ErrServerError, Status: http.StatusInternalServerError}
}

func invalidToken(description string) *ProtocolError {
	return &ProtocolError{Err: ErrInvalidToken, Description: description, Status: http.StatusUnauthorized}
}

func insufficientScope(description string) *ProtocolError {
	return &ProtocolError{Err: ErrInsufficientScope, Description: description, Status: http.StatusForbidden}
}

// errUnauthorized asks the caller to authenticate without naming an error
func errUnauthorized() *ProtocolError {
	return &ProtocolError{Status: http.StatusUnauthorized}
}

// ClientResolutionError means the client or its redirect target could not be
// trusted, so the error is shown to the user agent instead of redirected.
type ClientResolutionError struct {
	Message string
}

func (e *ClientResolutionError) Error() string {
	return e.Message
}

var (
	errInvalidClient      = &ClientResolutionError{Message: "Invalid client identifier"}
	errInvalidRedirectURI = &ClientResolutionError{Message: "Invalid redirect URI"}
)
