package domain

import (
	"errors"
	"net/http"
	"strings"
)

// Error taxonomy. Each kind is handled where it occurs and turned into a
// user-facing status string with UserMessage.
var (
	// ErrPermissionDenied is a refused clipboard read. Callers drop it silently.
	ErrPermissionDenied = errors.New("clipboard read not permitted")

	// ErrAuthorizationFailed wraps the token broker's message.
	ErrAuthorizationFailed = errors.New("authorization failed")

	// ErrNotAuthorized is a delivery attempted without a valid session.
	ErrNotAuthorized = errors.New("Not authorized yet. Please run 'clipdoc authorize'")

	// ErrNoTargetConfigured is a delivery attempted without a document id.
	ErrNoTargetConfigured = errors.New("No Google Doc ID set. Please run 'clipdoc set-doc <id>'")

	// ErrMessagingChannel is a failed cross-boundary send. Treated optimistically.
	ErrMessagingChannel = errors.New("messaging channel error")

	// ErrNoToken is returned by the broker when the grant produced no token.
	ErrNoToken = errors.New("No token received from Google")
)

// APIError is a non-2xx answer from the document API.
// Message is always human readable. Status is the canonical error status
// (e.g. UNAUTHENTICATED) when the body carried one.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// credentialSignatures mark an expired or revoked token. Matched in lower case.
var credentialSignatures = []string{
	"invalid_token",
	"invalid credentials",
	"invalid authentication credentials",
}

// IsCredentialError reports whether err is a rejected token: a 401 or
// UNAUTHENTICATED answer, or a message carrying a credential-failure signature.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.Status == "UNAUTHENTICATED") {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range credentialSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// AuthError keeps the broker's message verbatim for the user.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return ErrAuthorizationFailed }

// UserMessage converts err into the status string shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	var authErr *AuthError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.Is(err, ErrNotAuthorized):
		return ErrNotAuthorized.Error()
	case errors.Is(err, ErrNoTargetConfigured):
		return ErrNoTargetConfigured.Error()
	case errors.Is(err, ErrPermissionDenied):
		return "Error reading clipboard: " + err.Error()
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error"
}
