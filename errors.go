package session

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeMalformedToken     = "MALFORMED_TOKEN"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeRefreshRejected    = "REFRESH_REJECTED"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeIdentityResolution = "IDENTITY_RESOLUTION_FAILED"
	TextCodeNotAuthenticated   = "NOT_AUTHENTICATED"
	TextCodeBackendRejected    = "BACKEND_REJECTED"
)

// ErrTokenMalformed is returned when a raw token cannot be split into
// header/payload/signature segments. Local, never retried.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryValidation).
	WithTextCode(TextCodeMalformedToken).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidCredentials is the login rejection reported by the backend.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrRefreshRejected is returned when the backend refuses to renew a token.
// It always terminates the session.
var ErrRefreshRejected = goerrors.New("refresh token rejected", goerrors.CategoryAuth).
	WithTextCode(TextCodeRefreshRejected).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotFound reports that the backend holds no record for an identifier.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrIdentityResolution wraps any resolver failure other than not-found.
// Callers must treat it as a session-setup failure and fall back to logout.
var ErrIdentityResolution = goerrors.New("unable to resolve identity", goerrors.CategoryInternal).
	WithTextCode(TextCodeIdentityResolution).
	WithCode(goerrors.CodeInternal)

// ErrNotAuthenticated is returned by operations that require a live session.
var ErrNotAuthenticated = goerrors.New("session is not authenticated", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrBackendRejected is the catch-all for remote-reported business failures
// that carry no more specific mapping.
var ErrBackendRejected = goerrors.New("backend rejected the request", goerrors.CategoryOperation).
	WithTextCode(TextCodeBackendRejected).
	WithCode(goerrors.CodeBadRequest)

// IsMalformedError will check for structurally invalid tokens
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == TextCodeMalformedToken {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "token contains an invalid number of segments")
}

// IsUnauthorizedError will check for credential rejections (401-class errors)
func IsUnauthorizedError(err error) bool {
	if err == nil {
		return false
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Code == goerrors.CodeUnauthorized
	}

	return false
}

// IsNotFoundError will check for missing remote records
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == TextCodeUserNotFound {
		return true
	}

	return goerrors.IsNotFound(err)
}

// remoteError clones a sentinel and overlays the backend supplied message so
// callers surface it verbatim.
func remoteError(sentinel *goerrors.Error, message string) error {
	if message == "" {
		return sentinel
	}

	clone := sentinel.Clone()
	if clone == nil {
		return sentinel
	}

	clone.Message = message
	clone.Source = sentinel
	return clone
}

// errorMessage extracts a user facing message, falling back to the operation
// default when the error carries none.
func errorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Message != "" {
		return rich.Message
	}

	if msg := err.Error(); msg != "" {
		return msg
	}

	return fallback
}
