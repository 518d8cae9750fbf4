package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenClaims is the structured claim set decoded from a raw bearer token.
// The client holds no signing key, so claims are decoded structurally and
// liveness is confirmed against the backend (see Manager.Init).
type TokenClaims struct {
	jwt.RegisteredClaims
	UID          string `json:"_id,omitempty"`
	Email        string `json:"email,omitempty"`
	FullName     string `json:"fullName,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	IsAdmin      bool   `json:"isAdmin,omitempty"`
}

// UserID returns the subject identifier
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Role maps the admin flag onto the role vocabulary used by the backend
func (c *TokenClaims) Role() string {
	if c.IsAdmin {
		return RoleAdmin
	}
	return RoleMember
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *TokenClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// DecodeToken decodes a raw bearer token into its claim set. Pure and
// deterministic: no network, no storage, same input yields same claims.
// Fails with ErrTokenMalformed when the input is not three dot-separated
// base64 segments wrapping valid JSON.
func DecodeToken(raw string) (*TokenClaims, error) {
	if strings.Count(raw, ".") != 2 {
		return nil, ErrTokenMalformed
	}

	claims := &TokenClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(ErrTokenMalformed.Code)
	}

	return claims, nil
}
