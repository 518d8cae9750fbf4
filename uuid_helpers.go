package session

import (
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// HasUserUUID reports whether the claim subject parses as a UUID.
func HasUserUUID(claims *TokenClaims) bool {
	if claims == nil {
		return false
	}
	_, err := uuid.Parse(claims.UserID())
	return err == nil
}

// SubjectUUID normalizes a claim subject into a UUID: parsed directly when
// the backend already issues UUIDs, otherwise derived deterministically from
// the subject string so repeated decodes agree.
func SubjectUUID(claims *TokenClaims) (uuid.UUID, error) {
	if claims == nil || claims.UserID() == "" {
		return uuid.Nil, ErrTokenMalformed
	}

	subject := claims.UserID()

	if id, err := uuid.Parse(subject); err == nil {
		return id, nil
	}

	return hashid.NewUUID(subject)
}
