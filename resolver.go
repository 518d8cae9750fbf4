package session

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// IdentityResolver reconciles a decoded claim set with the backend-held user
// profile: fetch by subject, create when the backend has no record yet.
type IdentityResolver struct {
	users  UserAPI
	logger Logger
}

// NewIdentityResolver returns a resolver backed by the given user endpoints
func NewIdentityResolver(users UserAPI) *IdentityResolver {
	return &IdentityResolver{
		users:  users,
		logger: defLogger{},
	}
}

func (r *IdentityResolver) WithLogger(logger Logger) *IdentityResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// ResolveOrCreate returns an identity that exists remotely: the pre-existing
// record for the claim subject, or a freshly created one synthesized from
// claims merged with hints (hints win for fields the backend does not yet
// know). Any failure other than not-found escalates as ErrIdentityResolution;
// the caller must treat that as a session-setup failure and fall back to
// logout.
func (r *IdentityResolver) ResolveOrCreate(ctx context.Context, token string, claims *TokenClaims, hints *User) (*User, error) {
	if claims == nil || claims.UserID() == "" {
		return nil, remoteError(ErrIdentityResolution, "claims carry no subject identifier")
	}

	// opaque subjects (auth0|..., provider ids) normalize into a
	// deterministic UUID so repeated resolutions agree on the record key
	id, err := SubjectUUID(claims)
	if err != nil {
		return nil, remoteError(ErrIdentityResolution, "claims carry no usable subject identifier")
	}
	subject := id.String()

	existing, err := r.users.FetchUser(ctx, token, subject)
	if err == nil {
		return existing, nil
	}

	if !IsNotFoundError(err) {
		r.logger.Error("identity lookup failed", "subject", subject, "error", err)
		return nil, goerrors.Wrap(err, ErrIdentityResolution.Category, ErrIdentityResolution.Message).
			WithTextCode(ErrIdentityResolution.TextCode)
	}

	candidate := r.synthesize(subject, claims, hints)

	created, err := r.users.CreateUser(ctx, token, candidate)
	if err != nil {
		r.logger.Error("identity creation failed", "subject", subject, "error", err)
		return nil, goerrors.Wrap(err, ErrIdentityResolution.Category, ErrIdentityResolution.Message).
			WithTextCode(ErrIdentityResolution.TextCode)
	}

	return created, nil
}

// synthesize builds the candidate record from claims, then lets hints
// override whatever they carry.
func (r *IdentityResolver) synthesize(subject string, claims *TokenClaims, hints *User) *User {
	user := &User{
		ID:           subject,
		Email:        claims.Email,
		FullName:     claims.FullName,
		ProfileImage: claims.ProfileImage,
		IsAdmin:      claims.IsAdmin,
	}

	if user.FullName == "" {
		user.FullName = "User"
	}

	if hints == nil {
		return user
	}

	if hints.Email != "" {
		user.Email = hints.Email
	}
	if hints.FirstName != "" {
		user.FirstName = hints.FirstName
	}
	if hints.LastName != "" {
		user.LastName = hints.LastName
	}
	if hints.FullName != "" {
		user.FullName = hints.FullName
	}
	if hints.ProfileImage != "" {
		user.ProfileImage = hints.ProfileImage
	}
	if hints.Phone != "" {
		user.Phone = hints.Phone
	}
	if hints.Bio != "" {
		user.Bio = hints.Bio
	}
	if hints.Location != "" {
		user.Location = hints.Location
	}
	if hints.Portfolio != "" {
		user.Portfolio = hints.Portfolio
	}
	if hints.IsAdmin {
		user.IsAdmin = true
	}

	return user
}
