package session_test

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestResolveOrCreateExisting(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserAPI)

	existing := &session.User{ID: testSubject, Email: "existing@example.com"}
	users.On("FetchUser", mock.Anything, "valid-a", testSubject).Return(existing, nil)

	resolver := session.NewIdentityResolver(users)

	claims := &session.TokenClaims{UID: testSubject, Email: "claims@example.com"}
	resolved, err := resolver.ResolveOrCreate(ctx, "valid-a", claims, &session.User{Email: "hint@example.com"})

	assert.NoError(t, err)
	assert.Equal(t, existing, resolved)
	users.AssertExpectations(t)
}

func TestResolveOrCreateCreatesMissing(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserAPI)

	users.On("FetchUser", mock.Anything, "valid-a", testSubject).
		Return(nil, session.ErrUserNotFound)

	users.On("CreateUser", mock.Anything, "valid-a", mock.MatchedBy(func(u *session.User) bool {
		return u.ID == testSubject &&
			u.Email == "hint@example.com" &&
			u.FullName == "Hinted Name" &&
			u.ProfileImage == "https://cdn.example.com/p.png"
	})).Return(&session.User{ID: testSubject, Email: "hint@example.com"}, nil)

	resolver := session.NewIdentityResolver(users)

	claims := &session.TokenClaims{
		UID:          testSubject,
		Email:        "claims@example.com",
		ProfileImage: "https://cdn.example.com/p.png",
	}
	hints := &session.User{Email: "hint@example.com", FullName: "Hinted Name"}

	resolved, err := resolver.ResolveOrCreate(ctx, "valid-a", claims, hints)

	assert.NoError(t, err)
	assert.Equal(t, testSubject, resolved.ID)
	users.AssertExpectations(t)
}

func TestResolveOrCreateNormalizesOpaqueSubject(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserAPI)

	claims := &session.TokenClaims{UID: "auth0|1234567890"}

	derived, err := session.SubjectUUID(claims)
	assert.NoError(t, err)
	subject := derived.String()
	assert.NotEqual(t, "auth0|1234567890", subject)

	users.On("FetchUser", mock.Anything, "valid-a", subject).
		Return(nil, session.ErrUserNotFound)
	users.On("CreateUser", mock.Anything, "valid-a", mock.MatchedBy(func(u *session.User) bool {
		return u.ID == subject
	})).Return(&session.User{ID: subject}, nil)

	resolver := session.NewIdentityResolver(users)

	resolved, err := resolver.ResolveOrCreate(ctx, "valid-a", claims, nil)

	assert.NoError(t, err)
	assert.Equal(t, subject, resolved.ID)
	users.AssertExpectations(t)
}

func TestResolveOrCreateDefaultsFullName(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserAPI)

	users.On("FetchUser", mock.Anything, "valid-a", testSubject).
		Return(nil, session.ErrUserNotFound)

	users.On("CreateUser", mock.Anything, "valid-a", mock.MatchedBy(func(u *session.User) bool {
		return u.FullName == "User"
	})).Return(&session.User{ID: testSubject, FullName: "User"}, nil)

	resolver := session.NewIdentityResolver(users)

	resolved, err := resolver.ResolveOrCreate(ctx, "valid-a", &session.TokenClaims{UID: testSubject}, nil)

	assert.NoError(t, err)
	assert.Equal(t, "User", resolved.FullName)
	users.AssertExpectations(t)
}

func TestResolveOrCreateLookupFailure(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserAPI)

	users.On("FetchUser", mock.Anything, "valid-a", testSubject).
		Return(nil, errors.New("backend unreachable"))

	resolver := session.NewIdentityResolver(users)

	resolved, err := resolver.ResolveOrCreate(ctx, "valid-a", &session.TokenClaims{UID: testSubject}, nil)

	assert.Nil(t, resolved)
	assert.Error(t, err)

	var rich *goerrors.Error
	assert.True(t, goerrors.As(err, &rich))
	assert.Equal(t, session.TextCodeIdentityResolution, rich.TextCode)

	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveOrCreateCreateFailure(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserAPI)

	users.On("FetchUser", mock.Anything, "valid-a", testSubject).
		Return(nil, session.ErrUserNotFound)
	users.On("CreateUser", mock.Anything, "valid-a", mock.Anything).
		Return(nil, errors.New("insert failed"))

	resolver := session.NewIdentityResolver(users)

	resolved, err := resolver.ResolveOrCreate(ctx, "valid-a", &session.TokenClaims{UID: testSubject}, nil)

	assert.Nil(t, resolved)
	assert.Error(t, err)
	users.AssertExpectations(t)
}

func TestResolveOrCreateMissingSubject(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserAPI)

	resolver := session.NewIdentityResolver(users)

	resolved, err := resolver.ResolveOrCreate(ctx, "valid-a", &session.TokenClaims{}, nil)
	assert.Nil(t, resolved)
	assert.Error(t, err)

	resolved, err = resolver.ResolveOrCreate(ctx, "valid-a", nil, nil)
	assert.Nil(t, resolved)
	assert.Error(t, err)

	users.AssertNotCalled(t, "FetchUser", mock.Anything, mock.Anything, mock.Anything)
}
