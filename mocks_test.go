package session_test

import (
	"context"

	"github.com/goliatone/go-session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// testSubject is the canonical record key the manager, resolver, and
// transport tests share. UUID-shaped so it passes through subject
// normalization untouched.
var testSubject = uuid.NewString()

// MockAuthAPI implements session.AuthAPI
type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Login(ctx context.Context, creds session.Credentials) (string, error) {
	args := m.Called(ctx, creds)
	return args.String(0), args.Error(1)
}

func (m *MockAuthAPI) Signup(ctx context.Context, payload session.RegisterPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockAuthAPI) Refresh(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockAuthAPI) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthAPI) ChangePassword(ctx context.Context, token string, payload session.ChangePasswordPayload) error {
	args := m.Called(ctx, token, payload)
	return args.Error(0)
}

func (m *MockAuthAPI) RequestPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockAuthAPI) ConfirmPasswordReset(ctx context.Context, payload session.PasswordResetConfirm) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// MockUserAPI implements session.UserAPI
type MockUserAPI struct {
	mock.Mock
}

func (m *MockUserAPI) FetchUser(ctx context.Context, token, id string) (*session.User, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.User), args.Error(1)
}

func (m *MockUserAPI) CreateUser(ctx context.Context, token string, user *session.User) (*session.User, error) {
	args := m.Called(ctx, token, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.User), args.Error(1)
}

func (m *MockUserAPI) UpdateUser(ctx context.Context, token, id string, user *session.User) (*session.User, error) {
	args := m.Called(ctx, token, id, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.User), args.Error(1)
}

// MockCredentialStore implements session.CredentialStore for failure
// injection; the happy paths use MemoryCredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) Save(ctx context.Context, token string, user *session.User) error {
	args := m.Called(ctx, token, user)
	return args.Error(0)
}

func (m *MockCredentialStore) Load(ctx context.Context) (string, *session.User, error) {
	args := m.Called(ctx)
	var user *session.User
	if args.Get(1) != nil {
		user = args.Get(1).(*session.User)
	}
	return args.String(0), user, args.Error(2)
}

func (m *MockCredentialStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
