package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// CredentialStore is durable key/value storage for the serialized token and
// user record. Load never fails on missing entries, it returns zero values.
type CredentialStore interface {
	Save(ctx context.Context, token string, user *User) error
	Load(ctx context.Context) (string, *User, error)
	Clear(ctx context.Context) error
}

// AuthAPI is the backend authentication contract the Manager drives.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	Signup(ctx context.Context, payload RegisterPayload) (string, error)
	Refresh(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, token string, payload ChangePasswordPayload) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, payload PasswordResetConfirm) error
}

// UserAPI exposes the backend user endpoints the IdentityResolver reconciles
// against. FetchUser reports a missing record with ErrUserNotFound.
type UserAPI interface {
	FetchUser(ctx context.Context, token, id string) (*User, error)
	CreateUser(ctx context.Context, token string, user *User) (*User, error)
	UpdateUser(ctx context.Context, token, id string, user *User) (*User, error)
}

// SessionManager holds the operations collaborators (guards, transports, UI
// actions) call into. Manager is the canonical implementation.
type SessionManager interface {
	Init(ctx context.Context)
	Login(ctx context.Context, email, password string) Result
	Register(ctx context.Context, payload RegisterPayload) Result
	RefreshToken(ctx context.Context) Result
	ChangePassword(ctx context.Context, payload ChangePasswordPayload) Result
	Logout(ctx context.Context)
	IsAuthenticated() bool
	IsLoading() bool
	CurrentUser() *User
	Token() string
	WaitUntilReady(ctx context.Context) error
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetAuthScheme() string
	GetHTTPTimeout() int
	GetLoginRoute() string
	GetDefaultRoute() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
