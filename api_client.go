package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const (
	loginPath           = "/auth/login"
	signupPath          = "/auth/signup"
	refreshPath         = "/auth/refresh"
	logoutPath          = "/auth/logout"
	changePasswordPath  = "/auth/change-password"
	passwordResetPath   = "/auth/password-reset"
	passwordConfirmPath = "/auth/password-reset/confirm"
	usersPath           = "/users"
)

// Client talks to the backend auth and user endpoints. It performs no retry
// of its own; expiry recovery belongs to AuthTransport.
type Client struct {
	baseURL string
	scheme  string
	http    *http.Client
	logger  Logger
	debug   bool
}

var _ AuthAPI = (*Client)(nil)
var _ UserAPI = (*Client)(nil)

// NewClient returns a backend client configured from cfg
func NewClient(cfg Config) *Client {
	timeout := 30 * time.Second
	if cfg.GetHTTPTimeout() > 0 {
		timeout = time.Duration(cfg.GetHTTPTimeout()) * time.Second
	}

	scheme := cfg.GetAuthScheme()
	if scheme == "" {
		scheme = "Bearer"
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.GetBaseURL(), "/"),
		scheme:  scheme,
		http:    &http.Client{Timeout: timeout},
		logger:  defLogger{},
	}
}

func (c *Client) WithLogger(logger Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithHTTPClient swaps the underlying client, e.g. one whose transport is an
// AuthTransport.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	if client != nil {
		c.http = client
	}
	return c
}

func (c *Client) WithDebug(debug bool) *Client {
	c.debug = debug
	return c
}

type tokenResponse struct {
	Token string `json:"token"`
}

type backendMessage struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	out := tokenResponse{}
	if err := c.do(ctx, http.MethodPost, loginPath, "", creds, &out); err != nil {
		if IsUnauthorizedError(err) {
			return "", remoteError(ErrInvalidCredentials, backendMessageOf(err))
		}
		return "", err
	}

	if out.Token == "" {
		return "", goerrors.New("login response carried no token", goerrors.CategoryOperation)
	}

	return out.Token, nil
}

// Signup registers a new account and returns its bearer token
func (c *Client) Signup(ctx context.Context, payload RegisterPayload) (string, error) {
	out := tokenResponse{}
	if err := c.do(ctx, http.MethodPost, signupPath, "", payload, &out); err != nil {
		return "", err
	}

	if out.Token == "" {
		return "", goerrors.New("signup response carried no token", goerrors.CategoryOperation)
	}

	return out.Token, nil
}

// Refresh exchanges a live token for a fresh one
func (c *Client) Refresh(ctx context.Context, token string) (string, error) {
	out := tokenResponse{}
	if err := c.do(ctx, http.MethodPost, refreshPath, token, nil, &out); err != nil {
		if IsUnauthorizedError(err) {
			return "", remoteError(ErrRefreshRejected, backendMessageOf(err))
		}
		return "", err
	}

	if out.Token == "" {
		return "", remoteError(ErrRefreshRejected, "refresh response carried no token")
	}

	return out.Token, nil
}

// Logout notifies the backend that the token is done. Best effort from the
// caller's perspective; the error is reported so it can be logged.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, logoutPath, token, nil, nil)
}

// ChangePassword forwards an authenticated password change
func (c *Client) ChangePassword(ctx context.Context, token string, payload ChangePasswordPayload) error {
	return c.do(ctx, http.MethodPost, changePasswordPath, token, payload, nil)
}

// RequestPasswordReset asks the backend to email a reset link
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, passwordResetPath, "", map[string]string{"email": email}, nil)
}

// ConfirmPasswordReset finalizes a reset with the emailed token
func (c *Client) ConfirmPasswordReset(ctx context.Context, payload PasswordResetConfirm) error {
	return c.do(ctx, http.MethodPost, passwordConfirmPath, "", payload, nil)
}

// FetchUser loads a user record by identifier, ErrUserNotFound when the
// backend has none.
func (c *Client) FetchUser(ctx context.Context, token, id string) (*User, error) {
	user := &User{}
	if err := c.do(ctx, http.MethodGet, usersPath+"/"+id, token, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser creates a user record remotely
func (c *Client) CreateUser(ctx context.Context, token string, user *User) (*User, error) {
	created := &User{}
	if err := c.do(ctx, http.MethodPost, usersPath, token, user, created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateUser replaces a user record remotely
func (c *Client) UpdateUser(ctx context.Context, token, id string, user *User) (*User, error) {
	updated := &User{}
	if err := c.do(ctx, http.MethodPut, usersPath+"/"+id, token, user, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request payload")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", c.scheme+" "+token)
	}

	if c.debug {
		c.logger.Debug("%s %s payload: %s", method, path, print.MaybePrettyJSON(body))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not reach authentication service")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.statusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to decode response payload")
	}

	return nil
}

// statusError converts a non-2xx response into a rich error, surfacing the
// backend supplied message verbatim when present.
func (c *Client) statusError(resp *http.Response) error {
	payload := backendMessage{}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return goerrors.New("credential rejected by backend", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized).
			WithMetadata(map[string]any{
				"status":          resp.StatusCode,
				"backend_message": payload.Message,
			})
	case http.StatusNotFound:
		return remoteError(ErrUserNotFound, payload.Message)
	default:
		err := remoteError(ErrBackendRejected, payload.Message)
		var rich *goerrors.Error
		if goerrors.As(err, &rich) {
			return rich.WithMetadata(map[string]any{"status": resp.StatusCode})
		}
		return err
	}
}

// backendMessageOf pulls the remote message out of a rich error, empty when
// the backend supplied none so sentinel defaults apply.
func backendMessageOf(err error) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Metadata == nil {
		return ""
	}

	message, _ := rich.Metadata["backend_message"].(string)
	return message
}
