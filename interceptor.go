package session

import (
	"io"
	"net/http"
)

// AuthTransport wraps an http.RoundTripper, injecting the current bearer
// token and recovering from credential expiry: when an authenticated call
// comes back 401 it drives Manager.RefreshToken exactly once, replays the
// original request with the fresh token, and returns that result. A failed
// refresh propagates the original failure (the manager has already torn the
// session down). The replay is never retried again, even when it also fails
// authorization, so a broken backend cannot trigger a retry storm.
//
// The manager's own backend client must NOT route through this transport:
// refresh serializes with the other auth operations, so a 401 on the refresh
// call itself would re-enter the manager and deadlock. Give the auth Client a
// plain http.Client and reserve AuthTransport for resource requests.
type AuthTransport struct {
	manager SessionManager
	base    http.RoundTripper
	scheme  string
	logger  Logger
}

var _ http.RoundTripper = (*AuthTransport)(nil)

// NewAuthTransport returns a transport that authenticates requests against
// the given session manager.
func NewAuthTransport(manager SessionManager) *AuthTransport {
	return &AuthTransport{
		manager: manager,
		base:    http.DefaultTransport,
		scheme:  "Bearer",
		logger:  defLogger{},
	}
}

// WithBase sets the wrapped transport, http.DefaultTransport otherwise.
func (t *AuthTransport) WithBase(base http.RoundTripper) *AuthTransport {
	if base != nil {
		t.base = base
	}
	return t
}

func (t *AuthTransport) WithScheme(scheme string) *AuthTransport {
	if scheme != "" {
		t.scheme = scheme
	}
	return t
}

func (t *AuthTransport) WithLogger(logger Logger) *AuthTransport {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := t.authorize(req, t.manager.Token())

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || !t.manager.IsAuthenticated() {
		return resp, nil
	}

	if res := t.manager.RefreshToken(req.Context()); !res.Success {
		t.logger.Warn("refresh after 401 failed, propagating original response", "url", req.URL.Path)
		return resp, nil
	}

	retry, ok := t.replayable(req)
	if !ok {
		t.logger.Warn("cannot replay request without a rewindable body", "url", req.URL.Path)
		return resp, nil
	}

	// the original response is superseded by the replay
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return t.base.RoundTrip(t.authorize(retry, t.manager.Token()))
}

// authorize clones the request and sets the bearer credential. The clone
// keeps callers' requests immutable, as RoundTrip contracts require.
func (t *AuthTransport) authorize(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	if token != "" {
		out.Header.Set("Authorization", t.scheme+" "+token)
	}
	return out
}

// replayable rebuilds the request for the single retry. Requests with a
// consumed one-shot body cannot be replayed.
func (t *AuthTransport) replayable(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(req.Context())

	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}

	if req.GetBody == nil {
		return nil, false
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}

	retry.Body = body
	return retry, true
}
