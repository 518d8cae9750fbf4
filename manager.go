package session

import (
	"context"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-print"
)

// Manager is the authoritative in-memory session. It owns every mutation of
// user, token, and the loading flag, composing the token codec, the identity
// resolver, and the credential store. Auth-mutating operations are serialized
// through a single mutex so overlapping calls cannot interleave their writes.
type Manager struct {
	api      AuthAPI
	store    CredentialStore
	resolver *IdentityResolver
	logger   Logger
	debug    bool

	opMu sync.Mutex // serializes auth-mutating operations

	mu      sync.RWMutex
	user    *User
	token   string
	loading bool
	ready   chan struct{} // non-nil exactly while loading
}

var _ SessionManager = (*Manager)(nil)

// NewManager returns a session manager wired to the backend contracts and the
// given credential store.
func NewManager(api AuthAPI, users UserAPI, store CredentialStore) *Manager {
	return &Manager{
		api:      api,
		store:    store,
		resolver: NewIdentityResolver(users),
		logger:   defLogger{},
	}
}

func (m *Manager) WithLogger(logger Logger) *Manager {
	if logger != nil {
		m.logger = logger
		m.resolver = m.resolver.WithLogger(logger)
	}
	return m
}

// WithResolver swaps the identity resolver, e.g. one with custom hints logic.
func (m *Manager) WithResolver(resolver *IdentityResolver) *Manager {
	if resolver != nil {
		m.resolver = resolver
	}
	return m
}

func (m *Manager) WithDebug(debug bool) *Manager {
	m.debug = debug
	return m
}

// IsAuthenticated reports whether a token is held. A transient window exists
// where the token is set while the user record is still being resolved.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// IsLoading is true exactly while an authentication-affecting network
// operation (login, register, refresh, init) is outstanding.
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// CurrentUser returns the resolved identity, nil when unauthenticated or
// still resolving.
func (m *Manager) CurrentUser() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Token returns the current bearer token, empty when unauthenticated.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// WaitUntilReady blocks until no authentication-affecting operation is in
// flight. Guards call this before deciding a route so they never decide
// while a rehydration is pending.
func (m *Manager) WaitUntilReady(ctx context.Context) error {
	m.mu.RLock()
	ready := m.ready
	m.mu.RUnlock()

	if ready == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ready:
		return nil
	}
}

// Login authenticates with email/password. On success the session ends fully
// populated and persisted; on any failure it rolls back to its prior state
// with no partial persistence.
func (m *Manager) Login(ctx context.Context, email, password string) Result {
	creds := Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		return failureResult(err, "Login failed")
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.setLoading(true)
	defer m.setLoading(false)

	prevToken, prevUser := m.snapshot()

	token, err := m.api.Login(ctx, creds)
	if err != nil {
		m.logger.Error("login rejected", "error", err)
		return failureResult(err, "Login failed")
	}

	if err := m.establishSession(ctx, token, nil); err != nil {
		m.restore(prevToken, prevUser)
		m.logger.Error("login session setup failed", "error", err)
		return failureResult(err, "Login failed")
	}

	return successResult()
}

// Register creates an account through the signup endpoint. Same contract as
// Login; the payload's explicit name and role fields take precedence over
// anything later returned by the backend.
func (m *Manager) Register(ctx context.Context, payload RegisterPayload) Result {
	if err := payload.Validate(); err != nil {
		return failureResult(err, "Registration failed")
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.setLoading(true)
	defer m.setLoading(false)

	prevToken, prevUser := m.snapshot()

	token, err := m.api.Signup(ctx, payload)
	if err != nil {
		m.logger.Error("registration rejected", "error", err)
		return failureResult(err, "Registration failed")
	}

	if err := m.establishSession(ctx, token, payload.Hints()); err != nil {
		m.restore(prevToken, prevUser)
		m.logger.Error("registration session setup failed", "error", err)
		return failureResult(err, "Registration failed")
	}

	return successResult()
}

// RefreshToken exchanges the current token for a fresh one. Only the token
// is replaced; the user identity is not re-resolved. A rejection is never
// retried and never ignored: it terminates the session.
func (m *Manager) RefreshToken(ctx context.Context) Result {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.setLoading(true)
	defer m.setLoading(false)

	return m.refreshLocked(ctx)
}

// refreshLocked runs the refresh exchange. Callers hold opMu and manage the
// loading flag: Init keeps it set across the whole rehydration.
func (m *Manager) refreshLocked(ctx context.Context) Result {
	token := m.Token()
	if token == "" {
		return failureResult(ErrNotAuthenticated, "Session expired")
	}

	next, err := m.api.Refresh(ctx, token)
	if err != nil {
		m.logger.Warn("token refresh rejected, terminating session", "error", err)
		m.logoutLocked(ctx)
		return failureResult(err, "Session expired")
	}

	m.mu.Lock()
	m.token = next
	user := m.user
	m.mu.Unlock()

	if err := m.store.Save(ctx, next, user); err != nil {
		// live session stays valid, the durable copy is rewritten on the
		// next successful credential change
		m.logger.Error("failed to re-persist refreshed token", "error", err)
	}

	return successResult()
}

// ChangePassword forwards an authenticated password change. The session is
// not mutated on success; the stored token is not rotated.
func (m *Manager) ChangePassword(ctx context.Context, payload ChangePasswordPayload) Result {
	if err := payload.Validate(); err != nil {
		return failureResult(err, "Password change failed")
	}

	m.mu.RLock()
	token := m.token
	user := m.user
	m.mu.RUnlock()

	if token == "" || user == nil || user.ID == "" {
		return failureResult(ErrNotAuthenticated, "Password change failed")
	}

	if err := m.api.ChangePassword(ctx, token, payload); err != nil {
		m.logger.Error("password change rejected", "error", err)
		return failureResult(err, "Password change failed")
	}

	return successResult()
}

// RequestPasswordReset asks the backend to email a reset link.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) Result {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return failureResult(err, "Failed to send reset email")
	}

	if err := m.api.RequestPasswordReset(ctx, email); err != nil {
		m.logger.Error("password reset request rejected", "error", err)
		return failureResult(err, "Failed to send reset email")
	}

	return successResult()
}

// ConfirmPasswordReset finalizes a password reset with the emailed token.
func (m *Manager) ConfirmPasswordReset(ctx context.Context, payload PasswordResetConfirm) Result {
	if err := payload.Validate(); err != nil {
		return failureResult(err, "Failed to reset password")
	}

	if err := m.api.ConfirmPasswordReset(ctx, payload); err != nil {
		m.logger.Error("password reset confirmation rejected", "error", err)
		return failureResult(err, "Failed to reset password")
	}

	return successResult()
}

// Logout never fails visibly: the backend is notified best-effort, then the
// in-memory session and the persisted record are cleared unconditionally.
// Idempotent on an already-unauthenticated session.
func (m *Manager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.logoutLocked(ctx)
}

func (m *Manager) logoutLocked(ctx context.Context) {
	token := m.Token()
	if token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			m.logger.Warn("logout notification failed", "error", err)
		}
	}

	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("failed to clear persisted credentials", "error", err)
	}
}

// Init rehydrates the session from the credential store at process start.
// A persisted token is never trusted as-is: its liveness is confirmed with a
// refresh exchange, then the identity is re-resolved. Any failure degrades to
// a clean unauthenticated state. The loading flag is true for the entire
// duration; observers block on WaitUntilReady.
func (m *Manager) Init(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.setLoading(true)
	defer m.setLoading(false)

	token, user, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Error("failed to load persisted credentials", "error", err)
		// drop the unreadable record so the next start is clean
		if cerr := m.store.Clear(ctx); cerr != nil {
			m.logger.Error("failed to clear unreadable credentials", "error", cerr)
		}
		return
	}

	if token == "" {
		return
	}

	// provisional until the refresh confirms the token is still live
	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()

	if res := m.refreshLocked(ctx); !res.Success {
		// refreshLocked already tore the session down
		return
	}

	claims, err := DecodeToken(m.Token())
	if err != nil {
		m.logger.Error("persisted token failed to decode", "error", err)
		m.logoutLocked(ctx)
		return
	}

	resolved, err := m.resolver.ResolveOrCreate(ctx, m.Token(), claims, user)
	if err != nil {
		m.logger.Error("rehydration identity resolution failed", "error", err)
		m.logoutLocked(ctx)
		return
	}

	m.mu.Lock()
	token = m.token
	m.user = resolved
	m.mu.Unlock()

	if err := m.store.Save(ctx, token, resolved); err != nil {
		m.logger.Error("failed to re-persist rehydrated session", "error", err)
	}
}

// establishSession decodes the token, resolves the identity, and only then
// mutates and persists the session, so a failure anywhere leaves nothing
// half written.
func (m *Manager) establishSession(ctx context.Context, token string, hints *User) error {
	claims, err := DecodeToken(token)
	if err != nil {
		return err
	}

	user, err := m.resolver.ResolveOrCreate(ctx, token, claims, hints)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()

	if err := m.store.Save(ctx, token, user); err != nil {
		return err
	}

	if m.debug {
		m.logger.Debug("session established: %s", print.MaybePrettyJSON(user))
	}

	return nil
}

func (m *Manager) snapshot() (string, *User) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.user
}

func (m *Manager) restore(token string, user *User) {
	m.mu.Lock()
	m.token = token
	m.user = user
	m.mu.Unlock()
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loading == v {
		return
	}

	m.loading = v

	if v {
		m.ready = make(chan struct{})
		return
	}

	if m.ready != nil {
		close(m.ready)
		m.ready = nil
	}
}
