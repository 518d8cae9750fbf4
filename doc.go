// Package session manages the client side of a bearer-token auth protocol:
// it acquires, stores, refreshes, and invalidates an access token plus the
// resolved identity record, and it transparently recovers from token expiry
// during in-flight API calls.
//
// Session lifecycle:
//   - Manager owns the in-memory session (user, token, loading flag). Every
//     mutation is funneled through its operations: Login, Register,
//     RefreshToken, ChangePassword, Logout, and Init. Fallible operations
//     return a Result instead of an error so UI layers can render the message
//     without unwrapping anything.
//   - Init rehydrates a persisted session at process start. A persisted token
//     is never trusted as-is: Init confirms liveness with a refresh call and
//     degrades to a clean unauthenticated state on any failure.
//
// Durable credentials:
//   - CredentialStore persists the raw token and the serialized user record
//     under two fixed keys. BunCredentialStore keeps them in SQLite via Bun;
//     MemoryCredentialStore covers tests and ephemeral processes.
//
// Expiry recovery:
//   - AuthTransport wraps an http.RoundTripper. When an authenticated call
//     comes back 401 it drives Manager.RefreshToken exactly once, replays the
//     original request with the fresh token, and otherwise propagates the
//     failure. Combine it with Guard, which holds route decisions until any
//     in-flight rehydration settles.
package session
