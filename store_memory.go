package session

import (
	"context"
	"encoding/json"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// MemoryCredentialStore keeps credentials in process memory. It serializes
// the user record the same way the durable store does so tests exercise the
// full round trip. Not durable across restarts.
type MemoryCredentialStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)

// NewMemoryCredentialStore returns an empty in-memory store
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		values: map[string]string{},
	}
}

// Save stores the token and serialized user under the fixed keys
func (s *MemoryCredentialStore) Save(_ context.Context, token string, user *User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize user record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[CredentialTokenKey] = token
	s.values[CredentialUserKey] = string(payload)

	return nil
}

// Load returns the stored token and user, zero values when absent
func (s *MemoryCredentialStore) Load(_ context.Context) (string, *User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token := s.values[CredentialTokenKey]

	var user *User
	if raw, ok := s.values[CredentialUserKey]; ok && raw != "" {
		u := &User{}
		if err := json.Unmarshal([]byte(raw), u); err == nil {
			user = u
		}
	}

	return token, user, nil
}

// Clear erases every stored entry
func (s *MemoryCredentialStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = map[string]string{}
	return nil
}
