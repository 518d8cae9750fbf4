package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const (
	// CredentialTokenKey is the fixed key holding the raw bearer token
	CredentialTokenKey = "auth_token"
	// CredentialUserKey is the fixed key holding the serialized user record
	CredentialUserKey = "user"
)

// CredentialRecord is one durable key/value entry
type CredentialRecord struct {
	bun.BaseModel `bun:"table:credentials,alias:cred"`
	Key           string     `bun:"key,pk" json:"key"`
	Value         string     `bun:"value,notnull" json:"value"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// BunCredentialStore persists credentials in a relational store through Bun.
// Writes are immediately durable: Save runs both entries in one transaction
// so the persisted record is never half written.
type BunCredentialStore struct {
	db     *bun.DB
	logger Logger
}

var _ CredentialStore = (*BunCredentialStore)(nil)

// NewBunCredentialStore returns a credential store backed by db
func NewBunCredentialStore(db *bun.DB) *BunCredentialStore {
	return &BunCredentialStore{
		db:     db,
		logger: defLogger{},
	}
}

func (s *BunCredentialStore) WithLogger(logger Logger) *BunCredentialStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Register creates the credentials table when missing. Call once at startup.
func (s *BunCredentialStore) Register(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*CredentialRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create credentials table")
	}
	return nil
}

// Save upserts the token and the serialized user under their fixed keys
func (s *BunCredentialStore) Save(ctx context.Context, token string, user *User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to serialize user record")
	}

	records := []CredentialRecord{
		{Key: CredentialTokenKey, Value: token},
		{Key: CredentialUserKey, Value: string(payload)},
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for i := range records {
			if _, err := tx.NewInsert().
				Model(&records[i]).
				On("CONFLICT (key) DO UPDATE").
				Set("value = EXCLUDED.value").
				Set("updated_at = CURRENT_TIMESTAMP").
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist credentials")
	}

	return nil
}

// Load reads the persisted token and user record. Missing keys are not an
// error; both values come back zero. A user entry that no longer parses is
// treated as absent so rehydration can still confirm the token.
func (s *BunCredentialStore) Load(ctx context.Context) (string, *User, error) {
	var records []CredentialRecord

	err := s.db.NewSelect().
		Model(&records).
		Where("key IN (?)", bun.In([]string{CredentialTokenKey, CredentialUserKey})).
		Scan(ctx)
	if err != nil {
		return "", nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load credentials")
	}

	var token string
	var user *User

	for _, record := range records {
		switch record.Key {
		case CredentialTokenKey:
			token = record.Value
		case CredentialUserKey:
			if record.Value == "" {
				continue
			}
			u := &User{}
			if err := json.Unmarshal([]byte(record.Value), u); err != nil {
				s.logger.Warn("discarding unreadable persisted user record", "error", err)
				continue
			}
			user = u
		}
	}

	return token, user, nil
}

// Clear erases the persisted record entirely
func (s *BunCredentialStore) Clear(ctx context.Context) error {
	if _, err := s.db.NewDelete().
		Model((*CredentialRecord)(nil)).
		Where("key IN (?)", bun.In([]string{CredentialTokenKey, CredentialUserKey})).
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear credentials")
	}
	return nil
}
