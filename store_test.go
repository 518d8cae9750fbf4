package session_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	assert.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func newTestBunStore(t *testing.T) *session.BunCredentialStore {
	t.Helper()

	store := session.NewBunCredentialStore(newTestDB(t))
	assert.NoError(t, store.Register(context.Background()))

	return store
}

func TestBunCredentialStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestBunStore(t)

	user := &session.User{
		ID:       "user-1",
		Email:    "user@example.com",
		FullName: "Test User",
		IsAdmin:  true,
	}

	assert.NoError(t, store.Save(ctx, "valid-a", user))

	token, loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "valid-a", token)
	assert.Equal(t, user, loaded)
}

func TestBunCredentialStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestBunStore(t)

	assert.NoError(t, store.Save(ctx, "valid-a", &session.User{ID: "user-1"}))
	assert.NoError(t, store.Save(ctx, "valid-b", &session.User{ID: "user-2"}))

	token, loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "valid-b", token)
	assert.Equal(t, "user-2", loaded.ID)
}

func TestBunCredentialStoreLoadEmpty(t *testing.T) {
	ctx := context.Background()
	store := newTestBunStore(t)

	token, user, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestBunCredentialStoreClear(t *testing.T) {
	ctx := context.Background()
	store := newTestBunStore(t)

	assert.NoError(t, store.Save(ctx, "valid-a", &session.User{ID: "user-1"}))
	assert.NoError(t, store.Clear(ctx))

	token, user, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)

	// clearing an already empty store is a no-op
	assert.NoError(t, store.Clear(ctx))
}

func TestMemoryCredentialStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryCredentialStore()

	user := &session.User{ID: "user-1", Email: "user@example.com"}

	assert.NoError(t, store.Save(ctx, "valid-a", user))

	token, loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "valid-a", token)
	assert.Equal(t, user, loaded)

	assert.NoError(t, store.Clear(ctx))

	token, loaded, err = store.Load(ctx)
	assert.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, loaded)
}
