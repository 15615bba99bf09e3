package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "nested", "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestToken_EmptyByDefault(t *testing.T) {
	db := openTestDB(t)
	tok, err := db.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)

	_, ok, err := db.TokenUpdatedAt(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetToken_ReplacesAndClears(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.SetToken(ctx, "first"))
	require.NoError(t, db.SetToken(ctx, "second"))

	tok, err := db.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	_, ok, err := db.TokenUpdatedAt(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, db.ClearToken(ctx))
	tok, err = db.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestOpenDB_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	db, err := OpenDB(path)
	require.NoError(t, err)
	require.NoError(t, db.SetToken(ctx, "persisted"))
	require.NoError(t, db.Close())

	db, err = OpenDB(path)
	require.NoError(t, err)
	defer db.Close()
	tok, err := db.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok)
}
