package kv

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE kv (
  key        TEXT PRIMARY KEY,
  value      BLOB NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`)
	require.NoError(t, err)
	return db
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": NewSQLiteStore(setupDB(t)),
		"memory": NewMemoryStore(),
	}
}

func TestStore_MissingKeyIsNil(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			v, err := s.Get(context.Background(), "nope")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestStore_SetGetOverwriteDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "k1", []byte("one")))

			v, err := s.Get(ctx, "k1")
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), v)

			require.NoError(t, s.Set(ctx, "k1", []byte("two")))
			v, err = s.Get(ctx, "k1")
			require.NoError(t, err)
			assert.Equal(t, []byte("two"), v)

			require.NoError(t, s.Delete(ctx, "k1"))
			v, err = s.Get(ctx, "k1")
			require.NoError(t, err)
			assert.Nil(t, v)

			require.NoError(t, s.Delete(ctx, "k1"), "delete of a missing key is a no-op")
		})
	}
}

func TestStore_EmptyValueIsStored(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "empty", nil))
			v, err := s.Get(ctx, "empty")
			require.NoError(t, err)
			assert.Empty(t, v)
		})
	}
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'X'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	out[0] = 'Y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestSQLiteStore_ClosedDB(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db)
	require.NoError(t, db.Close())

	_, err := s.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, s.Set(context.Background(), "k", []byte("v")))
	assert.Error(t, s.Delete(context.Background(), "k"))
}
