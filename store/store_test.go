package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/scriptrpg/config"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, KeySession)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeySession, []byte(`{"gold":100}`)))
	val, ok, err := s.Get(ctx, KeySession)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"gold":100}`, string(val))

	// Overwrite replaces, never appends.
	require.NoError(t, s.Set(ctx, KeySession, []byte(`{"gold":80}`)))
	val, ok, err = s.Get(ctx, KeySession)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"gold":80}`, string(val))

	require.NoError(t, s.Remove(ctx, KeySession))
	_, ok, err = s.Get(ctx, KeySession)
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is not an error.
	require.NoError(t, s.Remove(ctx, KeySession))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	buf := []byte(`{"a":1}`)
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[2] = 'b'

	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(val))
}

func TestSQLiteStore(t *testing.T) {
	s, err := Open(config.StoreConfig{
		Mode:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "save.db"),
	})
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpenDefaultsToMemory(t *testing.T) {
	s, err := Open(config.StoreConfig{})
	require.NoError(t, err)
	defer s.Close()
	_, okIsMemory := s.(*Memory)
	assert.True(t, okIsMemory)
}

func TestOpenUnknownMode(t *testing.T) {
	_, err := Open(config.StoreConfig{Mode: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownMode)
}
