package blobstore

import (
	"testing"

	"github.com/luxfi/agentworld/proto"
	"github.com/stretchr/testify/require"
)

func TestLocalCasStorePutGetRoundTrip(t *testing.T) {
	store := NewLocalCasStore(t.TempDir())
	bytes := []byte("hello-blob")
	hash := proto.ContentHash(bytes)

	require.NoError(t, store.Put(hash, bytes))
	has, err := store.Has(hash)
	require.NoError(t, err)
	require.True(t, has)

	got, err := store.Get(hash)
	require.NoError(t, err)
	require.Equal(t, bytes, got)
}

func TestLocalCasStoreRejectsHashMismatch(t *testing.T) {
	store := NewLocalCasStore(t.TempDir())
	err := store.Put("deadbeef", []byte("hello-blob"))
	require.Error(t, err)
	require.True(t, proto.IsKind(err, proto.ErrStructural))
}

func TestLocalCasStoreGetMissingReturnsNotFound(t *testing.T) {
	store := NewLocalCasStore(t.TempDir())
	_, err := store.Get("missing")
	require.Error(t, err)
	require.True(t, proto.IsKind(err, proto.ErrNotFound))
}

func TestLocalCasStorePutIsIdempotent(t *testing.T) {
	store := NewLocalCasStore(t.TempDir())
	bytes := []byte("idempotent")
	hash := proto.ContentHash(bytes)
	require.NoError(t, store.Put(hash, bytes))
	require.NoError(t, store.Put(hash, bytes))
}

func TestMemStorePutBytesAndGet(t *testing.T) {
	store := NewMemStore()
	hash, err := store.PutBytes([]byte("payload"))
	require.NoError(t, err)

	got, err := store.Get(hash)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)

	_, err = store.Get("nonexistent")
	require.Error(t, err)
	require.True(t, proto.IsKind(err, proto.ErrNotFound))
}

var _ Store = (*LocalCasStore)(nil)
var _ Store = (*MemStore)(nil)
