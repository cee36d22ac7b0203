package blobstore

import (
	"sync"

	"github.com/luxfi/agentworld/proto"
)

// MemStore is an in-memory Store, used in tests and as the default backend
// for ephemeral nodes that never persist to disk.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: map[string][]byte{}}
}

func (s *MemStore) Put(contentHash string, bytes []byte) error {
	if err := validateHash(contentHash); err != nil {
		return err
	}
	actual := proto.ContentHash(bytes)
	if actual != contentHash {
		return proto.NewError(proto.ErrStructural, "blobstore.MemStore.Put",
			"hash mismatch: expected "+contentHash+" got "+actual)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[contentHash]; ok {
		return nil
	}
	cp := make([]byte, len(bytes))
	copy(cp, bytes)
	s.blobs[contentHash] = cp
	return nil
}

func (s *MemStore) PutBytes(bytes []byte) (string, error) {
	hash := proto.ContentHash(bytes)
	if err := s.Put(hash, bytes); err != nil {
		return "", err
	}
	return hash, nil
}

func (s *MemStore) Get(contentHash string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bytes, ok := s.blobs[contentHash]
	if !ok {
		return nil, proto.NewError(proto.ErrNotFound, "blobstore.MemStore.Get", "blob not found: "+contentHash)
	}
	cp := make([]byte, len(bytes))
	copy(cp, bytes)
	return cp, nil
}

func (s *MemStore) Has(contentHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[contentHash]
	return ok, nil
}
