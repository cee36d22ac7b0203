// Package blobstore implements content-addressed storage for the blobs a
// world produces: WASM module artifacts, snapshot chunks, and journal
// segments. Every blob is keyed by the lowercase-hex BLAKE3 digest of its
// own bytes, so a store never needs to trust its caller's hash claim more
// than it can verify.
package blobstore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/luxfi/agentworld/proto"
)

const blobsDir = "blobs"

// Store is the content-addressed interface every persistence backend
// implements.
type Store interface {
	Put(contentHash string, bytes []byte) error
	Get(contentHash string) ([]byte, error)
	Has(contentHash string) (bool, error)
	// PutBytes hashes bytes itself and stores them, returning the digest.
	PutBytes(bytes []byte) (string, error)
}

// LocalCasStore is a filesystem-backed content-addressed store using
// atomic tmp-then-rename writes so a crash mid-write never leaves a
// corrupt blob visible under its final name.
type LocalCasStore struct {
	root     string
	blobsDir string
}

// NewLocalCasStore returns a store rooted at dir. The directory tree is
// created lazily on first write.
func NewLocalCasStore(dir string) *LocalCasStore {
	return &LocalCasStore{root: dir, blobsDir: filepath.Join(dir, blobsDir)}
}

// Root returns the store's root directory.
func (s *LocalCasStore) Root() string { return s.root }

func (s *LocalCasStore) ensureDirs() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return proto.WrapError(proto.ErrJournal, "blobstore.ensureDirs", "create root", err)
	}
	if err := os.MkdirAll(s.blobsDir, 0o755); err != nil {
		return proto.WrapError(proto.ErrJournal, "blobstore.ensureDirs", "create blobs dir", err)
	}
	return nil
}

func (s *LocalCasStore) blobPath(contentHash string) (string, error) {
	if err := validateHash(contentHash); err != nil {
		return "", err
	}
	return filepath.Join(s.blobsDir, contentHash+".blob"), nil
}

// Put stores bytes under contentHash, verifying the claimed hash matches
// the actual BLAKE3 digest of bytes before writing anything. Put is
// idempotent: if the blob already exists, it returns nil without
// rewriting it.
func (s *LocalCasStore) Put(contentHash string, bytes []byte) error {
	if err := s.ensureDirs(); err != nil {
		return err
	}
	actual := proto.ContentHash(bytes)
	if actual != contentHash {
		return proto.NewError(proto.ErrStructural, "blobstore.Put",
			"hash mismatch: expected "+contentHash+" got "+actual)
	}
	path, err := s.blobPath(contentHash)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	compressed, err := compressBlob(bytes)
	if err != nil {
		return proto.WrapError(proto.ErrJournal, "blobstore.Put", "compress blob", err)
	}
	return writeAtomic(path, compressed)
}

// PutBytes hashes bytes and stores them under the resulting digest.
func (s *LocalCasStore) PutBytes(bytes []byte) (string, error) {
	hash := proto.ContentHash(bytes)
	if err := s.Put(hash, bytes); err != nil {
		return "", err
	}
	return hash, nil
}

// Get returns the bytes stored under contentHash, or a not_found
// WorldError if no such blob exists.
func (s *LocalCasStore) Get(contentHash string) ([]byte, error) {
	path, err := s.blobPath(contentHash)
	if err != nil {
		return nil, err
	}
	compressed, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, proto.NewError(proto.ErrNotFound, "blobstore.Get", "blob not found: "+contentHash)
		}
		return nil, proto.WrapError(proto.ErrJournal, "blobstore.Get", "read blob", err)
	}
	bytes, err := decompressBlob(compressed)
	if err != nil {
		return nil, proto.WrapError(proto.ErrJournal, "blobstore.Get", "decompress blob", err)
	}
	return bytes, nil
}

// Has reports whether contentHash is present, without reading its bytes.
func (s *LocalCasStore) Has(contentHash string) (bool, error) {
	path, err := s.blobPath(contentHash)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, proto.WrapError(proto.ErrJournal, "blobstore.Has", "stat blob", err)
	}
	return true, nil
}

func validateHash(contentHash string) error {
	if contentHash == "" || strings.ContainsAny(contentHash, `/\`) || strings.Contains(contentHash, "..") {
		return proto.NewError(proto.ErrStructural, "blobstore.validateHash", "invalid content hash: "+contentHash)
	}
	return nil
}

// compressBlob zstd-compresses bytes before they hit disk. The content hash
// is always computed over the logical (uncompressed) bytes, so compression
// is purely an on-disk encoding detail invisible to every caller.
func compressBlob(bytes []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(bytes, nil), nil
}

func decompressBlob(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(compressed, nil)
}

func writeAtomic(path string, bytes []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return proto.WrapError(proto.ErrJournal, "blobstore.writeAtomic", "write temp file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return proto.WrapError(proto.ErrJournal, "blobstore.writeAtomic", "rename temp file", err)
	}
	return nil
}
