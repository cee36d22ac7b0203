package proto

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// CodecVersion tags the wire encoding in persisted artifacts, following the
// teacher's versioned-codec convention so future format changes can be
// rejected instead of silently misparsed.
type CodecVersion uint16

// CurrentVersion is the only version this module emits or accepts.
const CurrentVersion CodecVersion = 1

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeUnix
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("proto: canonical cbor enc mode: %v", err))
	}
	encMode = mode

	dopts := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}
	dmode, err := dopts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("proto: cbor dec mode: %v", err))
	}
	decMode = dmode
}

// Marshal encodes v as canonical CBOR: map keys sorted by the length-first
// byte-string order, shortest-form integers, no indefinite-length items.
// This is the sole encoding used for hashing and persistence so that two
// semantically equal values always produce identical bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes canonical (or any valid) CBOR into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// ContentHash returns the lowercase-hex BLAKE3 digest of bytes.
func ContentHash(bytes []byte) string {
	sum := blake3.Sum256(bytes)
	return fmt.Sprintf("%x", sum[:])
}

// HashValue canonical-CBOR-encodes v and returns its BLAKE3 hex digest. Used
// for state_root, block_hash, manifest_hash and friends.
func HashValue(v any) (string, error) {
	bytes, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return ContentHash(bytes), nil
}
