// Package node binds consensus, execution, and replication into a single
// tick loop: on its own slots a node batches mempool actions into a
// WorldBlock, proposes and attests it, steps the world, persists and
// announces the result; on other slots it follows gossiped heads via
// replica.HeadFollower. Grounded on the teacher's single-mutator-per-chain
// convention (networking/router) and
// original_source/.../runtime/distributed_bootstrap.rs for cold start.
package node

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/mr-tron/base58"

	"github.com/luxfi/agentworld/proto"
)

// Identity is a node's ed25519 keypair and its base58-encoded NodeID, the
// identifier used everywhere a consensus.Validator.NodeID, WorldBlock
// ProposerID, or log field is needed. Base58 avoids the visually
// ambiguous characters hex shares with file extensions and URLs, matching
// the rest of the ecosystem's node-id convention.
type Identity struct {
	NodeID     string
	PublicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
}

// NewIdentity generates a fresh random ed25519 keypair.
func NewIdentity() (Identity, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Identity{}, proto.WrapError(proto.ErrStructural, "node.NewIdentity", "generate key", err)
	}
	return IdentityFromKey(priv), nil
}

// IdentityFromKey derives an Identity from an existing private key, used
// to restore a node's identity across restarts from persisted key
// material.
func IdentityFromKey(priv ed25519.PrivateKey) Identity {
	pub := priv.Public().(ed25519.PublicKey)
	return Identity{NodeID: NodeIDFromPublicKey(pub), PublicKey: pub, privateKey: priv}
}

// NodeIDFromPublicKey derives the base58-encoded node id from a public key.
func NodeIDFromPublicKey(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}

// Sign signs payload with the identity's private key.
func (id Identity) Sign(payload []byte) []byte {
	return ed25519.Sign(id.privateKey, payload)
}

// Verify reports whether sig is a valid ed25519 signature of payload under
// pub.
func Verify(pub ed25519.PublicKey, payload, sig []byte) bool {
	return ed25519.Verify(pub, payload, sig)
}

// blockSigningPayload returns the fixed byte string a proposer signs over a
// block, domain-separated the same way GovernanceFinalitySigningPayload is,
// so a block signature can never be replayed as a governance signature or
// vice versa.
func blockSigningPayload(block proto.WorldBlock) []byte {
	unsigned := block
	unsigned.SignatureHex = ""
	bytes, err := proto.Marshal(unsigned)
	if err != nil {
		return nil
	}
	return append([]byte("awblock:ed25519:v1|"), bytes...)
}
