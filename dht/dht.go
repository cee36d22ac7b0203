// Package dht provides provider records, world-head announcements, and
// membership directory snapshots, grounded on
// original_source/.../agent_world_consensus/src/dht.rs (DistributedDht
// trait + InMemoryDht) and distributed_index_store.rs. The libp2p-backed
// implementation lives in libp2p.go.
package dht

import "github.com/luxfi/agentworld/proto"

// ProviderRecord advertises that ProviderID holds the blob identified by a
// (world, content hash) key, last confirmed at LastSeenMs.
type ProviderRecord struct {
	ProviderID  string `cbor:"provider_id"`
	LastSeenMs  int64  `cbor:"last_seen_ms"`
}

// MembershipDirectorySnapshot is the last-known validator membership for a
// world, published so new/rejoining nodes can bootstrap without replaying
// the entire governance history.
type MembershipDirectorySnapshot struct {
	WorldID    string   `cbor:"world_id"`
	NodeIDs    []string `cbor:"node_ids"`
	UpdatedAtMs int64   `cbor:"updated_at_ms"`
}

// DHT is the interface nodes use to publish and resolve provider records,
// world heads, and membership directories. InMemoryDHT guards its maps
// with a mutex; Libp2pDHT holds no mutex and keeps no state of its own
// beyond the kad-dht handle.
type DHT interface {
	PublishProvider(worldID, contentHash, providerID string) error
	GetProviders(worldID, contentHash string) ([]ProviderRecord, error)

	PutWorldHead(worldID string, head proto.WorldHeadAnnounce) error
	GetWorldHead(worldID string) (proto.WorldHeadAnnounce, bool, error)

	PutMembershipDirectory(worldID string, snapshot MembershipDirectorySnapshot) error
	GetMembershipDirectory(worldID string) (MembershipDirectorySnapshot, bool, error)
}
