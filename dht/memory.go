package dht

import (
	"sync"

	"github.com/luxfi/agentworld/proto"
)

type providerKey struct {
	worldID     string
	contentHash string
}

// InMemoryDHT is a single-process DHT backend, used in tests and as the
// default for single-node deployments. It mirrors the Rust original's
// InMemoryDht: providers/heads/memberships maps, all guarded by a single
// mutex. PutWorldHead is last-writer-wins: it replaces any stored head.
type InMemoryDHT struct {
	mu           sync.Mutex
	providers    map[providerKey]map[string]ProviderRecord
	heads        map[string]proto.WorldHeadAnnounce
	memberships  map[string]MembershipDirectorySnapshot
}

// NewInMemoryDHT returns an empty DHT.
func NewInMemoryDHT() *InMemoryDHT {
	return &InMemoryDHT{
		providers:   map[providerKey]map[string]ProviderRecord{},
		heads:       map[string]proto.WorldHeadAnnounce{},
		memberships: map[string]MembershipDirectorySnapshot{},
	}
}

var _ DHT = (*InMemoryDHT)(nil)

func (d *InMemoryDHT) PublishProvider(worldID, contentHash, providerID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := providerKey{worldID, contentHash}
	records, ok := d.providers[key]
	if !ok {
		records = map[string]ProviderRecord{}
		d.providers[key] = records
	}
	records[providerID] = ProviderRecord{ProviderID: providerID}
	return nil
}

func (d *InMemoryDHT) GetProviders(worldID, contentHash string) ([]ProviderRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	records := d.providers[providerKey{worldID, contentHash}]
	out := make([]ProviderRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r)
	}
	return out, nil
}

func (d *InMemoryDHT) PutWorldHead(worldID string, head proto.WorldHeadAnnounce) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.heads[worldID] = head
	return nil
}

func (d *InMemoryDHT) GetWorldHead(worldID string) (proto.WorldHeadAnnounce, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	head, ok := d.heads[worldID]
	return head, ok, nil
}

func (d *InMemoryDHT) PutMembershipDirectory(worldID string, snapshot MembershipDirectorySnapshot) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.memberships[worldID] = snapshot
	return nil
}

func (d *InMemoryDHT) GetMembershipDirectory(worldID string) (MembershipDirectorySnapshot, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap, ok := d.memberships[worldID]
	return snap, ok, nil
}
