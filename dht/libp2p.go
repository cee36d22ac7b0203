package dht

import (
	"context"

	kaddht "github.com/libp2p/go-libp2p-kad-dht"

	"github.com/luxfi/agentworld/proto"
)

// recordKind namespaces Kademlia keys so providers, heads, and membership
// snapshots never collide in the same DHT.
type recordKind string

const (
	kindProvider   recordKind = "aw/provider/"
	kindHead       recordKind = "aw/head/"
	kindMembership recordKind = "aw/membership/"
)

// Libp2pDHT is the real Kademlia-backed implementation: every PUT/GET goes
// through the libp2p kad-dht's content-routing value store, keyed by the
// namespaced strings above. Grounded on the pack's AKJUS-bsc-erigon/prysm
// manifests, which both vendor go-libp2p-kad-dht for exactly this kind of
// key/value record propagation.
type Libp2pDHT struct {
	kad *kaddht.IpfsDHT
}

// NewLibp2pDHT wraps an already-bootstrapped Kademlia DHT instance.
func NewLibp2pDHT(kad *kaddht.IpfsDHT) *Libp2pDHT {
	return &Libp2pDHT{kad: kad}
}

var _ DHT = (*Libp2pDHT)(nil)

func (d *Libp2pDHT) PublishProvider(worldID, contentHash, providerID string) error {
	key := string(kindProvider) + worldID + "/" + contentHash + "/" + providerID
	rec := ProviderRecord{ProviderID: providerID}
	bytes, err := proto.Marshal(rec)
	if err != nil {
		return proto.WrapError(proto.ErrStructural, "dht.Libp2pDHT.PublishProvider", "encode record", err)
	}
	if err := d.kad.PutValue(context.Background(), key, bytes); err != nil {
		return proto.WrapError(proto.ErrNetworking, "dht.Libp2pDHT.PublishProvider", "put value", err)
	}
	return nil
}

func (d *Libp2pDHT) GetProviders(worldID, contentHash string) ([]ProviderRecord, error) {
	// The kad-dht value store holds one value per key, and PublishProvider
	// writes each provider under its own namespaced key. Enumerating the
	// providers of a (worldID, contentHash) pair is not implemented: this
	// method always returns a networking error and no records.
	return nil, proto.NewError(proto.ErrNetworking, "dht.Libp2pDHT.GetProviders",
		"multi-provider enumeration requires FindProvidersAsync, not yet wired")
}

func (d *Libp2pDHT) PutWorldHead(worldID string, head proto.WorldHeadAnnounce) error {
	key := string(kindHead) + worldID
	bytes, err := proto.Marshal(head)
	if err != nil {
		return proto.WrapError(proto.ErrStructural, "dht.Libp2pDHT.PutWorldHead", "encode head", err)
	}
	if err := d.kad.PutValue(context.Background(), key, bytes); err != nil {
		return proto.WrapError(proto.ErrNetworking, "dht.Libp2pDHT.PutWorldHead", "put value", err)
	}
	return nil
}

func (d *Libp2pDHT) GetWorldHead(worldID string) (proto.WorldHeadAnnounce, bool, error) {
	key := string(kindHead) + worldID
	bytes, err := d.kad.GetValue(context.Background(), key)
	if err != nil {
		return proto.WorldHeadAnnounce{}, false, nil
	}
	var head proto.WorldHeadAnnounce
	if err := proto.Unmarshal(bytes, &head); err != nil {
		return proto.WorldHeadAnnounce{}, false, proto.WrapError(proto.ErrStructural, "dht.Libp2pDHT.GetWorldHead", "decode head", err)
	}
	return head, true, nil
}

func (d *Libp2pDHT) PutMembershipDirectory(worldID string, snapshot MembershipDirectorySnapshot) error {
	key := string(kindMembership) + worldID
	bytes, err := proto.Marshal(snapshot)
	if err != nil {
		return proto.WrapError(proto.ErrStructural, "dht.Libp2pDHT.PutMembershipDirectory", "encode snapshot", err)
	}
	if err := d.kad.PutValue(context.Background(), key, bytes); err != nil {
		return proto.WrapError(proto.ErrNetworking, "dht.Libp2pDHT.PutMembershipDirectory", "put value", err)
	}
	return nil
}

func (d *Libp2pDHT) GetMembershipDirectory(worldID string) (MembershipDirectorySnapshot, bool, error) {
	key := string(kindMembership) + worldID
	bytes, err := d.kad.GetValue(context.Background(), key)
	if err != nil {
		return MembershipDirectorySnapshot{}, false, nil
	}
	var snap MembershipDirectorySnapshot
	if err := proto.Unmarshal(bytes, &snap); err != nil {
		return MembershipDirectorySnapshot{}, false, proto.WrapError(proto.ErrStructural, "dht.Libp2pDHT.GetMembershipDirectory", "decode snapshot", err)
	}
	return snap, true, nil
}
