package replica

import (
	"github.com/luxfi/agentworld/blobstore"
	"github.com/luxfi/agentworld/proto"
	"github.com/luxfi/agentworld/segment"
	"github.com/luxfi/agentworld/worldrt"
)

// BlobFetcher resolves a content hash to its bytes, typically a peer
// request (netx.Libp2pNetwork.RequestPeer) or a DHT provider lookup followed by
// one. It is the Go analogue of the Rust original's `FnMut(&str) -> Result`
// fetch closures threaded through load_manifest_and_segments.
type BlobFetcher func(contentHash string) ([]byte, error)

// BootstrapResult is everything recovered while reconstructing a world from
// a head: the live World plus the journal segment refs the replica now
// holds locally, so a caller can serve them to other replicas in turn.
type BootstrapResult struct {
	World           *worldrt.World
	Manifest        proto.SnapshotManifest
	JournalSegments []proto.JournalSegmentRef
}

// BootstrapWorldFromHead reconstructs a full World from head, using result
// (the ExecutionWriteResult the proposer published for head's slot) to
// learn the snapshot manifest and journal segment list, fetching every
// referenced blob via fetch, verifying each against its claimed content
// hash, storing it in store, and finally reassembling and restoring the
// snapshot. Grounded on
// original_source/crates/agent_world_net/src/replay_flow.rs
// (load_manifest_and_segments) and
// original_source/crates/agent_world/src/runtime/distributed_observer_replay.rs.
func BootstrapWorldFromHead(head proto.WorldHeadAnnounce, result proto.ExecutionWriteResult, fetch BlobFetcher, store blobstore.Store) (BootstrapResult, error) {
	if result.Block.WorldID != head.WorldID || result.Block.Slot != head.Slot {
		return BootstrapResult{}, proto.NewError(proto.ErrStructural, "replica.BootstrapWorldFromHead",
			"execution result does not match head world/slot")
	}

	manifest := result.SnapshotManifest
	for _, chunk := range manifest.Chunks {
		if err := fetchVerifyStore(chunk.ContentHash, fetch, store); err != nil {
			return BootstrapResult{}, proto.WrapError(proto.ErrStructural, "replica.BootstrapWorldFromHead", "fetch snapshot chunk "+chunk.ChunkID, err)
		}
	}
	segments := result.JournalSegments
	for _, seg := range segments {
		if err := fetchVerifyStore(seg.ContentHash, fetch, store); err != nil {
			return BootstrapResult{}, proto.WrapError(proto.ErrStructural, "replica.BootstrapWorldFromHead", "fetch journal segment "+seg.ContentHash, err)
		}
	}

	snapshotBytes, err := segment.ReassembleSnapshot(manifest, store)
	if err != nil {
		return BootstrapResult{}, proto.WrapError(proto.ErrStructural, "replica.BootstrapWorldFromHead", "reassemble snapshot", err)
	}

	var snap worldrt.Snapshot
	if err := proto.Unmarshal(snapshotBytes, &snap); err != nil {
		return BootstrapResult{}, proto.WrapError(proto.ErrStructural, "replica.BootstrapWorldFromHead", "decode snapshot", err)
	}

	world := worldrt.NewFromSnapshot(snap)
	return BootstrapResult{World: world, Manifest: manifest, JournalSegments: segments}, nil
}

func fetchVerifyStore(contentHash string, fetch BlobFetcher, store blobstore.Store) error {
	if has, err := store.Has(contentHash); err == nil && has {
		return nil
	}
	bytes, err := fetch(contentHash)
	if err != nil {
		return proto.WrapError(proto.ErrNetworking, "replica.fetchVerifyStore", "fetch blob", err)
	}
	actual := proto.ContentHash(bytes)
	if actual != contentHash {
		return proto.NewError(proto.ErrStructural, "replica.fetchVerifyStore",
			"blob hash mismatch: expected="+contentHash+" actual="+actual)
	}
	return store.Put(contentHash, bytes)
}
