package replica

import (
	"github.com/luxfi/agentworld/blobstore"
	"github.com/luxfi/agentworld/proto"
)

// BlockResultSource resolves the ExecutionWriteResult a proposer published
// for a given world/slot, the source of a head's snapshot manifest and
// journal segment list.
type BlockResultSource func(worldID string, slot uint64) (proto.ExecutionWriteResult, error)

// HeadFollower combines a HeadTracker with the fetch/verify/reconstruct
// bootstrap flow: every observed head is classified, and an Apply decision
// triggers a full world rebuild. Grounded on
// original_source/crates/agent_world/src/runtime/distributed_head_follow.rs.
type HeadFollower struct {
	tracker     *HeadTracker
	blockSource BlockResultSource
	fetch       BlobFetcher
	store       blobstore.Store
}

// NewHeadFollower returns a follower for worldID. blockSource resolves a
// head to its published execution result; fetch resolves any blob content
// hash not already present in store.
func NewHeadFollower(worldID string, blockSource BlockResultSource, fetch BlobFetcher, store blobstore.Store) *HeadFollower {
	return &HeadFollower{
		tracker:     NewHeadTracker(worldID),
		blockSource: blockSource,
		fetch:       fetch,
		store:       store,
	}
}

// WorldID returns the world this follower tracks.
func (f *HeadFollower) WorldID() string { return f.tracker.WorldID() }

// CurrentHead returns the last applied head, if any.
func (f *HeadFollower) CurrentHead() (proto.WorldHeadAnnounce, bool) { return f.tracker.CurrentHead() }

// ApplyHead classifies head and, if it supersedes the current one,
// bootstraps and returns the rebuilt world. A nil result with a nil error
// means head was a duplicate or stale and nothing changed.
func (f *HeadFollower) ApplyHead(head proto.WorldHeadAnnounce) (*BootstrapResult, error) {
	decision, err := f.tracker.DecideHead(head)
	if err != nil {
		return nil, err
	}
	if decision != HeadApply {
		return nil, nil
	}
	result, err := f.blockSource(head.WorldID, head.Slot)
	if err != nil {
		return nil, proto.WrapError(proto.ErrNetworking, "replica.HeadFollower.ApplyHead", "fetch block result", err)
	}
	boot, err := BootstrapWorldFromHead(head, result, f.fetch, f.store)
	if err != nil {
		return nil, err
	}
	f.tracker.RecordApplied(head)
	return &boot, nil
}

// SyncFromHeads selects the best candidate head for this follower's world
// and applies it, returning nil, nil if no candidate targets this world or
// the best one was already applied.
func (f *HeadFollower) SyncFromHeads(candidates []proto.WorldHeadAnnounce) (*BootstrapResult, error) {
	best, ok := f.tracker.SelectBestHead(candidates)
	if !ok {
		return nil, nil
	}
	return f.ApplyHead(best)
}
