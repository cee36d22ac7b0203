// Package replica implements the head-follower side of replication: a
// replica observes WorldHeadAnnounce gossip, decides whether a candidate
// head should replace what it already knows, and bootstraps a full World
// from the winning head's snapshot manifest and journal segments.
//
// Grounded on original_source/crates/agent_world_net/src/head_tracking.rs
// (HeadTracker/HeadUpdateDecision) and
// original_source/crates/agent_world/src/runtime/distributed_head_follow.rs
// (HeadFollower).
package replica

import (
	"strconv"

	"github.com/luxfi/agentworld/proto"
)

// HeadUpdateDecision is the outcome of evaluating a candidate head against
// the tracker's current one.
type HeadUpdateDecision string

const (
	HeadApply           HeadUpdateDecision = "apply"
	HeadIgnoreDuplicate HeadUpdateDecision = "ignore_duplicate"
	HeadIgnoreStale     HeadUpdateDecision = "ignore_stale"
)

// HeadTracker holds the best WorldHeadAnnounce a replica has applied for a
// single world, and decides whether a newly observed head supersedes it.
type HeadTracker struct {
	worldID string
	current *proto.WorldHeadAnnounce
}

// NewHeadTracker returns a tracker with no head applied yet.
func NewHeadTracker(worldID string) *HeadTracker {
	return &HeadTracker{worldID: worldID}
}

// WorldID returns the world this tracker follows.
func (t *HeadTracker) WorldID() string { return t.worldID }

// CurrentHead returns the last applied head, if any.
func (t *HeadTracker) CurrentHead() (proto.WorldHeadAnnounce, bool) {
	if t.current == nil {
		return proto.WorldHeadAnnounce{}, false
	}
	return *t.current, true
}

// SelectBestHead picks the newest head for this tracker's world among
// candidates, per WorldHeadAnnounce.NewerThan's total order. Candidates for
// other worlds are ignored.
func (t *HeadTracker) SelectBestHead(candidates []proto.WorldHeadAnnounce) (proto.WorldHeadAnnounce, bool) {
	var best proto.WorldHeadAnnounce
	found := false
	for _, head := range candidates {
		if head.WorldID != t.worldID {
			continue
		}
		if !found || head.NewerThan(best) {
			best = head
			found = true
		}
	}
	return best, found
}

// DecideHead classifies head against the tracker's current state without
// mutating it. A head at the same slot as the current one but with a
// different block hash is a fork the tracker cannot silently resolve, and
// is reported as an error rather than an ignore decision.
func (t *HeadTracker) DecideHead(head proto.WorldHeadAnnounce) (HeadUpdateDecision, error) {
	if head.WorldID != t.worldID {
		return "", proto.NewError(proto.ErrStructural, "replica.HeadTracker.DecideHead",
			"head world_id mismatch: expected "+t.worldID+" got "+head.WorldID)
	}
	if t.current == nil {
		return HeadApply, nil
	}
	switch {
	case head.Slot < t.current.Slot:
		return HeadIgnoreStale, nil
	case head.Slot == t.current.Slot:
		if head.BlockHash == t.current.BlockHash {
			return HeadIgnoreDuplicate, nil
		}
		return "", proto.NewError(proto.ErrConflict, "replica.HeadTracker.DecideHead",
			"head conflict at slot "+strconv.FormatUint(head.Slot, 10))
	default:
		return HeadApply, nil
	}
}

// RecordApplied marks head as the tracker's current head. Callers only do
// this after a DecideHead result of HeadApply and a successful bootstrap.
func (t *HeadTracker) RecordApplied(head proto.WorldHeadAnnounce) {
	h := head
	t.current = &h
}
