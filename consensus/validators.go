// Package consensus implements the PoS engine: validator stake tracking,
// supermajority quorum, proposer selection, lease management, and
// membership changes, mirrored on the teacher's validators package idiom
// (validators.Set/Manager) but keyed to world proposals instead of chains.
package consensus

import (
	"sort"

	"github.com/luxfi/agentworld/proto"
)

// Validator is one staking participant.
type Validator struct {
	NodeID string `cbor:"node_id"`
	Stake  uint64 `cbor:"stake"`
}

// ValidatorSet is an immutable-by-convention snapshot of stake weights,
// following the teacher's validators.Set contract (Has/Len/List/Weight).
type ValidatorSet struct {
	byID map[string]uint64
}

// NewValidatorSet builds a set from validators, summing duplicate entries.
func NewValidatorSet(vs []Validator) ValidatorSet {
	m := make(map[string]uint64, len(vs))
	for _, v := range vs {
		m[v.NodeID] += v.Stake
	}
	return ValidatorSet{byID: m}
}

func (s ValidatorSet) Has(nodeID string) bool { _, ok := s.byID[nodeID]; return ok }
func (s ValidatorSet) Len() int                { return len(s.byID) }

func (s ValidatorSet) Stake(nodeID string) uint64 { return s.byID[nodeID] }

// TotalStake sums every validator's stake.
func (s ValidatorSet) TotalStake() uint64 {
	var total uint64
	for _, w := range s.byID {
		total += w
	}
	return total
}

// List returns validators sorted by NodeID, for deterministic iteration.
func (s ValidatorSet) List() []Validator {
	out := make([]Validator, 0, len(s.byID))
	for id, w := range s.byID {
		out = append(out, Validator{NodeID: id, Stake: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}

// MembershipChangeKind tags the variant of MembershipChange.
type MembershipChangeKind string

const (
	MembershipAdd    MembershipChangeKind = "add"
	MembershipRemove MembershipChangeKind = "remove"
	MembershipReweigh MembershipChangeKind = "reweigh"
)

// MembershipChange is a single validator-set mutation, applied atomically
// by ApplyMembershipChanges.
type MembershipChange struct {
	Kind   MembershipChangeKind `cbor:"kind"`
	NodeID string               `cbor:"node_id"`
	Stake  uint64               `cbor:"stake,omitempty"`
}

// ApplyMembershipChanges returns a new ValidatorSet with changes applied in
// order; it never mutates s.
func ApplyMembershipChanges(s ValidatorSet, changes []MembershipChange) ValidatorSet {
	next := make(map[string]uint64, len(s.byID))
	for id, w := range s.byID {
		next[id] = w
	}
	for _, c := range changes {
		switch c.Kind {
		case MembershipAdd, MembershipReweigh:
			next[c.NodeID] = c.Stake
		case MembershipRemove:
			delete(next, c.NodeID)
		}
	}
	return ValidatorSet{byID: next}
}

// Quorum computes ceil(total * numerator / denominator), the minimum stake
// required for a supermajority, matching config.Parameters.QuorumNumerator/
// Denominator (e.g. 2/3).
func Quorum(total, numerator, denominator uint64) uint64 {
	if denominator == 0 {
		return total
	}
	num := total * numerator
	q := num / denominator
	if num%denominator != 0 {
		q++
	}
	return q
}

// HasQuorum reports whether the stake backing approvers meets quorum over
// set's total stake.
func HasQuorum(set ValidatorSet, approvers []string, numerator, denominator uint64) bool {
	var sum uint64
	seen := make(map[string]bool, len(approvers))
	for _, id := range approvers {
		if seen[id] {
			continue
		}
		seen[id] = true
		sum += set.Stake(id)
	}
	return sum >= Quorum(set.TotalStake(), numerator, denominator)
}

// ProposerForSlot selects the proposer for slot deterministically: it
// hashes the slot number, takes the first 8 bytes as a big-endian uint64,
// and reduces it modulo total stake to pick a validator by cumulative
// stake ranges over the sorted validator list (so the same slot always
// picks the same proposer given the same ValidatorSet).
func ProposerForSlot(set ValidatorSet, slot uint64) (string, bool) {
	total := set.TotalStake()
	if total == 0 {
		return "", false
	}
	digest := proto.ContentHash(slotBytes(slot))
	point := hexPrefixToUint64(digest) % total

	var cursor uint64
	for _, v := range set.List() {
		cursor += v.Stake
		if point < cursor {
			return v.NodeID, true
		}
	}
	return "", false
}

func slotBytes(slot uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(slot >> (8 * uint(7-i)))
	}
	return b
}

// hexPrefixToUint64 folds the first 16 hex characters (8 bytes) of a
// content-hash digest into a uint64, used only for proposer selection's
// modular reduction.
func hexPrefixToUint64(hexDigest string) uint64 {
	const want = 16
	if len(hexDigest) > want {
		hexDigest = hexDigest[:want]
	}
	var out uint64
	for _, c := range hexDigest {
		out <<= 4
		switch {
		case c >= '0' && c <= '9':
			out |= uint64(c - '0')
		case c >= 'a' && c <= 'f':
			out |= uint64(c-'a') + 10
		}
	}
	return out
}
