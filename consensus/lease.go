package consensus

import (
	"time"

	"github.com/luxfi/agentworld/proto"
)

// Lease grants a validator the exclusive right to propose for a slot range
// until Expiry, preventing two validators from racing to propose the same
// slot after a crash/restart.
type Lease struct {
	NodeID string        `cbor:"node_id"`
	Slot   uint64        `cbor:"slot"`
	Expiry time.Time     `cbor:"expiry"`
}

// LeaseManager tracks the single active lease per slot. It is intentionally
// simple (one map, no background sweeper): expired leases are only
// reclaimed lazily, on the next Acquire/Holder call for that slot.
type LeaseManager struct {
	bySlot map[uint64]Lease
}

// NewLeaseManager returns an empty lease table.
func NewLeaseManager() *LeaseManager {
	return &LeaseManager{bySlot: map[uint64]Lease{}}
}

// Acquire grants nodeID the lease for slot until now+duration, provided no
// other node currently holds an unexpired lease for that slot.
func (m *LeaseManager) Acquire(slot uint64, nodeID string, now time.Time, duration time.Duration) error {
	if existing, ok := m.bySlot[slot]; ok && existing.NodeID != nodeID && now.Before(existing.Expiry) {
		return proto.NewError(proto.ErrConflict, "consensus.LeaseManager.Acquire", "slot already leased")
	}
	m.bySlot[slot] = Lease{NodeID: nodeID, Slot: slot, Expiry: now.Add(duration)}
	return nil
}

// Holder returns the current lease holder for slot, if its lease has not
// expired as of now.
func (m *LeaseManager) Holder(slot uint64, now time.Time) (string, bool) {
	lease, ok := m.bySlot[slot]
	if !ok || !now.Before(lease.Expiry) {
		return "", false
	}
	return lease.NodeID, true
}

// Release drops slot's lease unconditionally, used when a node steps down
// voluntarily (e.g. graceful shutdown).
func (m *LeaseManager) Release(slot uint64) {
	delete(m.bySlot, slot)
}
