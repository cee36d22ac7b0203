package consensus

import "github.com/luxfi/agentworld/proto"

// BlockProposalStatus tracks a proposed WorldBlock through attestation.
type BlockProposalStatus string

const (
	BlockProposed  BlockProposalStatus = "proposed"
	BlockAttested  BlockProposalStatus = "attested"
	BlockCommitted BlockProposalStatus = "committed"
	BlockRejected  BlockProposalStatus = "rejected"
)

// BlockProposal is a WorldBlock awaiting attestation from the validator set.
type BlockProposal struct {
	Block     proto.WorldBlock    `cbor:"block"`
	Status    BlockProposalStatus `cbor:"status"`
	Attestors []string            `cbor:"attestors,omitempty"`
}

// Engine drives one world's consensus: it tracks the current validator set,
// in-flight block proposals keyed by slot, and the quorum fraction. A
// single goroutine (node.Node's tick loop) is expected to own an Engine.
type Engine struct {
	validators ValidatorSet
	quorumNum  uint64
	quorumDen  uint64
	proposals  map[uint64]BlockProposal
	leases     *LeaseManager
}

// NewEngine builds an Engine over the given initial validator set and
// quorum fraction (e.g. 2, 3 for two-thirds).
func NewEngine(validators ValidatorSet, quorumNum, quorumDen uint64) *Engine {
	return &Engine{
		validators: validators,
		quorumNum:  quorumNum,
		quorumDen:  quorumDen,
		proposals:  map[uint64]BlockProposal{},
		leases:     NewLeaseManager(),
	}
}

// Validators returns the engine's current validator set.
func (e *Engine) Validators() ValidatorSet { return e.validators }

// Leases returns the lease manager backing proposer-slot grants.
func (e *Engine) Leases() *LeaseManager { return e.leases }

// ProposerFor reports the validator entitled to propose a block for slot.
func (e *Engine) ProposerFor(slot uint64) (string, bool) {
	return ProposerForSlot(e.validators, slot)
}

// Propose records block as a new proposal at its slot, replacing any
// earlier (non-committed) proposal for the same slot. It rejects proposals
// from a node that is not the slot's proposer.
func (e *Engine) Propose(block proto.WorldBlock) error {
	proposer, ok := e.ProposerFor(block.Slot)
	if !ok || proposer != block.ProposerID {
		return proto.NewError(proto.ErrPolicy, "consensus.Propose", "not the slot's proposer")
	}
	if existing, ok := e.proposals[block.Slot]; ok && existing.Status == BlockCommitted {
		return proto.NewError(proto.ErrConflict, "consensus.Propose", "slot already committed")
	}
	e.proposals[block.Slot] = BlockProposal{Block: block, Status: BlockProposed}
	return nil
}

// Attest records nodeID's attestation for slot's current proposal. Once
// attestors reach quorum, the proposal's status becomes Attested; the
// caller (node.Node) is responsible for calling Commit once it has
// finalized execution of the block.
func (e *Engine) Attest(slot uint64, nodeID string) (BlockProposalStatus, error) {
	prop, ok := e.proposals[slot]
	if !ok {
		return "", proto.NewError(proto.ErrNotFound, "consensus.Attest", "no proposal for slot")
	}
	if !e.validators.Has(nodeID) {
		return "", proto.NewError(proto.ErrPolicy, "consensus.Attest", "attestor is not a validator")
	}
	if prop.Status == BlockCommitted {
		// A proposal already committed must never be downgraded back to
		// Attested by a late attestor; quorum only ever moves forward.
		return prop.Status, nil
	}
	for _, a := range prop.Attestors {
		if a == nodeID {
			return prop.Status, nil
		}
	}
	prop.Attestors = append(prop.Attestors, nodeID)
	if HasQuorum(e.validators, prop.Attestors, e.quorumNum, e.quorumDen) {
		prop.Status = BlockAttested
	}
	e.proposals[slot] = prop
	return prop.Status, nil
}

// Commit marks slot's proposal Committed. It fails if the proposal has not
// reached Attested status.
func (e *Engine) Commit(slot uint64) error {
	prop, ok := e.proposals[slot]
	if !ok {
		return proto.NewError(proto.ErrNotFound, "consensus.Commit", "no proposal for slot")
	}
	if prop.Status != BlockAttested {
		return proto.NewError(proto.ErrGovernance, "consensus.Commit", "proposal has not reached quorum")
	}
	prop.Status = BlockCommitted
	e.proposals[slot] = prop
	return nil
}

// Reject marks slot's proposal Rejected, e.g. after a failed execution or
// a conflicting proposal winning quorum first.
func (e *Engine) Reject(slot uint64) {
	if prop, ok := e.proposals[slot]; ok {
		prop.Status = BlockRejected
		e.proposals[slot] = prop
	}
}

// Proposal returns the current proposal for slot, if any.
func (e *Engine) Proposal(slot uint64) (BlockProposal, bool) {
	p, ok := e.proposals[slot]
	return p, ok
}

// ApplyMembershipChanges mutates the engine's live validator set, used when
// a governance proposal applying membership changes commits.
func (e *Engine) ApplyMembershipChanges(changes []MembershipChange) {
	e.validators = ApplyMembershipChanges(e.validators, changes)
}
