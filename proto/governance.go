package proto

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// ProposalStatus is the state machine a Proposal moves through:
// Proposed -> Shadowed -> Approved -> Applied, or -> Rejected from any
// pre-Applied state.
type ProposalStatus string

const (
	ProposalProposed ProposalStatus = "proposed"
	ProposalShadowed ProposalStatus = "shadowed"
	ProposalApproved ProposalStatus = "approved"
	ProposalApplied  ProposalStatus = "applied"
	ProposalRejected ProposalStatus = "rejected"
)

// validTransitions enumerates the only allowed status edges.
var validTransitions = map[ProposalStatus]map[ProposalStatus]bool{
	ProposalProposed: {ProposalShadowed: true, ProposalRejected: true},
	ProposalShadowed: {ProposalApproved: true, ProposalRejected: true},
	ProposalApproved: {ProposalApplied: true, ProposalRejected: true},
}

// CanTransition reports whether moving from -> to is legal.
func CanTransition(from, to ProposalStatus) bool {
	return validTransitions[from][to]
}

// Proposal is a governance-track change to the world manifest.
type Proposal struct {
	ID          ProposalID     `cbor:"id"`
	Author      string         `cbor:"author"`
	Status      ProposalStatus `cbor:"status"`
	Patch       []PatchOp      `cbor:"patch"`
	Approvals   []string       `cbor:"approvals,omitempty"`
	SubmittedAt WorldTime      `cbor:"submitted_at"`
	Certificate *GovernanceFinalityCertificate `cbor:"certificate,omitempty"`
}

// ProposalDecisionKind tags why a proposal status changed.
type ProposalDecisionKind string

const (
	DecisionShadowPassed  ProposalDecisionKind = "shadow_passed"
	DecisionQuorumReached ProposalDecisionKind = "quorum_reached"
	DecisionApplied       ProposalDecisionKind = "applied"
	DecisionRejected      ProposalDecisionKind = "rejected"
)

// ProposalDecision records a single governance state transition for the
// audit log.
type ProposalDecision struct {
	ProposalID ProposalID           `cbor:"proposal_id"`
	Kind       ProposalDecisionKind `cbor:"kind"`
	Notes      string               `cbor:"notes,omitempty"`
}

// GovernanceFinalityCertSigPrefix is the fixed domain-separation string
// every finality certificate signature is computed over, preventing replay
// of signatures across unrelated message types.
const GovernanceFinalityCertSigPrefix = "govfinal:ed25519:v1"

// GovernanceFinalityCertificate attests that at least Threshold validators
// signed off on applying a proposal's manifest patch at a given consensus
// height.
type GovernanceFinalityCertificate struct {
	ProposalID ProposalID `cbor:"proposal_id"`
	PatchHash  string     `cbor:"patch_hash"`
	Height     uint64     `cbor:"height"`
	Threshold  int        `cbor:"threshold"`
	Signers    []string   `cbor:"signers"`    // base58 ed25519 public keys, the same NodeID encoding validators use everywhere
	Signatures []string   `cbor:"signatures"` // hex ed25519 sigs, same order as Signers
}

// GovernanceFinalitySigningPayload returns the exact byte string each signer
// signs: "govfinal:ed25519:v1|<proposal_id>|<patch_hash>|<height>|<threshold>|<signer>".
// Binding the signer's own id into its payload means one validator's
// signature can never be replayed as another's.
func GovernanceFinalitySigningPayload(proposalID ProposalID, patchHash string, height uint64, threshold int, signer string) []byte {
	return []byte(fmt.Sprintf("%s|%d.%d|%s|%d|%d|%s",
		GovernanceFinalityCertSigPrefix, proposalID.Era, proposalID.Value, patchHash, height, threshold, signer))
}

// VerifyGovernanceFinalityCertificate checks that cert is bound to
// proposalID and patchHash and that at least cert.Threshold distinct
// signers produced a valid ed25519 signature over the certificate's
// domain-separated payload. Each signer string is decoded as the
// base58-encoded ed25519 public key that signed it.
func VerifyGovernanceFinalityCertificate(cert GovernanceFinalityCertificate, proposalID ProposalID, patchHash string) error {
	const op = "proto.VerifyGovernanceFinalityCertificate"
	if cert.ProposalID != proposalID {
		return NewError(ErrGovernance, op, "certificate proposal_id mismatch")
	}
	if cert.PatchHash != patchHash {
		return NewError(ErrGovernance, op, "certificate patch_hash mismatch")
	}
	if len(cert.Signers) != len(cert.Signatures) {
		return NewError(ErrGovernance, op, "signer/signature count mismatch")
	}

	valid := 0
	seen := make(map[string]bool, len(cert.Signers))
	for i, signer := range cert.Signers {
		if seen[signer] {
			continue // a duplicate signer never counts twice toward threshold
		}
		pub, err := base58.Decode(signer)
		if err != nil || len(pub) != ed25519.PublicKeySize {
			return NewError(ErrGovernance, op, "invalid signer key: "+signer)
		}
		sig, err := hex.DecodeString(cert.Signatures[i])
		if err != nil {
			return WrapError(ErrGovernance, op, "invalid signature hex for signer "+signer, err)
		}
		payload := GovernanceFinalitySigningPayload(proposalID, patchHash, cert.Height, cert.Threshold, signer)
		if ed25519.Verify(ed25519.PublicKey(pub), payload, sig) {
			seen[signer] = true
			valid++
		}
	}
	if valid < cert.Threshold {
		return NewError(ErrGovernance, op, fmt.Sprintf("insufficient valid signatures: got %d need %d", valid, cert.Threshold))
	}
	return nil
}

// GovernanceEventKind tags the variant of GovernanceEvent.
type GovernanceEventKind string

const (
	GovEventProposed GovernanceEventKind = "proposed"
)

// GovernanceEvent is the audit-log projection emitted whenever a Proposal
// transitions.
type GovernanceEvent struct {
	ProposalID ProposalID     `cbor:"proposal_id"`
	From       ProposalStatus `cbor:"from"`
	To         ProposalStatus `cbor:"to"`
	At         WorldTime      `cbor:"at"`
}

// AgentSchedule is a deferred job queued by an agent (recipe completion,
// factory build, transit arrival) to fire at a future WorldTime.
type AgentSchedule struct {
	JobID   string     `cbor:"job_id"`
	AgentID string     `cbor:"agent_id,omitempty"`
	At      WorldTime  `cbor:"at"`
	Kind    DomainEventKind `cbor:"kind"`
}
