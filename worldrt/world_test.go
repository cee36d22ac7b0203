package worldrt

import (
	"crypto/ed25519"
	"fmt"
	"testing"

	"github.com/luxfi/agentworld/logx"
	"github.com/luxfi/agentworld/proto"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndMoveAgent(t *testing.T) {
	w := New(logx.NewNoOp())
	w.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "a1", Pos: proto.GeoPos{X: 1}}, proto.Submitter{Kind: proto.SubmitterSystem})
	events := w.Step()
	require.Len(t, events, 1)
	require.Equal(t, proto.EvAgentRegistered, events[0].Body.Domain.Kind)

	w.SubmitAction(proto.Action{Kind: proto.ActionMoveAgent, AgentID: "a1", To: proto.GeoPos{X: 2}}, proto.Submitter{Kind: proto.SubmitterAgent, AgentID: "a1"})
	events = w.Step()
	require.Len(t, events, 1)
	require.Equal(t, proto.EvAgentMoved, events[0].Body.Domain.Kind)
	require.Equal(t, proto.GeoPos{X: 2}, w.State().Agents["a1"].State.Pos)
}

func TestRegisterDuplicateAgentIsRejected(t *testing.T) {
	w := New(logx.NewNoOp())
	w.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "a1"}, proto.Submitter{})
	w.Step()
	w.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "a1"}, proto.Submitter{})
	events := w.Step()
	require.Equal(t, proto.EvActionRejected, events[0].Body.Domain.Kind)
	require.Equal(t, proto.RejectAgentAlreadyExist, events[0].Body.Domain.Reason.Kind)
}

func TestMoveUnknownAgentIsRejected(t *testing.T) {
	w := New(logx.NewNoOp())
	w.SubmitAction(proto.Action{Kind: proto.ActionMoveAgent, AgentID: "ghost"}, proto.Submitter{})
	events := w.Step()
	require.Equal(t, proto.EvActionRejected, events[0].Body.Domain.Kind)
	require.Equal(t, proto.RejectAgentNotFound, events[0].Body.Domain.Reason.Kind)
}

func TestTransferResourceMovesBalance(t *testing.T) {
	w := New(logx.NewNoOp())
	from := proto.WorldLedger()
	to := proto.AgentLedger("a1")
	w.SeedLedger(from, "ore", 10)
	w.SubmitAction(proto.Action{Kind: proto.ActionTransferResource, FromLedger: from, ToLedger: to, Resource: "ore", Amount: 10}, proto.Submitter{})
	w.Step()
	require.Equal(t, int64(0), w.Economy().Balance(from, "ore"))
	require.Equal(t, int64(10), w.Economy().Balance(to, "ore"))
}

func TestTransferFromWorldWithoutSeedRejected(t *testing.T) {
	w := New(logx.NewNoOp())
	from := proto.WorldLedger()
	to := proto.AgentLedger("a1")
	w.SubmitAction(proto.Action{Kind: proto.ActionTransferResource, FromLedger: from, ToLedger: to, Resource: "ore", Amount: 10}, proto.Submitter{})
	events := w.Step()
	require.Equal(t, proto.EvActionRejected, events[0].Body.Domain.Kind)
	require.Equal(t, proto.RejectInsufficientBal, events[0].Body.Domain.Reason.Kind)
}

func TestTransferInsufficientBalanceRejected(t *testing.T) {
	w := New(logx.NewNoOp())
	from := proto.AgentLedger("a1")
	to := proto.AgentLedger("a2")
	w.SubmitAction(proto.Action{Kind: proto.ActionTransferResource, FromLedger: from, ToLedger: to, Resource: "ore", Amount: 10}, proto.Submitter{})
	events := w.Step()
	require.Equal(t, proto.EvActionRejected, events[0].Body.Domain.Kind)
	require.Equal(t, proto.RejectInsufficientBal, events[0].Body.Domain.Reason.Kind)
}

func TestSnapshotRestoreIsReplayEquivalent(t *testing.T) {
	w := New(logx.NewNoOp())
	w.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "a1", Pos: proto.GeoPos{X: 1}}, proto.Submitter{})
	w.Step()

	snap, _, err := w.TakeSnapshot()
	require.NoError(t, err)

	w2 := New(logx.NewNoOp())
	w2.Restore(snap)
	require.Equal(t, w.State().Agents["a1"].State.Pos, w2.State().Agents["a1"].State.Pos)
	require.Equal(t, w.Economy(), w2.Economy())
}

func TestGovernanceProposalLifecycle(t *testing.T) {
	w := New(logx.NewNoOp())
	patch := []proto.PatchOp{{Op: proto.PatchAdd, Path: "rules.max_speed", Value: "10"}}
	id := w.ProposeManifestChange("alice", patch)

	_, err := w.AdvanceProposal(id, proto.ProposalShadowed)
	require.NoError(t, err)
	_, err = w.AdvanceProposal(id, proto.ProposalApproved)
	require.NoError(t, err)

	cert := signFinalityCertificate(t, id, patch, 1, 1)
	require.NoError(t, w.AttachFinalityCertificate(id, cert))

	_, err = w.AdvanceProposal(id, proto.ProposalApplied)
	require.NoError(t, err)

	require.Equal(t, "10", w.Manifest().Rules["max_speed"])

	_, err = w.AdvanceProposal(id, proto.ProposalShadowed)
	require.Error(t, err)
	require.True(t, proto.IsKind(err, proto.ErrGovernance))
}

func TestGovernanceApplyWithoutCertificateRejected(t *testing.T) {
	w := New(logx.NewNoOp())
	patch := []proto.PatchOp{{Op: proto.PatchAdd, Path: "rules.max_speed", Value: "10"}}
	id := w.ProposeManifestChange("alice", patch)

	_, err := w.AdvanceProposal(id, proto.ProposalShadowed)
	require.NoError(t, err)
	_, err = w.AdvanceProposal(id, proto.ProposalApproved)
	require.NoError(t, err)

	_, err = w.AdvanceProposal(id, proto.ProposalApplied)
	require.Error(t, err)
	require.True(t, proto.IsKind(err, proto.ErrGovernance))

	p, ok := w.Proposal(id)
	require.True(t, ok)
	require.Equal(t, proto.ProposalApproved, p.Status, "a failed apply must leave the proposal untouched")
	require.Empty(t, w.Manifest().Rules["max_speed"])
}

func TestGovernanceApplyWithInsufficientSignaturesRejected(t *testing.T) {
	w := New(logx.NewNoOp())
	patch := []proto.PatchOp{{Op: proto.PatchAdd, Path: "rules.max_speed", Value: "10"}}
	id := w.ProposeManifestChange("alice", patch)
	_, err := w.AdvanceProposal(id, proto.ProposalShadowed)
	require.NoError(t, err)
	_, err = w.AdvanceProposal(id, proto.ProposalApproved)
	require.NoError(t, err)

	cert := signFinalityCertificate(t, id, patch, 1, 2) // threshold 2, only 1 signer
	require.Error(t, w.AttachFinalityCertificate(id, cert))
}

// signFinalityCertificate builds a certificate over patch signed by
// signerCount freshly generated ed25519 keys, for threshold.
func signFinalityCertificate(t *testing.T, id proto.ProposalID, patch []proto.PatchOp, signerCount, threshold int) proto.GovernanceFinalityCertificate {
	t.Helper()
	patchHash, err := proto.HashValue(patch)
	require.NoError(t, err)

	const height = uint64(42)
	cert := proto.GovernanceFinalityCertificate{ProposalID: id, PatchHash: patchHash, Height: height, Threshold: threshold}
	for i := 0; i < signerCount; i++ {
		pub, priv, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		signer := base58.Encode(pub)
		payload := proto.GovernanceFinalitySigningPayload(id, patchHash, height, threshold, signer)
		sig := ed25519.Sign(priv, payload)
		cert.Signers = append(cert.Signers, signer)
		cert.Signatures = append(cert.Signatures, fmt.Sprintf("%x", sig))
	}
	return cert
}

func TestEffectDispatchDeniesWithoutCapability(t *testing.T) {
	w := New(logx.NewNoOp())
	w.SetPolicies(proto.AllowAllPolicy())
	w.RequestEffect("notify.send", nil, "missing-cap", proto.EffectOrigin{Kind: proto.OriginSystem})

	called := false
	events := w.DispatchEffects(func(intent proto.EffectIntent) proto.EffectReceipt {
		called = true
		return proto.EffectReceipt{IntentID: intent.IntentID, Status: "ok"}
	})
	require.False(t, called)
	require.Len(t, events, 1)
	require.Equal(t, proto.PolicyDeny, events[0].Body.Policy.Decision.Kind)
	for _, e := range events {
		require.NotEqual(t, proto.WEEffect, e.Body.Kind, "no EffectQueued should be appended on deny")
	}
}

func TestEffectDispatchAllowsWithCapability(t *testing.T) {
	w := New(logx.NewNoOp())
	w.SetPolicies(proto.AllowAllPolicy())
	w.GrantCapability(proto.AllowAllCapability("notify"))
	w.RequestEffect("notify.send", nil, "notify", proto.EffectOrigin{Kind: proto.OriginSystem})

	events := w.DispatchEffects(func(intent proto.EffectIntent) proto.EffectReceipt {
		return proto.EffectReceipt{IntentID: intent.IntentID, Status: "ok"}
	})
	require.Len(t, events, 3)
	require.Equal(t, proto.WEPolicy, events[0].Body.Kind)
	require.Equal(t, proto.WEEffect, events[1].Body.Kind)
	require.Equal(t, proto.WEReceipt, events[2].Body.Kind)
}

func TestEffectReceiptIsHmacSignedAndVerifiable(t *testing.T) {
	w := New(logx.NewNoOp())
	w.SetPolicies(proto.AllowAllPolicy())
	w.GrantCapability(proto.AllowAllCapability("notify"))
	signer := NewReceiptSigner([]byte("test-secret"))
	w.SetReceiptSigner(signer)
	w.RequestEffect("notify.send", nil, "notify", proto.EffectOrigin{Kind: proto.OriginSystem})

	events := w.DispatchEffects(func(intent proto.EffectIntent) proto.EffectReceipt {
		return proto.EffectReceipt{IntentID: intent.IntentID, Status: "ok"}
	})
	require.Len(t, events, 3)
	receipt := events[2].Body.Receipt
	require.NotNil(t, receipt.Signature)
	require.Equal(t, proto.SigHmacSha256, receipt.Signature.Algorithm)
	require.True(t, signer.Verify(*receipt))
}

func TestIngestReceiptRejectsUnknownIntent(t *testing.T) {
	w := New(logx.NewNoOp())
	_, err := w.IngestReceipt(proto.EffectReceipt{IntentID: proto.IntentID{Era: 0, Value: 999}, Status: "ok"})
	require.Error(t, err)
	require.True(t, proto.IsKind(err, proto.ErrConflict))
}

func TestTakeNextEffectBlocksAtMaxInflight(t *testing.T) {
	w := New(logx.NewNoOp())
	w.SetPolicies(proto.AllowAllPolicy())
	w.GrantCapability(proto.AllowAllCapability("notify"))
	w.SetEffectMaxInflight(1)

	w.RequestEffect("notify.send", nil, "notify", proto.EffectOrigin{Kind: proto.OriginSystem})
	w.RequestEffect("notify.send", nil, "notify", proto.EffectOrigin{Kind: proto.OriginSystem})

	_, _, ok := w.TakeNextEffect()
	require.True(t, ok)

	_, events, ok := w.TakeNextEffect()
	require.False(t, ok)
	require.Nil(t, events)
	require.Equal(t, uint64(1), w.DispatchBlocked())
	require.Equal(t, 1, w.PendingEffectsLen(), "the blocked intent must remain queued, not dropped")
}

func TestAuditEventsFiltersByKind(t *testing.T) {
	w := New(logx.NewNoOp())
	w.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "a1"}, proto.Submitter{})
	w.Step()
	w.SetPolicies(proto.AllowAllPolicy())
	w.GrantCapability(proto.AllowAllCapability("x"))
	w.RequestEffect("x.y", nil, "x", proto.EffectOrigin{Kind: proto.OriginSystem})
	w.DispatchEffects(func(i proto.EffectIntent) proto.EffectReceipt { return proto.EffectReceipt{IntentID: i.IntentID, Status: "ok"} })

	domainOnly := w.AuditEvents(AuditFilter{Kinds: []proto.WorldEventBodyKind{proto.WEDomain}})
	require.Len(t, domainOnly, 1)
}
