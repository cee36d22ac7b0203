package worldrt

import "github.com/luxfi/agentworld/proto"

// ProposeManifestChange opens a new Proposal in the Proposed state and
// returns its id.
func (w *World) ProposeManifestChange(author string, patch []proto.PatchOp) proto.ProposalID {
	id := w.allocateProposalID()
	w.proposals[proposalKey(id)] = proto.Proposal{
		ID: id, Author: author, Status: proto.ProposalProposed, Patch: patch, SubmittedAt: w.state.Time,
	}
	return id
}

// AttachFinalityCertificate binds a GovernanceFinalityCertificate to a
// proposal ahead of an Applied transition. The certificate's patch_hash
// must match the hash of the proposal's own patch, and its signatures must
// verify against its claimed signers before it is accepted; AdvanceProposal
// refuses to apply without one attached this way.
func (w *World) AttachFinalityCertificate(id proto.ProposalID, cert proto.GovernanceFinalityCertificate) error {
	key := proposalKey(id)
	p, ok := w.proposals[key]
	if !ok {
		return proto.NewError(proto.ErrNotFound, "worldrt.AttachFinalityCertificate", "no such proposal")
	}
	patchHash, err := proto.HashValue(p.Patch)
	if err != nil {
		return proto.WrapError(proto.ErrGovernance, "worldrt.AttachFinalityCertificate", "hash patch", err)
	}
	if err := proto.VerifyGovernanceFinalityCertificate(cert, id, patchHash); err != nil {
		return err
	}
	p.Certificate = &cert
	w.proposals[key] = p
	return nil
}

// AdvanceProposal moves a proposal to a new status, enforcing the legal
// transition graph. It journals a GovernanceEvent on success. A transition
// to Applied additionally requires a finality certificate already attached
// via AttachFinalityCertificate; the certificate is re-verified and the
// manifest patch is computed before anything is mutated, so a failure here
// leaves the proposal completely untouched.
func (w *World) AdvanceProposal(id proto.ProposalID, to proto.ProposalStatus) (proto.WorldEvent, error) {
	key := proposalKey(id)
	p, ok := w.proposals[key]
	if !ok {
		return proto.WorldEvent{}, proto.NewError(proto.ErrNotFound, "worldrt.AdvanceProposal", "no such proposal")
	}
	if !proto.CanTransition(p.Status, to) {
		return proto.WorldEvent{}, proto.NewError(proto.ErrGovernance, "worldrt.AdvanceProposal",
			"illegal transition "+string(p.Status)+" -> "+string(to))
	}

	var merged proto.Manifest
	if to == proto.ProposalApplied {
		if p.Certificate == nil {
			return proto.WorldEvent{}, proto.NewError(proto.ErrGovernance, "worldrt.AdvanceProposal",
				"cannot apply without a finality certificate")
		}
		patchHash, err := proto.HashValue(p.Patch)
		if err != nil {
			return proto.WorldEvent{}, proto.WrapError(proto.ErrGovernance, "worldrt.AdvanceProposal", "hash patch", err)
		}
		if err := proto.VerifyGovernanceFinalityCertificate(*p.Certificate, id, patchHash); err != nil {
			return proto.WorldEvent{}, err
		}
		merged, err = proto.ApplyManifestPatch(w.manifest, p.Patch)
		if err != nil {
			return proto.WorldEvent{}, proto.WrapError(proto.ErrGovernance, "worldrt.AdvanceProposal", "apply manifest patch", err)
		}
	}

	from := p.Status
	p.Status = to
	w.proposals[key] = p

	govEvent := proto.GovernanceEvent{ProposalID: id, From: from, To: to, At: w.state.Time}
	eid := w.allocateEventID()
	event := proto.WorldEvent{
		ID: eid, At: w.state.Time,
		CausedBy: proto.CausedBy{Kind: proto.CausedByNone},
		Body:     proto.WorldEventBody{Kind: proto.WEGovernance, Governance: &govEvent},
	}
	w.journal.Append(event)

	if to == proto.ProposalApplied {
		w.manifest = merged
	}
	return event, nil
}

// Approve records approver's vote on a shadowed proposal. It does not by
// itself transition status; callers (typically consensus) decide when
// quorum has been reached and call AdvanceProposal(id, Approved).
func (w *World) Approve(id proto.ProposalID, approver string) error {
	key := proposalKey(id)
	p, ok := w.proposals[key]
	if !ok {
		return proto.NewError(proto.ErrNotFound, "worldrt.Approve", "no such proposal")
	}
	for _, a := range p.Approvals {
		if a == approver {
			return nil
		}
	}
	p.Approvals = append(p.Approvals, approver)
	w.proposals[key] = p
	return nil
}

// Proposal returns the proposal with id, if any.
func (w *World) Proposal(id proto.ProposalID) (proto.Proposal, bool) {
	p, ok := w.proposals[proposalKey(id)]
	return p, ok
}

// ApplyModuleChangeSet atomically activates, deactivates, and upgrades
// modules in the registry, journaling one ModuleEvent per change. Intended
// to be called only as the effect of an Applied governance proposal.
func (w *World) ApplyModuleChangeSet(changes proto.ModuleChangeSet) []proto.WorldEvent {
	var emitted []proto.WorldEvent
	for _, manifest := range changes.Activate {
		w.moduleRegistry.Modules[manifest.ModuleID] = proto.ModuleRecord{Manifest: manifest, Active: true, Version: 1}
		emitted = append(emitted, w.journalModuleEvent(proto.ModuleEventActivated, &proto.ModuleActivation{ModuleID: manifest.ModuleID, Version: 1}, nil, nil))
	}
	for _, id := range changes.Deactivate {
		if rec, ok := w.moduleRegistry.Modules[id]; ok {
			rec.Active = false
			w.moduleRegistry.Modules[id] = rec
		}
		emitted = append(emitted, w.journalModuleEvent(proto.ModuleEventDeactivated, nil, &proto.ModuleDeactivation{ModuleID: id}, nil))
	}
	for _, up := range changes.Upgrade {
		if rec, ok := w.moduleRegistry.Modules[up.ModuleID]; ok {
			rec.Version = up.ToVersion
			rec.Manifest.ArtifactHash = up.NewArtifactHash
			w.moduleRegistry.Modules[up.ModuleID] = rec
		}
		emitted = append(emitted, w.journalModuleEvent(proto.ModuleEventUpgraded, nil, nil, &up))
	}
	return emitted
}

func (w *World) journalModuleEvent(kind proto.ModuleEventKind, act *proto.ModuleActivation, deact *proto.ModuleDeactivation, up *proto.ModuleUpgrade) proto.WorldEvent {
	me := proto.ModuleEvent{Kind: kind, Activation: act, Deactivation: deact, Upgrade: up, At: w.state.Time}
	id := w.allocateEventID()
	event := proto.WorldEvent{
		ID: id, At: w.state.Time,
		CausedBy: proto.CausedBy{Kind: proto.CausedByNone},
		Body:     proto.WorldEventBody{Kind: proto.WEModule, Module: &me},
	}
	w.journal.Append(event)
	return event
}

func proposalKey(id proto.ProposalID) string {
	b, _ := proto.Marshal(id)
	return string(b)
}
