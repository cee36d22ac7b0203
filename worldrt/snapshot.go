package worldrt

import "github.com/luxfi/agentworld/proto"

// Snapshot captures the complete current state, suitable for persistence
// via segment.Snapshot and later restoration via Restore.
func (w *World) Snapshot() Snapshot {
	return Snapshot{
		SnapshotCatalog: w.snapshotCatalog.Clone(),
		Manifest:        w.manifest.Clone(),
		ModuleRegistry:  w.moduleRegistry,
		State:           w.state.Clone(),
		Economy:         w.economy.Clone(),
		Scheduler:       w.scheduler.Clone(),
		JournalLen:      w.journal.Len(),
		NextEventID:     w.nextEventID,
		NextActionID:    w.nextActionID,
		NextIntentID:    w.nextIntentID,
		NextProposalID:  w.nextProposalID,
		PendingActions:  append([]proto.ActionEnvelope(nil), w.pendingActions...),
		PendingEffects:  append([]proto.EffectIntent(nil), w.pendingEffects...),
		InflightEffects: cloneIntents(w.inflightEffects),
		Capabilities:    cloneGrants(w.capabilities),
		Policies:        w.policies,
		Proposals:       cloneProposals(w.proposals),
	}
}

// TakeSnapshot captures Snapshot(), records it in the catalog keyed by its
// content hash, and returns both the snapshot and the record.
func (w *World) TakeSnapshot() (Snapshot, SnapshotRecord, error) {
	snap := w.Snapshot()
	bytes, err := proto.Marshal(snap)
	if err != nil {
		return Snapshot{}, SnapshotRecord{}, proto.WrapError(proto.ErrStructural, "worldrt.TakeSnapshot", "encode snapshot", err)
	}
	manifestHash, err := proto.HashValue(snap.Manifest)
	if err != nil {
		return Snapshot{}, SnapshotRecord{}, proto.WrapError(proto.ErrStructural, "worldrt.TakeSnapshot", "hash manifest", err)
	}
	rec := SnapshotRecord{
		SnapshotHash: proto.ContentHash(bytes),
		JournalLen:   w.journal.Len(),
		CreatedAt:    w.state.Time,
		ManifestHash: manifestHash,
	}
	w.snapshotCatalog.Record(rec)
	snap.SnapshotCatalog = w.snapshotCatalog.Clone()
	return snap, rec, nil
}

// Restore replaces the world's entire state with snap, restoring the
// journal length bookkeeping but not the journal's event contents — those
// are reconstructed by replaying events recorded after the snapshot, per
// spec's replay-equivalence invariant.
func (w *World) Restore(snap Snapshot) {
	w.snapshotCatalog = snap.SnapshotCatalog
	w.manifest = snap.Manifest
	w.moduleRegistry = snap.ModuleRegistry
	w.state = snap.State
	w.economy = snap.Economy
	w.scheduler = snap.Scheduler
	w.nextEventID = snap.NextEventID
	w.nextActionID = snap.NextActionID
	w.nextIntentID = snap.NextIntentID
	w.nextProposalID = snap.NextProposalID
	w.pendingActions = snap.PendingActions
	w.pendingEffects = snap.PendingEffects
	w.inflightEffects = cloneIntents(snap.InflightEffects)
	w.capabilities = cloneGrants(snap.Capabilities)
	w.policies = snap.Policies
	w.proposals = cloneProposals(snap.Proposals)
	w.journal = NewJournal()
}

// Rollback truncates the journal back to the state recorded in rec
// (identified by its JournalLen being <= the current journal length),
// journals a RollbackEvent for the truncation, and returns it.
func (w *World) Rollback(rec SnapshotRecord, reason string) proto.WorldEvent {
	truncated := w.journal.Truncate(rec.JournalLen)

	rb := proto.RollbackEvent{
		ToSnapshotID:   rec.SnapshotHash,
		ToEventID:      lastEventIDOrZero(w.journal),
		TruncatedCount: uint64(truncated),
		Reason:         reason,
	}
	id := w.allocateEventID()
	event := proto.WorldEvent{
		ID: id, At: w.state.Time,
		CausedBy: proto.CausedBy{Kind: proto.CausedByNone},
		Body:     proto.WorldEventBody{Kind: proto.WERollback, Rollback: &rb},
	}
	w.journal.Append(event)
	return event
}

func lastEventIDOrZero(j Journal) proto.WorldEventID {
	if len(j.Events) == 0 {
		return proto.WorldEventID{}
	}
	return j.Events[len(j.Events)-1].ID
}

func cloneIntents(m map[string]proto.EffectIntent) map[string]proto.EffectIntent {
	out := make(map[string]proto.EffectIntent, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneGrants(m map[string]proto.CapabilityGrant) map[string]proto.CapabilityGrant {
	out := make(map[string]proto.CapabilityGrant, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneProposals(m map[string]proto.Proposal) map[string]proto.Proposal {
	out := make(map[string]proto.Proposal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
