package worldrt

import (
	"github.com/luxfi/agentworld/logx"
	"github.com/luxfi/agentworld/proto"
)

// World is the main deterministic runtime: it owns world state, the
// economy, the scheduler, the module registry, governance proposals, the
// effect pipeline, and the journal/snapshot machinery built on top of
// them. A single goroutine mutates a given World; see node.Node for the
// tick loop that owns that goroutine.
type World struct {
	log logx.Logger

	manifest       proto.Manifest
	moduleRegistry proto.ModuleRegistry

	state     WorldState
	economy   Economy
	scheduler Scheduler

	snapshotCatalog SnapshotCatalog
	journal         Journal

	nextEventID    proto.WorldEventID
	nextActionID   proto.ActionID
	nextIntentID   proto.IntentID
	nextProposalID proto.ProposalID

	pendingActions    []proto.ActionEnvelope
	pendingEffects    []proto.EffectIntent
	inflightEffects   map[string]proto.EffectIntent
	effectMaxInflight int
	dispatchBlocked   uint64
	receiptSigner     *ReceiptSigner

	capabilities map[string]proto.CapabilityGrant
	policies     proto.PolicySet
	proposals    map[string]proto.Proposal
}

// New returns an empty world with a fresh WorldState, using log for all
// diagnostic output.
func New(log logx.Logger) *World {
	return NewWithState(log, NewWorldState())
}

// NewWithState returns a world seeded with an existing WorldState; New
// calls it with an empty state.
func NewWithState(log logx.Logger, state WorldState) *World {
	if log == nil {
		log = logx.NewNoOp()
	}
	return &World{
		log:             log,
		manifest:        proto.NewManifest(),
		moduleRegistry:  proto.NewModuleRegistry(),
		state:           state,
		economy:         NewEconomy(),
		scheduler:       NewScheduler(),
		snapshotCatalog: NewSnapshotCatalog(DefaultSnapshotRetentionPolicy()),
		journal:         NewJournal(),
		nextEventID:     proto.FirstCounter(),
		nextActionID:    proto.FirstCounter(),
		nextIntentID:    proto.FirstCounter(),
		nextProposalID:  proto.FirstCounter(),
		inflightEffects: map[string]proto.EffectIntent{},
		capabilities:    map[string]proto.CapabilityGrant{},
		policies:        proto.PolicySet{},
		proposals:       map[string]proto.Proposal{},
	}
}

// NewFromSnapshot returns a world restored directly from snap, for
// replicas bootstrapping from a fetched snapshot rather than stepping from
// genesis. Equivalent to New(nil) followed by Restore(snap), so the world
// logs to a no-op logger.
func NewFromSnapshot(snap Snapshot) *World {
	w := New(nil)
	w.Restore(snap)
	return w
}

// --- accessors -------------------------------------------------------

func (w *World) State() WorldState                          { return w.state }
func (w *World) Economy() Economy                           { return w.economy }
func (w *World) Manifest() proto.Manifest                   { return w.manifest }
func (w *World) ModuleRegistry() proto.ModuleRegistry        { return w.moduleRegistry }
func (w *World) Journal() Journal                            { return w.journal }
func (w *World) SnapshotCatalog() SnapshotCatalog            { return w.snapshotCatalog }
func (w *World) Policies() proto.PolicySet                   { return w.policies }
func (w *World) PendingActionsLen() int                      { return len(w.pendingActions) }
func (w *World) PendingEffectsLen() int                      { return len(w.pendingEffects) }
func (w *World) Time() proto.WorldTime                       { return w.state.Time }

// GrantCapability installs or replaces a capability grant by name.
func (w *World) GrantCapability(grant proto.CapabilityGrant) {
	w.capabilities[grant.Name] = grant
}

// SetPolicies replaces the active policy set.
func (w *World) SetPolicies(p proto.PolicySet) { w.policies = p }

// SeedLedger mints amount of resource directly into ledger, outside the
// normal action/transfer pipeline. Reserved for genesis/bootstrap: it is
// the only way mass enters the economy, since every Transfer conserves it.
func (w *World) SeedLedger(ledger proto.MaterialLedgerID, resource string, amount int64) {
	w.economy.Seed(ledger, resource, amount)
}

func (w *World) allocateActionID() proto.ActionID {
	id := w.nextActionID
	w.nextActionID = w.nextActionID.Next()
	return id
}

func (w *World) allocateEventID() proto.WorldEventID {
	id := w.nextEventID
	w.nextEventID = w.nextEventID.Next()
	return id
}

func (w *World) allocateIntentID() proto.IntentID {
	id := w.nextIntentID
	w.nextIntentID = w.nextIntentID.Next()
	return id
}

func (w *World) allocateProposalID() proto.ProposalID {
	id := w.nextProposalID
	w.nextProposalID = w.nextProposalID.Next()
	return id
}
