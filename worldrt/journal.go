package worldrt

import "github.com/luxfi/agentworld/proto"

// Journal holds every WorldEvent appended since the last snapshot.
type Journal struct {
	Events []proto.WorldEvent `cbor:"events"`
}

// NewJournal returns an empty journal.
func NewJournal() Journal { return Journal{} }

// Append adds event to the journal.
func (j *Journal) Append(event proto.WorldEvent) { j.Events = append(j.Events, event) }

// Len returns the number of events since the last snapshot.
func (j Journal) Len() int { return len(j.Events) }

// Clone deep-copies the journal.
func (j Journal) Clone() Journal {
	return Journal{Events: append([]proto.WorldEvent(nil), j.Events...)}
}

// Truncate drops events after index keepUpTo (exclusive), returning how
// many events were discarded. Used by rollback.
func (j *Journal) Truncate(keepUpTo int) int {
	if keepUpTo >= len(j.Events) {
		return 0
	}
	if keepUpTo < 0 {
		keepUpTo = 0
	}
	discarded := len(j.Events) - keepUpTo
	j.Events = j.Events[:keepUpTo]
	return discarded
}

// SnapshotRetentionPolicy bounds how many snapshots a catalog keeps.
type SnapshotRetentionPolicy struct {
	MaxSnapshots int `cbor:"max_snapshots"`
}

// DefaultSnapshotRetentionPolicy mirrors the reference implementation's
// default of 10 retained snapshots.
func DefaultSnapshotRetentionPolicy() SnapshotRetentionPolicy {
	return SnapshotRetentionPolicy{MaxSnapshots: 10}
}

// SnapshotRecord is the catalog entry for one saved snapshot.
type SnapshotRecord struct {
	SnapshotHash string          `cbor:"snapshot_hash"`
	JournalLen   int             `cbor:"journal_len"`
	CreatedAt    proto.WorldTime `cbor:"created_at"`
	ManifestHash string          `cbor:"manifest_hash"`
}

// SnapshotCatalog is the append-and-prune history of every snapshot taken.
type SnapshotCatalog struct {
	Records   []SnapshotRecord        `cbor:"records"`
	Retention SnapshotRetentionPolicy  `cbor:"retention"`
}

// NewSnapshotCatalog returns an empty catalog with the given retention.
func NewSnapshotCatalog(retention SnapshotRetentionPolicy) SnapshotCatalog {
	return SnapshotCatalog{Retention: retention}
}

// Clone deep-copies the catalog.
func (c SnapshotCatalog) Clone() SnapshotCatalog {
	return SnapshotCatalog{Records: append([]SnapshotRecord(nil), c.Records...), Retention: c.Retention}
}

// Record appends a new snapshot record, then prunes the oldest entries
// beyond Retention.MaxSnapshots.
func (c *SnapshotCatalog) Record(rec SnapshotRecord) {
	c.Records = append(c.Records, rec)
	max := c.Retention.MaxSnapshots
	if max > 0 && len(c.Records) > max {
		c.Records = c.Records[len(c.Records)-max:]
	}
}

// Latest returns the most recently recorded snapshot, if any.
func (c SnapshotCatalog) Latest() (SnapshotRecord, bool) {
	if len(c.Records) == 0 {
		return SnapshotRecord{}, false
	}
	return c.Records[len(c.Records)-1], true
}

// Snapshot is the complete, independently restorable state of a world at a
// point in time: everything World needs to resume execution.
type Snapshot struct {
	SnapshotCatalog SnapshotCatalog               `cbor:"snapshot_catalog"`
	Manifest        proto.Manifest                `cbor:"manifest"`
	ModuleRegistry  proto.ModuleRegistry           `cbor:"module_registry"`
	State           WorldState                    `cbor:"state"`
	Economy         Economy                       `cbor:"economy"`
	Scheduler       Scheduler                     `cbor:"scheduler"`
	JournalLen      int                           `cbor:"journal_len"`
	NextEventID     proto.WorldEventID            `cbor:"next_event_id"`
	NextActionID    proto.ActionID                `cbor:"next_action_id"`
	NextIntentID    proto.IntentID                `cbor:"next_intent_id"`
	NextProposalID  proto.ProposalID              `cbor:"next_proposal_id"`
	PendingActions  []proto.ActionEnvelope        `cbor:"pending_actions"`
	PendingEffects  []proto.EffectIntent          `cbor:"pending_effects"`
	InflightEffects map[string]proto.EffectIntent    `cbor:"inflight_effects"`
	Capabilities    map[string]proto.CapabilityGrant `cbor:"capabilities"`
	Policies        proto.PolicySet                  `cbor:"policies"`
	Proposals       map[string]proto.Proposal        `cbor:"proposals"`
}
