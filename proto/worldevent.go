package proto

// WorldEventBodyKind tags the variant carried by a WorldEvent.
type WorldEventBodyKind string

const (
	WEDomain     WorldEventBodyKind = "domain"
	WEPolicy     WorldEventBodyKind = "policy"
	WEGovernance WorldEventBodyKind = "governance"
	WEModule     WorldEventBodyKind = "module"
	WEEffect     WorldEventBodyKind = "effect"
	WEReceipt    WorldEventBodyKind = "receipt"
	WERollback   WorldEventBodyKind = "rollback"
)

// WorldEventBody is the tagged union of everything the journal can record.
// Exactly one field is populated, selected by Kind.
type WorldEventBody struct {
	Kind WorldEventBodyKind `cbor:"kind"`

	Domain     *DomainEvent          `cbor:"domain,omitempty"`
	Policy     *PolicyDecisionRecord `cbor:"policy,omitempty"`
	Governance *GovernanceEvent      `cbor:"governance,omitempty"`
	Module     *ModuleEvent          `cbor:"module,omitempty"`
	Effect     *EffectQueued         `cbor:"effect,omitempty"`
	Receipt    *EffectReceipt        `cbor:"receipt,omitempty"`
	Rollback   *RollbackEvent        `cbor:"rollback,omitempty"`
}

// WorldEvent is the single append-only journal record type: every mutation
// the world runtime makes is captured as exactly one WorldEvent.
type WorldEvent struct {
	ID       WorldEventID `cbor:"id"`
	At       WorldTime    `cbor:"at"`
	Body     WorldEventBody `cbor:"body"`
	CausedBy CausedBy     `cbor:"caused_by"`
}

// RollbackEvent records a journal truncation back to a prior snapshot,
// itself journaled so replay can distinguish "never happened" from
// "happened then was rolled back".
type RollbackEvent struct {
	ToSnapshotID   string       `cbor:"to_snapshot_id"`
	ToEventID      WorldEventID `cbor:"to_event_id"`
	TruncatedCount uint64       `cbor:"truncated_count"`
	Reason         string       `cbor:"reason,omitempty"`
}

// EventID satisfies segment.EventEntry so journals of WorldEvent can be
// segmented without that package depending on worldrt.
func (e WorldEvent) EventID() WorldEventID { return e.ID }

// DomainWorldEvent wraps a DomainEvent as a WorldEvent body, the common case.
func DomainWorldEvent(id WorldEventID, at WorldTime, caused CausedBy, ev DomainEvent) WorldEvent {
	return WorldEvent{ID: id, At: at, CausedBy: caused, Body: WorldEventBody{Kind: WEDomain, Domain: &ev}}
}
