package worldrt

import "github.com/luxfi/agentworld/proto"

// AuditCausedBy narrows a filter to events caused by actions or by effects,
// mirroring proto.CausedByKind but excluding the "none" case since that
// isn't something an operator filters for.
type AuditCausedBy string

const (
	AuditCausedByAction AuditCausedBy = "action"
	AuditCausedByEffect AuditCausedBy = "effect"
)

// AuditFilter narrows World.AuditEvents to a subset of the journal. Every
// field is optional; a zero-value filter matches everything.
type AuditFilter struct {
	Kinds       []proto.WorldEventBodyKind
	FromTime    *proto.WorldTime
	ToTime      *proto.WorldTime
	FromEventID *proto.WorldEventID
	ToEventID   *proto.WorldEventID
	CausedBy    *AuditCausedBy
}

// Matches reports whether event satisfies every constraint set in f.
func (f AuditFilter) Matches(event proto.WorldEvent) bool {
	if f.Kinds != nil && !kindIn(f.Kinds, event.Body.Kind) {
		return false
	}
	if f.FromTime != nil && event.At < *f.FromTime {
		return false
	}
	if f.ToTime != nil && event.At > *f.ToTime {
		return false
	}
	if f.FromEventID != nil && event.ID.Less(*f.FromEventID) {
		return false
	}
	if f.ToEventID != nil && f.ToEventID.Less(event.ID) {
		return false
	}
	if f.CausedBy != nil {
		switch *f.CausedBy {
		case AuditCausedByAction:
			if event.CausedBy.Kind != proto.CausedByAction {
				return false
			}
		case AuditCausedByEffect:
			if event.CausedBy.Kind != proto.CausedByEffect {
				return false
			}
		}
	}
	return true
}

func kindIn(kinds []proto.WorldEventBodyKind, k proto.WorldEventBodyKind) bool {
	for _, candidate := range kinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// AuditEvents returns every journaled event matching filter, in journal
// order.
func (w *World) AuditEvents(filter AuditFilter) []proto.WorldEvent {
	var out []proto.WorldEvent
	for _, event := range w.journal.Events {
		if filter.Matches(event) {
			out = append(out, event)
		}
	}
	return out
}
