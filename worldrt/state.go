// Package worldrt implements the deterministic world runtime: the
// action -> rule evaluation -> domain event -> journal pipeline, plus
// snapshot/rollback, governance, effects/capabilities, policy, and the
// economy/scheduling layer built on top of it.
package worldrt

import (
	"github.com/luxfi/agentworld/proto"
)

// AgentCell is one agent's mutable state plus its inbox of domain events
// not yet delivered to the agent's own observation loop.
type AgentCell struct {
	State      AgentState        `cbor:"state"`
	LastActive proto.WorldTime   `cbor:"last_active"`
	Mailbox    []proto.DomainEvent `cbor:"mailbox,omitempty"`
}

// NewAgentCell wraps state, stamping the creation time as its last-active
// time.
func NewAgentCell(state AgentState, now proto.WorldTime) AgentCell {
	return AgentCell{State: state, LastActive: now}
}

// AgentState is the durable per-agent record: identity and position. The
// economy layer keys material ledgers separately by MaterialLedgerID so
// this stays small and cheap to clone.
type AgentState struct {
	AgentID string       `cbor:"agent_id"`
	Pos     proto.GeoPos `cbor:"pos"`
}

// NewAgentState constructs an agent at pos.
func NewAgentState(agentID string, pos proto.GeoPos) AgentState {
	return AgentState{AgentID: agentID, Pos: pos}
}

// WorldState is the mutable, snapshot-able core of a world: wall time and
// the agent table. Everything else (ledgers, schedules, module registry,
// proposals) lives alongside it in World so each concern can evolve
// independently without WorldState growing unbounded.
type WorldState struct {
	Time   proto.WorldTime         `cbor:"time"`
	Agents map[string]AgentCell    `cbor:"agents"`
}

// NewWorldState returns an empty state at time zero.
func NewWorldState() WorldState {
	return WorldState{Agents: map[string]AgentCell{}}
}

// ApplyDomainEvent folds a single DomainEvent into state. It is the only
// function that mutates agent records from event replay, so replay and
// live execution always go through the same code path.
func (s *WorldState) ApplyDomainEvent(event proto.DomainEvent, now proto.WorldTime) {
	switch event.Kind {
	case proto.EvAgentRegistered:
		s.Agents[event.AgentID] = NewAgentCell(NewAgentState(event.AgentID, event.To), now)
	case proto.EvAgentMoved:
		if cell, ok := s.Agents[event.AgentID]; ok {
			cell.State.Pos = event.To
			cell.LastActive = now
			s.Agents[event.AgentID] = cell
		}
	default:
		// resource_transferred, recipe_completed, factory_build_queued,
		// transit_arrived, and action_rejected do not mutate agent
		// records directly; they are handled by the economy/scheduling
		// layer and by RouteDomainEvent below.
	}
}

// RouteDomainEvent appends event to its addressed agent's mailbox, if any.
func (s *WorldState) RouteDomainEvent(event proto.DomainEvent) {
	agentID := event.AgentIDOf()
	if agentID == "" {
		return
	}
	if cell, ok := s.Agents[agentID]; ok {
		cell.Mailbox = append(cell.Mailbox, event)
		s.Agents[agentID] = cell
	}
}

// Clone deep-copies state; World.Snapshot uses it so a snapshot does not
// share agent records or mailboxes with the live world.
func (s WorldState) Clone() WorldState {
	out := WorldState{Time: s.Time, Agents: make(map[string]AgentCell, len(s.Agents))}
	for id, cell := range s.Agents {
		mailbox := append([]proto.DomainEvent(nil), cell.Mailbox...)
		out.Agents[id] = AgentCell{State: cell.State, LastActive: cell.LastActive, Mailbox: mailbox}
	}
	return out
}
