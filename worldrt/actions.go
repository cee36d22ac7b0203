package worldrt

import "github.com/luxfi/agentworld/proto"

// SubmitAction enqueues action for application on the next Step call and
// returns the ActionID it was allocated.
func (w *World) SubmitAction(action proto.Action, submitter proto.Submitter) proto.ActionID {
	id := w.allocateActionID()
	w.pendingActions = append(w.pendingActions, proto.ActionEnvelope{ID: id, Action: action, Submitter: submitter})
	return id
}

// actionToEvent is a pure function of current state + action: it never
// mutates world state itself, only decides which DomainEvent (success or
// action_rejected) the action produces.
func (w *World) actionToEvent(envelope proto.ActionEnvelope) proto.DomainEvent {
	action := envelope.Action
	switch action.Kind {
	case proto.ActionRegisterAgent:
		if _, exists := w.state.Agents[action.AgentID]; exists {
			return rejected(proto.RejectAgentAlreadyExist, action.AgentID)
		}
		return proto.DomainEvent{Kind: proto.EvAgentRegistered, AgentID: action.AgentID, To: action.Pos}

	case proto.ActionMoveAgent:
		cell, exists := w.state.Agents[action.AgentID]
		if !exists {
			return rejected(proto.RejectAgentNotFound, action.AgentID)
		}
		return proto.DomainEvent{Kind: proto.EvAgentMoved, AgentID: action.AgentID, From: cell.State.Pos, To: action.To}

	case proto.ActionTransferResource:
		if action.Amount <= 0 {
			return rejected(proto.RejectInvalidAmount, "")
		}
		if w.economy.Balance(action.FromLedger, action.Resource) < action.Amount {
			return rejected(proto.RejectInsufficientBal, "")
		}
		return proto.DomainEvent{
			Kind: proto.EvResourceTransferred, FromLedger: action.FromLedger, ToLedger: action.ToLedger,
			Resource: action.Resource, Amount: action.Amount,
		}

	case proto.ActionFactoryBuild:
		return proto.DomainEvent{Kind: proto.EvFactoryBuildQueued, JobID: action.JobID}

	case proto.ActionScheduleRecipe:
		return proto.DomainEvent{Kind: proto.EvRecipeCompleted, JobID: action.JobID}

	default:
		return rejected(proto.RejectRuleDenied, "")
	}
}

func rejected(kind proto.RejectReasonKind, agentID string) proto.DomainEvent {
	return proto.DomainEvent{Kind: proto.EvActionRejected, Reason: proto.RejectReason{Kind: kind, AgentID: agentID}}
}

// applyDomainEffects folds a successfully produced DomainEvent's
// side effects into Economy/Scheduler that WorldState.ApplyDomainEvent
// does not itself own, because those subsystems are independent of the
// agent table.
func (w *World) applyDomainEffects(action proto.Action, event proto.DomainEvent) {
	switch event.Kind {
	case proto.EvResourceTransferred:
		w.economy.Transfer(event.FromLedger, event.ToLedger, event.Resource, event.Amount)
	case proto.EvFactoryBuildQueued:
		w.scheduler.Schedule(ScheduledJob{
			JobID: action.JobID, FactoryID: action.FactoryID, ReadyAt: action.ReadyAt,
			Priority: action.Priority, Kind: proto.EvTransitArrived,
		})
	case proto.EvRecipeCompleted:
		w.scheduler.Schedule(ScheduledJob{
			JobID: action.JobID, RecipeID: action.RecipeID, ReadyAt: action.ReadyAt,
			Priority: action.Priority, Kind: proto.EvRecipeCompleted,
		})
	}
}

// appendEvent allocates the next event id, folds the event into state
// (economy and scheduler changes are made by applyDomainEffects), routes it to its addressed agent's mailbox, and appends the
// resulting WorldEvent to the journal.
func (w *World) appendEvent(domain proto.DomainEvent, caused proto.CausedBy) proto.WorldEvent {
	id := w.allocateEventID()
	w.state.ApplyDomainEvent(domain, w.state.Time)
	w.state.RouteDomainEvent(domain)
	event := proto.DomainWorldEvent(id, w.state.Time, caused, domain)
	w.journal.Append(event)
	return event
}
