package worldrt

import "github.com/luxfi/agentworld/proto"

// Step advances world time by one tick, applies every pending action in
// submission order, and fires every scheduler job that came due.
// StepWithModules does the same with module rule evaluation in between.
func (w *World) Step() []proto.WorldEvent {
	w.state.Time++
	var emitted []proto.WorldEvent

	pending := w.pendingActions
	w.pendingActions = nil
	for _, envelope := range pending {
		domain := w.actionToEvent(envelope)
		w.applyDomainEffects(envelope.Action, domain)
		event := w.appendEvent(domain, proto.CausedBy{Kind: proto.CausedByAction, ActionID: envelope.ID})
		emitted = append(emitted, event)
	}

	for _, job := range w.scheduler.DueJobs(w.state.Time) {
		domain := proto.DomainEvent{Kind: job.Kind, JobID: job.JobID, AgentID: job.AgentID}
		event := w.appendEvent(domain, proto.CausedBy{Kind: proto.CausedByNone})
		emitted = append(emitted, event)
	}

	return emitted
}

// StepWithModules advances one tick like Step, but additionally routes
// each pending action and the resulting event through host, which may
// veto or amend the action via its returned RuleDecision before the event
// is journaled. A Deny decision converts the action into an
// action_rejected event instead of its natural outcome.
func (w *World) StepWithModules(host ModuleHost) ([]proto.WorldEvent, error) {
	w.state.Time++
	var emitted []proto.WorldEvent

	pending := w.pendingActions
	w.pendingActions = nil
	for _, envelope := range pending {
		decision, err := host.EvaluateAction(w, envelope)
		if err != nil {
			return emitted, err
		}
		var domain proto.DomainEvent
		switch decision.Kind {
		case proto.RuleDeny:
			domain = rejected(proto.RejectRuleDenied, envelope.Action.AgentID)
		case proto.RuleModify:
			if decision.OverrideAction != nil {
				envelope.Action = *decision.OverrideAction
			}
			domain = w.actionToEvent(envelope)
			w.applyDomainEffects(envelope.Action, domain)
		default:
			domain = w.actionToEvent(envelope)
			w.applyDomainEffects(envelope.Action, domain)
		}
		event := w.appendEvent(domain, proto.CausedBy{Kind: proto.CausedByAction, ActionID: envelope.ID})
		emitted = append(emitted, event)
		if err := host.ObserveEvent(w, event); err != nil {
			return emitted, err
		}
	}

	for _, job := range w.scheduler.DueJobs(w.state.Time) {
		domain := proto.DomainEvent{Kind: job.Kind, JobID: job.JobID, AgentID: job.AgentID}
		event := w.appendEvent(domain, proto.CausedBy{Kind: proto.CausedByNone})
		emitted = append(emitted, event)
		if err := host.ObserveEvent(w, event); err != nil {
			return emitted, err
		}
	}

	return emitted, nil
}

// ModuleHost is the narrow interface World needs from wasmhost to route
// actions/events through registered rule modules, kept here (rather than
// importing wasmhost) so worldrt has no dependency on the sandbox
// implementation.
type ModuleHost interface {
	EvaluateAction(w *World, envelope proto.ActionEnvelope) (proto.RuleDecision, error)
	ObserveEvent(w *World, event proto.WorldEvent) error
}
