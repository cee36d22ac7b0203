package wasmhost

import (
	"sort"

	"github.com/luxfi/agentworld/proto"
	"github.com/luxfi/agentworld/worldrt"
)

// Host routes worldrt action/event callbacks through every active reducer
// module, merges their decisions via proto.MergeRuleDecisions, and tracks
// each module's last persisted state. It implements worldrt.ModuleHost.
type Host struct {
	sandboxes map[proto.ModuleKind]Sandbox
	state     map[string][]byte // moduleID -> last NewState
}

// NewHost builds a Host dispatching ModuleKindBuiltin calls to builtin and
// ModuleKindWasm calls to wasmSandbox. Either may be nil if a world never
// registers modules of that kind.
func NewHost(builtin Sandbox, wasmSandbox Sandbox) *Host {
	return &Host{
		sandboxes: map[proto.ModuleKind]Sandbox{
			proto.ModuleKindBuiltin: builtin,
			proto.ModuleKindWasm:    wasmSandbox,
		},
		state: map[string][]byte{},
	}
}

var _ worldrt.ModuleHost = (*Host)(nil)

// EvaluateAction calls every active reducer module subscribed (implicitly,
// reducers see every action) and merges their RuleDecisions.
func (h *Host) EvaluateAction(w *worldrt.World, envelope proto.ActionEnvelope) (proto.RuleDecision, error) {
	registry := w.ModuleRegistry()
	var decisions []proto.RuleDecision
	for _, id := range sortedActiveReducers(registry) {
		rec := registry.Modules[id]
		if rec.Manifest.Role == proto.ModuleRoleObserver {
			continue
		}
		sandbox := h.sandboxes[rec.Manifest.Kind]
		if sandbox == nil {
			continue
		}
		out, err := sandbox.Call(ModuleCallRequest{ModuleID: id, State: h.state[id], Action: &envelope}, rec.Manifest.Limits)
		if err != nil {
			if _, ok := err.(*ModuleCallFailure); ok {
				decisions = append(decisions, proto.RuleDecision{Kind: proto.RuleDeny, DenyReason: "module_trapped:" + id})
				continue
			}
			return proto.RuleDecision{}, err
		}
		if out.NewState != nil {
			h.state[id] = out.NewState
		}
		decisions = append(decisions, out.Decision)
	}
	return proto.MergeRuleDecisions(decisions), nil
}

// ObserveEvent delivers event to every active module whose subscription
// includes the event's domain kind (reducers and observers alike); their
// returned decisions are discarded (observation cannot veto a past event)
// but their state and effects are still applied.
func (h *Host) ObserveEvent(w *worldrt.World, event proto.WorldEvent) error {
	if event.Body.Kind != proto.WEDomain || event.Body.Domain == nil {
		return nil
	}
	registry := w.ModuleRegistry()
	for _, id := range sortedActiveReducers(registry) {
		rec := registry.Modules[id]
		if !subscribed(rec.Manifest.Subscription, event.Body.Domain.Kind) {
			continue
		}
		sandbox := h.sandboxes[rec.Manifest.Kind]
		if sandbox == nil {
			continue
		}
		out, err := sandbox.Call(ModuleCallRequest{ModuleID: id, State: h.state[id], Event: &event}, rec.Manifest.Limits)
		if err != nil {
			if _, ok := err.(*ModuleCallFailure); ok {
				continue
			}
			return err
		}
		if out.NewState != nil {
			h.state[id] = out.NewState
		}
		for _, effect := range out.Effects {
			w.RequestEffect(effect.Kind, effect.Params, effect.CapRef, proto.EffectOrigin{Kind: proto.OriginReducer, Name: id})
		}
	}
	return nil
}

func subscribed(sub proto.ModuleSubscription, kind proto.DomainEventKind) bool {
	if len(sub.EventKinds) == 0 {
		return true
	}
	for _, k := range sub.EventKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func sortedActiveReducers(registry proto.ModuleRegistry) []string {
	ids := make([]string, 0, len(registry.Modules))
	for id, rec := range registry.Modules {
		if rec.Active {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
