// Package wasmhost implements the sandboxed module execution layer: rule
// modules are called on every action/event and return a RuleDecision plus
// optional state/effect/emit output, metered against proto.ModuleLimits.
// Grounded on original_source/.../runtime/world/rules.rs (rule decision
// recording) and agent_world_builtin_wasm_runtime/src/memory_module.rs
// (the ModuleCallInput/ModuleOutput shape every module implements).
package wasmhost

import "github.com/luxfi/agentworld/proto"

// ModuleCallRequest is everything a module invocation needs: the prior
// module state (nil on first call), and either the action being evaluated
// or the event being observed, never both.
type ModuleCallRequest struct {
	ModuleID string
	State    []byte
	Action   *proto.ActionEnvelope
	Event    *proto.WorldEvent
}

// ModuleEffectIntent is an effect a module wants dispatched, expressed the
// same shape RequestEffect takes so the host can forward it directly.
type ModuleEffectIntent struct {
	Kind   string
	Params []byte
	CapRef string
}

// ModuleEmit is an observation or message a module wants delivered to an
// agent's mailbox outside the normal domain-event routing.
type ModuleEmit struct {
	AgentID string
	Kind    string
	Payload []byte
}

// ModuleOutput is a module's complete response to one call.
type ModuleOutput struct {
	Decision  proto.RuleDecision
	NewState  []byte
	Effects   []ModuleEffectIntent
	Emits     []ModuleEmit
}

// ModuleCallFailure reports why a module invocation was aborted before
// producing a ModuleOutput: a resource-limit trap, not an application
// error (an application-level refusal is expressed as an Allow-absent
// RuleDecision instead).
type ModuleCallFailure struct {
	ModuleID string
	Reason   string
}

func (f *ModuleCallFailure) Error() string {
	return "module " + f.ModuleID + " trapped: " + f.Reason
}

// Sandbox executes one module call under resource limits. FixedSandbox
// implements this without any real bytecode (used for builtin modules and
// every test); WazeroSandbox implements it by running a compiled .wasm
// artifact under github.com/tetratelabs/wazero.
type Sandbox interface {
	Call(req ModuleCallRequest, limits proto.ModuleLimits) (ModuleOutput, error)
}
