package wasmhost

import "github.com/luxfi/agentworld/proto"

// BuiltinFunc is one builtin module's logic: a pure function from a call
// request to its output. Builtin modules have no bytecode and so cannot
// trap on resource limits; FixedSandbox still enforces MaxMemoryBytes
// against the returned state size and MaxInstructions against the number
// of effects and emits returned (see Call).
type BuiltinFunc func(req ModuleCallRequest) ModuleOutput

// FixedSandbox is a deterministic, dependency-free executor for builtin
// modules, registered by ModuleID. It backs every test; the builtins in
// this file are AllowReducer, DenyReducer and ModifyReducer. It stands in
// for the Rust original's
// agent_world_builtin_wasm_runtime crate without requiring real bytecode.
type FixedSandbox struct {
	funcs map[string]BuiltinFunc
}

// NewFixedSandbox returns a sandbox with no builtins registered.
func NewFixedSandbox() *FixedSandbox {
	return &FixedSandbox{funcs: map[string]BuiltinFunc{}}
}

var _ Sandbox = (*FixedSandbox)(nil)

// Register binds fn as the implementation of moduleID, replacing any
// previous binding.
func (s *FixedSandbox) Register(moduleID string, fn BuiltinFunc) {
	s.funcs[moduleID] = fn
}

// Call dispatches to the registered builtin, enforcing MaxMemoryBytes
// against the returned new-state size and MaxInstructions as a crude proxy
// for the number of effects/emits one invocation may produce (builtins
// have no bytecode to meter instruction-for-instruction).
func (s *FixedSandbox) Call(req ModuleCallRequest, limits proto.ModuleLimits) (ModuleOutput, error) {
	fn, ok := s.funcs[req.ModuleID]
	if !ok {
		return ModuleOutput{}, &ModuleCallFailure{ModuleID: req.ModuleID, Reason: "no builtin registered"}
	}
	out := fn(req)
	if limits.MaxMemoryBytes > 0 && uint64(len(out.NewState)) > limits.MaxMemoryBytes {
		return ModuleOutput{}, &ModuleCallFailure{ModuleID: req.ModuleID, Reason: "state exceeds max_memory_bytes"}
	}
	if limits.MaxInstructions > 0 && uint64(len(out.Effects)+len(out.Emits)) > limits.MaxInstructions {
		return ModuleOutput{}, &ModuleCallFailure{ModuleID: req.ModuleID, Reason: "exceeded max_instructions"}
	}
	return out, nil
}

// AllowReducer is the simplest possible builtin: it allows every action
// unconditionally and carries no state, used to exercise the module
// pipeline in tests without encoding real gameplay rules.
func AllowReducer(req ModuleCallRequest) ModuleOutput {
	return ModuleOutput{Decision: proto.RuleDecision{Kind: proto.RuleAllow}}
}

// DenyReducer denies every action with reason, used to test the veto path.
func DenyReducer(reason string) BuiltinFunc {
	return func(req ModuleCallRequest) ModuleOutput {
		return ModuleOutput{Decision: proto.RuleDecision{Kind: proto.RuleDeny, DenyReason: reason}}
	}
}

// ModifyReducer replaces every action it observes with override, used to
// test the amendment path.
func ModifyReducer(override proto.Action) BuiltinFunc {
	return func(req ModuleCallRequest) ModuleOutput {
		return ModuleOutput{Decision: proto.RuleDecision{Kind: proto.RuleModify, OverrideAction: &override}}
	}
}
