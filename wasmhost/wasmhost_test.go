package wasmhost

import (
	"testing"

	"github.com/luxfi/agentworld/logx"
	"github.com/luxfi/agentworld/proto"
	"github.com/luxfi/agentworld/worldrt"
	"github.com/stretchr/testify/require"
)

func registerBuiltin(w *worldrt.World, id string, limits proto.ModuleLimits) {
	w.ApplyModuleChangeSet(proto.ModuleChangeSet{
		Activate: []proto.ModuleManifest{
			{ModuleID: id, Kind: proto.ModuleKindBuiltin, Role: proto.ModuleRoleReducer, Limits: limits},
		},
	})
}

func TestFixedSandboxCallDispatchesByModuleID(t *testing.T) {
	sb := NewFixedSandbox()
	sb.Register("allow", AllowReducer)
	sb.Register("deny", DenyReducer("no"))

	out, err := sb.Call(ModuleCallRequest{ModuleID: "allow"}, proto.DefaultModuleLimits())
	require.NoError(t, err)
	require.Equal(t, proto.RuleAllow, out.Decision.Kind)

	out, err = sb.Call(ModuleCallRequest{ModuleID: "deny"}, proto.DefaultModuleLimits())
	require.NoError(t, err)
	require.Equal(t, proto.RuleDeny, out.Decision.Kind)
}

func TestFixedSandboxEnforcesMemoryLimit(t *testing.T) {
	sb := NewFixedSandbox()
	sb.Register("bloated", func(req ModuleCallRequest) ModuleOutput {
		return ModuleOutput{Decision: proto.RuleDecision{Kind: proto.RuleAllow}, NewState: make([]byte, 1024)}
	})
	_, err := sb.Call(ModuleCallRequest{ModuleID: "bloated"}, proto.ModuleLimits{MaxMemoryBytes: 10})
	require.Error(t, err)
}

func TestHostEvaluateActionMergesDecisions(t *testing.T) {
	w := worldrt.New(logx.NewNoOp())
	registerBuiltin(w, "allow-mod", proto.DefaultModuleLimits())

	sb := NewFixedSandbox()
	sb.Register("allow-mod", AllowReducer)
	host := NewHost(sb, nil)

	w.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "a1"}, proto.Submitter{})
	events, err := w.StepWithModules(host)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, proto.EvAgentRegistered, events[0].Body.Domain.Kind)
}

func TestHostEvaluateActionHonorsModuleModify(t *testing.T) {
	w := worldrt.New(logx.NewNoOp())
	registerBuiltin(w, "modify-mod", proto.DefaultModuleLimits())

	override := proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "overridden"}
	sb := NewFixedSandbox()
	sb.Register("modify-mod", ModifyReducer(override))
	host := NewHost(sb, nil)

	w.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "original"}, proto.Submitter{})
	events, err := w.StepWithModules(host)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, proto.EvAgentRegistered, events[0].Body.Domain.Kind)
	require.Equal(t, "overridden", events[0].Body.Domain.AgentID)
	_, exists := w.State().Agents["original"]
	require.False(t, exists)
	_, exists = w.State().Agents["overridden"]
	require.True(t, exists)
}

func TestHostEvaluateActionHonorsModuleDeny(t *testing.T) {
	w := worldrt.New(logx.NewNoOp())
	registerBuiltin(w, "deny-mod", proto.DefaultModuleLimits())

	sb := NewFixedSandbox()
	sb.Register("deny-mod", DenyReducer("blocked"))
	host := NewHost(sb, nil)

	w.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "a1"}, proto.Submitter{})
	events, err := w.StepWithModules(host)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, proto.EvActionRejected, events[0].Body.Domain.Kind)
	require.Equal(t, proto.RejectRuleDenied, events[0].Body.Domain.Reason.Kind)
}
