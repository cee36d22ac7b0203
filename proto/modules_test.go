package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeRuleDecisionsAllowWhenNoDeny(t *testing.T) {
	merged := MergeRuleDecisions([]RuleDecision{
		{Kind: RuleAllow, CostCents: 2, Notes: []string{"a"}},
		{Kind: RuleAllow, CostCents: 3, Notes: []string{"b"}},
	})
	require.Equal(t, RuleAllow, merged.Kind)
	require.Equal(t, uint64(5), merged.CostCents)
	require.Equal(t, []string{"a", "b"}, merged.Notes)
}

func TestMergeRuleDecisionsConcatenatesAllDenyReasons(t *testing.T) {
	merged := MergeRuleDecisions([]RuleDecision{
		{Kind: RuleDeny, DenyReason: "too_fast", Notes: []string{"n1"}},
		{Kind: RuleAllow},
		{Kind: RuleDeny, DenyReason: "insufficient_funds", Notes: []string{"n2"}},
	})
	require.Equal(t, RuleDeny, merged.Kind)
	require.Equal(t, "too_fast; insufficient_funds", merged.DenyReason)
	require.Equal(t, []string{"n1", "n2"}, merged.Notes)
}

func TestMergeRuleDecisionsAgreeingModifyWins(t *testing.T) {
	override := &Action{Kind: ActionMoveAgent, AgentID: "a1", To: GeoPos{X: 1}}
	merged := MergeRuleDecisions([]RuleDecision{
		{Kind: RuleModify, OverrideAction: override},
		{Kind: RuleModify, OverrideAction: override},
	})
	require.Equal(t, RuleModify, merged.Kind)
	require.Equal(t, override, merged.OverrideAction)
}

func TestMergeRuleDecisionsConflictingModifyCollapsesToDeny(t *testing.T) {
	merged := MergeRuleDecisions([]RuleDecision{
		{Kind: RuleModify, OverrideAction: &Action{Kind: ActionMoveAgent, AgentID: "a1", To: GeoPos{X: 1}}},
		{Kind: RuleModify, OverrideAction: &Action{Kind: ActionMoveAgent, AgentID: "a1", To: GeoPos{X: 2}}},
	})
	require.Equal(t, RuleDeny, merged.Kind)
	require.Equal(t, "conflicting_overrides", merged.DenyReason)
}

func TestMergeRuleDecisionsEmptyIsAllow(t *testing.T) {
	merged := MergeRuleDecisions(nil)
	require.Equal(t, RuleAllow, merged.Kind)
}
