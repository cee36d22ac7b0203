package consensus

import (
	"testing"
	"time"

	"github.com/luxfi/agentworld/proto"
	"github.com/stretchr/testify/require"
)

func testSet() ValidatorSet {
	return NewValidatorSet([]Validator{
		{NodeID: "n1", Stake: 10},
		{NodeID: "n2", Stake: 10},
		{NodeID: "n3", Stake: 10},
	})
}

func TestQuorumIsCeilingOfFraction(t *testing.T) {
	require.Equal(t, uint64(2), Quorum(3, 1, 2))
	require.Equal(t, uint64(20), Quorum(30, 2, 3))
	require.Equal(t, uint64(30), Quorum(30, 1, 1))
}

func TestHasQuorumDedupesApprovers(t *testing.T) {
	set := testSet()
	require.True(t, HasQuorum(set, []string{"n1", "n2", "n1"}, 2, 3))
	require.False(t, HasQuorum(set, []string{"n1"}, 2, 3))
}

func TestProposerForSlotIsDeterministic(t *testing.T) {
	set := testSet()
	p1, ok1 := ProposerForSlot(set, 42)
	p2, ok2 := ProposerForSlot(set, 42)
	require.True(t, ok1)
	require.True(t, ok2)
	require.Equal(t, p1, p2)
}

func TestApplyMembershipChangesAddRemoveReweigh(t *testing.T) {
	set := testSet()
	next := ApplyMembershipChanges(set, []MembershipChange{
		{Kind: MembershipAdd, NodeID: "n4", Stake: 5},
		{Kind: MembershipRemove, NodeID: "n3"},
		{Kind: MembershipReweigh, NodeID: "n1", Stake: 100},
	})
	require.True(t, next.Has("n4"))
	require.False(t, next.Has("n3"))
	require.Equal(t, uint64(100), next.Stake("n1"))
}

func TestEngineProposeAttestCommit(t *testing.T) {
	set := testSet()
	e := NewEngine(set, 2, 3)
	proposer, ok := e.ProposerFor(1)
	require.True(t, ok)

	block := proto.WorldBlock{WorldID: "w1", Slot: 1, ProposerID: proposer}
	require.NoError(t, e.Propose(block))

	others := []string{"n1", "n2", "n3"}
	var status BlockProposalStatus
	for _, id := range others {
		var err error
		status, err = e.Attest(1, id)
		require.NoError(t, err)
		if status == BlockAttested {
			break
		}
	}
	require.Equal(t, BlockAttested, status)
	require.NoError(t, e.Commit(1))

	prop, ok := e.Proposal(1)
	require.True(t, ok)
	require.Equal(t, BlockCommitted, prop.Status)
}

func TestAttestDoesNotDowngradeCommittedProposal(t *testing.T) {
	set := testSet()
	e := NewEngine(set, 2, 3)
	proposer, ok := e.ProposerFor(1)
	require.True(t, ok)

	block := proto.WorldBlock{WorldID: "w1", Slot: 1, ProposerID: proposer}
	require.NoError(t, e.Propose(block))

	var late string
	for _, id := range []string{"n1", "n2", "n3"} {
		if id != proposer {
			late = id
			break
		}
	}
	others := make([]string, 0, 2)
	for _, id := range []string{"n1", "n2", "n3"} {
		if id != late {
			others = append(others, id)
		}
	}

	var status BlockProposalStatus
	for _, id := range others {
		var err error
		status, err = e.Attest(1, id)
		require.NoError(t, err)
	}
	require.Equal(t, BlockAttested, status)
	require.NoError(t, e.Commit(1))

	status, err := e.Attest(1, late)
	require.NoError(t, err)
	require.Equal(t, BlockCommitted, status, "a late attestor must not downgrade a committed proposal back to attested")

	prop, ok := e.Proposal(1)
	require.True(t, ok)
	require.Equal(t, BlockCommitted, prop.Status)
}

func TestEngineRejectsProposalFromWrongProposer(t *testing.T) {
	set := testSet()
	e := NewEngine(set, 2, 3)
	proposer, _ := e.ProposerFor(1)
	wrong := "n1"
	if wrong == proposer {
		wrong = "n2"
	}
	err := e.Propose(proto.WorldBlock{WorldID: "w1", Slot: 1, ProposerID: wrong})
	require.Error(t, err)
}

func TestLeaseManagerAcquireExpiryRelease(t *testing.T) {
	m := NewLeaseManager()
	now := time.Unix(1000, 0)
	require.NoError(t, m.Acquire(5, "n1", now, time.Second))

	holder, ok := m.Holder(5, now.Add(500*time.Millisecond))
	require.True(t, ok)
	require.Equal(t, "n1", holder)

	err := m.Acquire(5, "n2", now.Add(500*time.Millisecond), time.Second)
	require.Error(t, err)

	_, ok = m.Holder(5, now.Add(2*time.Second))
	require.False(t, ok)
	require.NoError(t, m.Acquire(5, "n2", now.Add(2*time.Second), time.Second))

	m.Release(5)
	_, ok = m.Holder(5, now.Add(2100*time.Millisecond))
	require.False(t, ok)
}
