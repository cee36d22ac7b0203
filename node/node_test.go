package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/agentworld/blobstore"
	"github.com/luxfi/agentworld/config"
	"github.com/luxfi/agentworld/consensus"
	"github.com/luxfi/agentworld/logx"
	"github.com/luxfi/agentworld/mempool"
	"github.com/luxfi/agentworld/proto"
	"github.com/luxfi/agentworld/wasmhost"
	"github.com/luxfi/agentworld/worldrt"
)

func singleValidatorNode(t *testing.T, id Identity) *Node {
	t.Helper()
	validators := consensus.NewValidatorSet([]consensus.Validator{{NodeID: id.NodeID, Stake: 1}})
	engine := consensus.NewEngine(validators, 1, 1)
	host := wasmhost.NewHost(wasmhost.NewFixedSandbox(), nil)

	return New(Deps{
		WorldID:  "w1",
		Identity: id,
		World:    worldrt.New(logx.NewNoOp()),
		Host:     host,
		Engine:   engine,
		Mempool:  mempool.New(mempool.DefaultConfig()),
		Store:    blobstore.NewMemStore(),
		Params:   config.Local(),
		Log:      logx.NewNoOp(),
	})
}

func TestNodeProposesAndCommitsOwnSlot(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)
	n := singleValidatorNode(t, id)

	n.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "a1", Pos: proto.GeoPos{X: 1}}, proto.Submitter{}, "a1", time.Now())

	proposed, result, err := n.Tick(time.Now())
	require.NoError(t, err)
	require.True(t, proposed)
	require.Equal(t, uint64(0), result.Block.Slot)
	require.Len(t, result.Block.Actions, 1)
	require.NotEmpty(t, result.BlockHash)

	require.NoError(t, n.Attest(0, id.NodeID))
	prop, ok := n.deps.Engine.Proposal(0)
	require.True(t, ok)
	require.Equal(t, consensus.BlockCommitted, prop.Status)

	require.Equal(t, "a1", firstAgentID(t, n))
}

func TestNodeSkipsTickWhenNotProposer(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)
	other, err := NewIdentity()
	require.NoError(t, err)

	validators := consensus.NewValidatorSet([]consensus.Validator{{NodeID: other.NodeID, Stake: 1}})
	engine := consensus.NewEngine(validators, 1, 1)
	host := wasmhost.NewHost(wasmhost.NewFixedSandbox(), nil)
	n := New(Deps{
		WorldID: "w1", Identity: id, World: worldrt.New(logx.NewNoOp()), Host: host,
		Engine: engine, Mempool: mempool.New(mempool.DefaultConfig()), Store: blobstore.NewMemStore(),
		Params: config.Local(), Log: logx.NewNoOp(),
	})

	proposed, _, err := n.Tick(time.Now())
	require.NoError(t, err)
	require.False(t, proposed)
}

func TestNodeHealthReportsSlotAndMempoolSize(t *testing.T) {
	id, err := NewIdentity()
	require.NoError(t, err)
	n := singleValidatorNode(t, id)
	n.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "a1"}, proto.Submitter{}, "a1", time.Now())

	status := n.Health()
	require.Equal(t, id.NodeID, status.NodeID)
	require.Equal(t, uint64(0), status.Slot)
	require.Equal(t, 1, status.MempoolSize)
}

func firstAgentID(t *testing.T, n *Node) string {
	t.Helper()
	for id := range n.deps.World.State().Agents {
		return id
	}
	return ""
}
