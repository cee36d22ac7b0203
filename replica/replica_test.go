package replica

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/agentworld/blobstore"
	"github.com/luxfi/agentworld/logx"
	"github.com/luxfi/agentworld/proto"
	"github.com/luxfi/agentworld/segment"
	"github.com/luxfi/agentworld/worldrt"
)

func TestHeadTrackerDecideHead(t *testing.T) {
	tracker := NewHeadTracker("w1")

	decision, err := tracker.DecideHead(proto.WorldHeadAnnounce{WorldID: "w1", Slot: 1, BlockHash: "a"})
	require.NoError(t, err)
	require.Equal(t, HeadApply, decision)

	tracker.RecordApplied(proto.WorldHeadAnnounce{WorldID: "w1", Slot: 1, BlockHash: "a"})

	decision, err = tracker.DecideHead(proto.WorldHeadAnnounce{WorldID: "w1", Slot: 1, BlockHash: "a"})
	require.NoError(t, err)
	require.Equal(t, HeadIgnoreDuplicate, decision)

	decision, err = tracker.DecideHead(proto.WorldHeadAnnounce{WorldID: "w1", Slot: 0, BlockHash: "b"})
	require.NoError(t, err)
	require.Equal(t, HeadIgnoreStale, decision)

	_, err = tracker.DecideHead(proto.WorldHeadAnnounce{WorldID: "w1", Slot: 1, BlockHash: "b"})
	require.Error(t, err)
	require.True(t, proto.IsKind(err, proto.ErrConflict))

	decision, err = tracker.DecideHead(proto.WorldHeadAnnounce{WorldID: "w1", Slot: 2, BlockHash: "c"})
	require.NoError(t, err)
	require.Equal(t, HeadApply, decision)
}

func TestHeadTrackerSelectBestHeadFiltersOtherWorlds(t *testing.T) {
	tracker := NewHeadTracker("w1")
	best, ok := tracker.SelectBestHead([]proto.WorldHeadAnnounce{
		{WorldID: "other", Slot: 99},
		{WorldID: "w1", Slot: 3, BlockHash: "x"},
		{WorldID: "w1", Slot: 5, BlockHash: "y"},
	})
	require.True(t, ok)
	require.Equal(t, uint64(5), best.Slot)
}

func buildExecutionResult(t *testing.T, worldID string, slot uint64, store blobstore.Store) proto.ExecutionWriteResult {
	t.Helper()
	w := worldrt.New(logx.NewNoOp())
	w.SubmitAction(proto.Action{Kind: proto.ActionRegisterAgent, AgentID: "a1", Pos: proto.GeoPos{X: 1}}, proto.Submitter{})
	w.Step()
	snap := w.Snapshot()

	snapBytes, err := proto.Marshal(snap)
	require.NoError(t, err)
	manifest, err := segment.Snapshot(snapBytes, worldID, 0, store, proto.DefaultSegmentConfig())
	require.NoError(t, err)

	return proto.ExecutionWriteResult{
		Block:            proto.WorldBlock{WorldID: worldID, Slot: slot},
		SnapshotManifest: manifest,
	}
}

func TestBootstrapWorldFromHeadReassemblesSnapshot(t *testing.T) {
	store := blobstore.NewMemStore()
	result := buildExecutionResult(t, "w1", 7, store)
	head := proto.WorldHeadAnnounce{WorldID: "w1", Slot: 7, BlockHash: "h"}

	fetch := func(contentHash string) ([]byte, error) {
		return store.Get(contentHash)
	}
	remoteStore := blobstore.NewMemStore()

	boot, err := BootstrapWorldFromHead(head, result, fetch, remoteStore)
	require.NoError(t, err)
	require.Equal(t, "a1", firstAgentID(boot.World))
}

func TestHeadFollowerAppliesOnceThenIgnoresDuplicate(t *testing.T) {
	store := blobstore.NewMemStore()
	result := buildExecutionResult(t, "w1", 1, store)
	head := proto.WorldHeadAnnounce{WorldID: "w1", Slot: 1, BlockHash: "h"}

	calls := 0
	blockSource := func(worldID string, slot uint64) (proto.ExecutionWriteResult, error) {
		calls++
		return result, nil
	}
	fetch := func(contentHash string) ([]byte, error) { return store.Get(contentHash) }
	follower := NewHeadFollower("w1", blockSource, fetch, blobstore.NewMemStore())

	boot, err := follower.ApplyHead(head)
	require.NoError(t, err)
	require.NotNil(t, boot)
	require.Equal(t, 1, calls)

	boot, err = follower.ApplyHead(head)
	require.NoError(t, err)
	require.Nil(t, boot)
	require.Equal(t, 1, calls)
}

func firstAgentID(w *worldrt.World) string {
	for id := range w.State().Agents {
		return id
	}
	return ""
}
