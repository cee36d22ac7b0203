package segment

import (
	"testing"

	"github.com/luxfi/agentworld/blobstore"
	"github.com/luxfi/agentworld/proto"
	"github.com/stretchr/testify/require"
)

func TestSnapshotWritesChunksAndReassembles(t *testing.T) {
	store := blobstore.NewMemStore()
	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = byte(i)
	}

	manifest, err := Snapshot(payload, "w1", 1, store, proto.SegmentConfig{SnapshotChunkBytes: 64})
	require.NoError(t, err)
	require.Equal(t, "w1", manifest.WorldID)
	require.Equal(t, uint64(1), manifest.Epoch)
	require.NotEmpty(t, manifest.Chunks)

	for _, chunk := range manifest.Chunks {
		has, err := store.Has(chunk.ContentHash)
		require.NoError(t, err)
		require.True(t, has)
	}

	reassembled, err := ReassembleSnapshot(manifest, store)
	require.NoError(t, err)
	require.Equal(t, payload, reassembled)
}

func TestReassembleSnapshotRejectsStateRootMismatch(t *testing.T) {
	store := blobstore.NewMemStore()
	manifest, err := Snapshot([]byte("hello world snapshot"), "w1", 1, store, proto.DefaultSegmentConfig())
	require.NoError(t, err)

	manifest.StateRoot = "not-the-real-hash"
	_, err = ReassembleSnapshot(manifest, store)
	require.Error(t, err)
	require.True(t, proto.IsKind(err, proto.ErrStructural))
}

func TestJournalSplitsByEventCount(t *testing.T) {
	store := blobstore.NewMemStore()
	events := []proto.WorldEvent{
		proto.DomainWorldEvent(proto.WorldEventID{Era: 0, Value: 1}, 0, proto.CausedBy{Kind: proto.CausedByNone}, proto.DomainEvent{Kind: proto.EvAgentRegistered, AgentID: "a1"}),
		proto.DomainWorldEvent(proto.WorldEventID{Era: 0, Value: 2}, 1, proto.CausedBy{Kind: proto.CausedByNone}, proto.DomainEvent{Kind: proto.EvAgentMoved, AgentID: "a1"}),
	}

	segments, err := Journal(events, store, proto.SegmentConfig{JournalEventsPerSegment: 1})
	require.NoError(t, err)
	require.Len(t, segments, 2)
	for _, seg := range segments {
		has, err := store.Has(seg.ContentHash)
		require.NoError(t, err)
		require.True(t, has)
	}
	require.Equal(t, events[0].ID, segments[0].FromEventID)
	require.Equal(t, events[1].ID, segments[1].FromEventID)
}

func TestJournalEmptyReturnsNoSegments(t *testing.T) {
	store := blobstore.NewMemStore()
	segments, err := Journal([]proto.WorldEvent{}, store, proto.DefaultSegmentConfig())
	require.NoError(t, err)
	require.Nil(t, segments)
}
