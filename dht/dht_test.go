package dht

import (
	"testing"

	"github.com/luxfi/agentworld/proto"
	"github.com/stretchr/testify/require"
)

func TestPublishAndGetProviders(t *testing.T) {
	d := NewInMemoryDHT()
	require.NoError(t, d.PublishProvider("w1", "hash", "p1"))
	require.NoError(t, d.PublishProvider("w1", "hash", "p2"))
	providers, err := d.GetProviders("w1", "hash")
	require.NoError(t, err)
	require.Len(t, providers, 2)
}

func TestWorldHeadLastWriterWins(t *testing.T) {
	d := NewInMemoryDHT()
	old := proto.WorldHeadAnnounce{WorldID: "w1", Slot: 1, BlockHash: "a"}
	newer := proto.WorldHeadAnnounce{WorldID: "w1", Slot: 2, BlockHash: "b"}

	require.NoError(t, d.PutWorldHead("w1", newer))
	require.NoError(t, d.PutWorldHead("w1", old))

	head, ok, err := d.GetWorldHead("w1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, old, head)
}

func TestMembershipDirectoryRoundTrip(t *testing.T) {
	d := NewInMemoryDHT()
	snap := MembershipDirectorySnapshot{WorldID: "w1", NodeIDs: []string{"n1", "n2"}}
	require.NoError(t, d.PutMembershipDirectory("w1", snap))

	got, ok, err := d.GetMembershipDirectory("w1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap, got)
}
