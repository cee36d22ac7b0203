package mempool

import (
	"testing"

	"github.com/luxfi/agentworld/proto"
	"github.com/stretchr/testify/require"
)

func entry(era, value uint64, actor string, ts int64) Entry {
	return Entry{
		Envelope: proto.ActionEnvelope{ID: proto.ActionID{Era: era, Value: value}},
		ActorID:  actor, TimestampMs: ts,
	}
}

func TestMempoolDedupsByActionID(t *testing.T) {
	p := New(DefaultConfig())
	require.True(t, p.AddAction(entry(0, 1, "actor1", 1)))
	require.False(t, p.AddAction(entry(0, 1, "actor1", 2)))
	require.Equal(t, 1, p.Len())
}

func TestMempoolRespectsActorLimit(t *testing.T) {
	p := New(Config{MaxActions: 10, MaxPerActor: 1})
	require.True(t, p.AddAction(entry(0, 1, "actor1", 1)))
	require.False(t, p.AddAction(entry(0, 2, "actor1", 2)))
	require.Equal(t, 1, p.Len())
}

func TestMempoolEvictsOldestWhenFull(t *testing.T) {
	p := New(Config{MaxActions: 2, MaxPerActor: 10})
	require.True(t, p.AddAction(entry(0, 1, "actor1", 1)))
	require.True(t, p.AddAction(entry(0, 2, "actor2", 2)))
	require.True(t, p.AddAction(entry(0, 3, "actor3", 3)))
	require.Equal(t, 2, p.Len())

	_, ok := p.RemoveAction(proto.ActionID{Era: 0, Value: 2})
	require.True(t, ok)
	_, ok = p.RemoveAction(proto.ActionID{Era: 0, Value: 3})
	require.True(t, ok)
	_, ok = p.RemoveAction(proto.ActionID{Era: 0, Value: 1})
	require.False(t, ok)
}

func TestTakeBatchOrdersByTimestampThenID(t *testing.T) {
	p := New(DefaultConfig())
	p.AddAction(entry(0, 2, "actor1", 2))
	p.AddAction(entry(0, 1, "actor2", 1))
	p.AddAction(entry(0, 3, "actor3", 2))

	batch := p.TakeBatch(2)
	require.Len(t, batch, 2)
	require.Equal(t, uint64(1), batch[0].Envelope.ID.Value)
	require.Equal(t, uint64(2), batch[1].Envelope.ID.Value)
	require.Equal(t, 1, p.Len())
}

func TestTakeBatchWithRulesRespectsPayloadLimit(t *testing.T) {
	p := New(DefaultConfig())
	large := entry(0, 1, "actor1", 1)
	large.PayloadLen = 2048
	small := entry(0, 2, "actor2", 2)

	p.AddAction(large)
	p.AddAction(small)

	batch := p.TakeBatchWithRules(BatchRules{MaxActions: 10, MaxPayloadBytes: 512})
	require.Len(t, batch, 1)
	require.Equal(t, uint64(2), batch[0].Envelope.ID.Value)
}
