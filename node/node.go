package node

import (
	"fmt"
	"time"

	"github.com/luxfi/agentworld/blobstore"
	"github.com/luxfi/agentworld/config"
	"github.com/luxfi/agentworld/consensus"
	"github.com/luxfi/agentworld/dht"
	"github.com/luxfi/agentworld/logx"
	"github.com/luxfi/agentworld/mempool"
	"github.com/luxfi/agentworld/metrics"
	"github.com/luxfi/agentworld/netx"
	"github.com/luxfi/agentworld/proto"
	"github.com/luxfi/agentworld/replica"
	"github.com/luxfi/agentworld/segment"
	"github.com/luxfi/agentworld/worldrt"
)

// Deps bundles every collaborator Node needs. All fields are required
// except Metrics, DHT, Network and Follower, which may be nil for a
// single-process test node that never gossips.
type Deps struct {
	WorldID  string
	Identity Identity
	World    *worldrt.World
	Host     worldrt.ModuleHost
	Engine   *consensus.Engine
	Mempool  *mempool.Pool
	Store    blobstore.Store
	Follower *replica.HeadFollower
	Network  netx.Network
	DHT      dht.DHT
	Params   config.Parameters
	Log      logx.Logger
	Metrics  metrics.WorldMetrics
}

// Node is the tick-loop-owning runtime for one world: the only goroutine
// that mutates Deps.World is the one running Run/Tick, matching the
// teacher's single-mutator-per-chain convention.
type Node struct {
	deps         Deps
	prevBlockHash string
	slot         uint64
	nextActionID proto.ActionID
}

// New wires deps into a runnable Node, slotted at genesis (slot 0, no
// previous block hash).
func New(deps Deps) *Node {
	if deps.Log == nil {
		deps.Log = logx.NewNoOp()
	}
	return &Node{deps: deps}
}

// Identity returns this node's signing identity.
func (n *Node) Identity() Identity { return n.deps.Identity }

// Slot returns the next slot this node will attempt to tick.
func (n *Node) Slot() uint64 { return n.slot }

// SubmitAction queues action into the mempool for inclusion in a future
// proposed block; it does not touch World directly, since only a block's
// proposer (possibly a different node) decides action order.
func (n *Node) SubmitAction(action proto.Action, submitter proto.Submitter, actorID string, now time.Time) {
	n.nextActionID = n.nextActionID.Next()
	envelope := proto.ActionEnvelope{ID: n.nextActionID, Action: action, Submitter: submitter}
	n.deps.Mempool.AddAction(mempool.Entry{
		Envelope:    envelope,
		ActorID:     actorID,
		TimestampMs: now.UnixMilli(),
	})
}

// Tick advances the node by one slot. If this node is the slot's proposer,
// it batches the mempool, executes the batch against World, persists and
// announces the result, and self-attests; a non-proposer node simply
// advances its slot counter and waits for gossip. The returned bool
// reports whether this node proposed a block this tick.
func (n *Node) Tick(now time.Time) (bool, proto.ExecutionWriteResult, error) {
	slot := n.slot
	n.slot++

	proposer, ok := n.deps.Engine.ProposerFor(slot)
	if !ok || proposer != n.deps.Identity.NodeID {
		return false, proto.ExecutionWriteResult{}, nil
	}

	batch := n.deps.Mempool.TakeBatchWithRules(mempool.BatchRules{MaxActions: n.deps.Params.MempoolGlobalCapacity})
	actions := make([]proto.ActionEnvelope, len(batch))
	for i, e := range batch {
		actions[i] = e.Envelope
	}
	for _, envelope := range actions {
		n.deps.World.SubmitAction(envelope.Action, envelope.Submitter)
	}

	fromEventID := nextEventID(n.deps.World)
	events, err := n.deps.World.StepWithModules(n.deps.Host)
	if err != nil {
		return false, proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.Tick", "step world", err)
	}
	toEventID := fromEventID
	if len(events) > 0 {
		toEventID = events[len(events)-1].ID
	}

	result, err := n.persistAndAnnounce(slot, actions, fromEventID, toEventID)
	if err != nil {
		return false, proto.ExecutionWriteResult{}, err
	}

	if err := n.deps.Engine.Propose(result.Block); err != nil {
		return false, result, proto.WrapError(proto.ErrPolicy, "node.Tick", "propose block", err)
	}
	if err := n.Attest(slot, n.deps.Identity.NodeID); err != nil {
		return false, result, proto.WrapError(proto.ErrPolicy, "node.Tick", "self-attest block", err)
	}

	n.prevBlockHash = result.BlockHash
	if n.deps.Metrics != nil {
		n.deps.Metrics.ActionsApplied().Add(float64(len(events)))
	}
	return true, result, nil
}

// persistAndAnnounce snapshots World, segments the snapshot and the
// journal slice this block produced, stores every chunk, and assembles the
// wire-ready ExecutionWriteResult (block + refs + head announce) a
// proposer publishes for the slot.
func (n *Node) persistAndAnnounce(slot uint64, actions []proto.ActionEnvelope, fromEventID, toEventID proto.WorldEventID) (proto.ExecutionWriteResult, error) {
	snap, _, err := n.deps.World.TakeSnapshot()
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "take snapshot", err)
	}
	snapBytes, err := proto.Marshal(snap)
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "encode snapshot", err)
	}
	segCfg := proto.SegmentConfig{
		SnapshotChunkBytes:      n.deps.Params.SnapshotChunkBytes,
		JournalEventsPerSegment: n.deps.Params.JournalEventsPerSegment,
	}
	manifest, err := segment.Snapshot(snapBytes, n.deps.WorldID, slot, n.deps.Store, segCfg)
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "segment snapshot", err)
	}

	journalEvents := n.deps.World.Journal().Events
	segments, err := segment.Journal(journalEvents, n.deps.Store, segCfg)
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "segment journal", err)
	}

	block := proto.WorldBlock{
		WorldID:       n.deps.WorldID,
		Slot:          slot,
		ProposerID:    n.deps.Identity.NodeID,
		Actions:       actions,
		FromEventID:   fromEventID,
		ToEventID:     toEventID,
		StateRoot:     manifest.StateRoot,
		PrevBlockHash: n.prevBlockHash,
	}
	sig := n.deps.Identity.Sign(blockSigningPayload(block))
	block.SignatureHex = fmt.Sprintf("%x", sig)

	blockHash, err := proto.HashValue(block)
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "hash block", err)
	}
	blockBytes, err := proto.Marshal(block)
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "encode block", err)
	}
	blockContentHash, err := n.deps.Store.PutBytes(blockBytes)
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "store block", err)
	}

	manifestBytes, err := proto.Marshal(manifest)
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "encode manifest", err)
	}
	manifestHash, err := n.deps.Store.PutBytes(manifestBytes)
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "store manifest", err)
	}
	segmentsBytes, err := proto.Marshal(segments)
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "encode segments", err)
	}
	segmentsHash, err := n.deps.Store.PutBytes(segmentsBytes)
	if err != nil {
		return proto.ExecutionWriteResult{}, proto.WrapError(proto.ErrStructural, "node.persistAndAnnounce", "store segments", err)
	}

	head := proto.WorldHeadAnnounce{WorldID: n.deps.WorldID, Slot: slot, BlockHash: blockHash, At: n.deps.World.Time()}
	result := proto.ExecutionWriteResult{
		Block:               block,
		BlockHash:            blockHash,
		BlockRef:             proto.BlobRef{ContentHash: blockContentHash, SizeBytes: uint64(len(blockBytes))},
		BlockAnnounce:        proto.BlockAnnounce{WorldID: n.deps.WorldID, Slot: slot, BlockHash: blockHash, BlockRef: proto.BlobRef{ContentHash: blockContentHash, SizeBytes: uint64(len(blockBytes))}},
		HeadAnnounce:         head,
		SnapshotManifest:     manifest,
		SnapshotManifestRef:  proto.BlobRef{ContentHash: manifestHash, SizeBytes: uint64(len(manifestBytes))},
		JournalSegments:      segments,
		JournalSegmentsRef:   proto.BlobRef{ContentHash: segmentsHash, SizeBytes: uint64(len(segmentsBytes))},
	}

	n.announce(result)
	return result, nil
}

func (n *Node) announce(result proto.ExecutionWriteResult) {
	if n.deps.Network != nil {
		if bytes, err := proto.Marshal(result.BlockAnnounce); err == nil {
			n.deps.Network.Publish(string(proto.BlockTopic(n.deps.WorldID)), bytes)
		}
		if bytes, err := proto.Marshal(result.HeadAnnounce); err == nil {
			n.deps.Network.Publish(string(proto.HeadTopic(n.deps.WorldID)), bytes)
		}
	}
	if n.deps.DHT != nil {
		_ = n.deps.DHT.PutWorldHead(n.deps.WorldID, result.HeadAnnounce)
	}
}

// Attest records an externally observed attestation for slot (e.g. relayed
// from another validator over the network), committing the proposal once
// quorum is reached.
func (n *Node) Attest(slot uint64, nodeID string) error {
	status, err := n.deps.Engine.Attest(slot, nodeID)
	if err != nil {
		return err
	}
	if status == consensus.BlockAttested {
		return n.deps.Engine.Commit(slot)
	}
	return nil
}

// ApplyHead forwards a gossiped head to this node's replica.HeadFollower,
// rebuilding World in place if the head supersedes what this node has.
// Only useful for a non-proposing observer node; a proposing node's own
// World is already authoritative for heads it produced itself.
func (n *Node) ApplyHead(head proto.WorldHeadAnnounce) (*replica.BootstrapResult, error) {
	if n.deps.Follower == nil {
		return nil, proto.NewError(proto.ErrStructural, "node.ApplyHead", "node has no head follower configured")
	}
	boot, err := n.deps.Follower.ApplyHead(head)
	if err != nil || boot == nil {
		return boot, err
	}
	n.deps.World = boot.World
	if head.Slot+1 > n.slot {
		n.slot = head.Slot + 1
	}
	return boot, nil
}

func nextEventID(w *worldrt.World) proto.WorldEventID {
	events := w.Journal().Events
	if len(events) == 0 {
		return proto.WorldEventID{}
	}
	return events[len(events)-1].ID.Next()
}
