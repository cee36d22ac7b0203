package node

// Status is the point-in-time health snapshot exposed for operator
// tooling and readiness probes, in the style of the teacher's api/health
// package.
type Status struct {
	NodeID        string `json:"node_id"`
	WorldID       string `json:"world_id"`
	Slot          uint64 `json:"slot"`
	MempoolSize   int    `json:"mempool_size"`
	JournalLength int    `json:"journal_length"`
	Synced        bool   `json:"synced"`
}

// Health reports the node's current status. Synced is true once the node
// has either proposed at least one block itself or applied at least one
// head from its follower.
func (n *Node) Health() Status {
	synced := n.prevBlockHash != ""
	if n.deps.Follower != nil {
		if _, ok := n.deps.Follower.CurrentHead(); ok {
			synced = true
		}
	}
	return Status{
		NodeID:        n.deps.Identity.NodeID,
		WorldID:       n.deps.WorldID,
		Slot:          n.slot,
		MempoolSize:   n.deps.Mempool.Len(),
		JournalLength: n.deps.World.Journal().Len(),
		Synced:        synced,
	}
}
