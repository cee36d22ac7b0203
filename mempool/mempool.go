// Package mempool implements the bounded, deduplicated action mempool that
// feeds block proposal: actions queue here before a node.Node batches and
// hands them to worldrt.World.SubmitAction, grounded on
// original_source/.../distributed_mempool.rs (agent_world_consensus::ActionMempool).
package mempool

import (
	"fmt"
	"sort"

	"github.com/luxfi/agentworld/proto"
)

// Config bounds the pool globally and per actor.
type Config struct {
	MaxActions  int
	MaxPerActor int
}

// DefaultConfig matches the Rust original's ActionMempoolConfig::default().
func DefaultConfig() Config {
	return Config{MaxActions: 4096, MaxPerActor: 64}
}

// BatchRules additionally bounds a single TakeBatchWithRules call by total
// payload size, independent of the pool-wide Config.
type BatchRules struct {
	MaxActions      int
	MaxPayloadBytes int
}

// Entry is one queued action plus the bookkeeping the pool needs: which
// actor submitted it (for the per-actor cap) and when (for FIFO eviction
// and deterministic batch ordering).
type Entry struct {
	Envelope    proto.ActionEnvelope
	ActorID     string
	TimestampMs int64
	PayloadLen  int
}

func actionKey(id proto.ActionID) string {
	return fmt.Sprintf("%d.%d", id.Era, id.Value)
}

// Pool is the bounded action mempool. It is not safe for concurrent use;
// callers (typically node.Node's tick loop) serialize access themselves.
type Pool struct {
	config  Config
	entries map[string]Entry
	order   []string // action keys in insertion order, oldest first
}

// New returns an empty pool governed by config.
func New(config Config) *Pool {
	return &Pool{config: config, entries: map[string]Entry{}}
}

// Len returns the number of queued actions.
func (p *Pool) Len() int { return len(p.entries) }

// IsEmpty reports whether the pool holds no actions.
func (p *Pool) IsEmpty() bool { return len(p.entries) == 0 }

// AddAction inserts entry, returning false (without modifying the pool) if
// the action's id is already present or the actor is already at its
// per-actor cap. When the pool is at MaxActions, the oldest entry is
// evicted to make room — this is the mempool's only eviction path.
func (p *Pool) AddAction(entry Entry) bool {
	key := actionKey(entry.Envelope.ID)
	if _, exists := p.entries[key]; exists {
		return false
	}
	if p.config.MaxPerActor > 0 && p.countForActor(entry.ActorID) >= p.config.MaxPerActor {
		return false
	}
	if p.config.MaxActions > 0 && len(p.entries) >= p.config.MaxActions {
		p.evictOldest()
	}
	p.entries[key] = entry
	p.order = append(p.order, key)
	return true
}

func (p *Pool) countForActor(actorID string) int {
	count := 0
	for _, e := range p.entries {
		if e.ActorID == actorID {
			count++
		}
	}
	return count
}

func (p *Pool) evictOldest() {
	if len(p.order) == 0 {
		return
	}
	oldest := p.order[0]
	p.order = p.order[1:]
	delete(p.entries, oldest)
}

// RemoveAction deletes and returns the entry with the given ActionID, if
// present.
func (p *Pool) RemoveAction(id proto.ActionID) (Entry, bool) {
	key := actionKey(id)
	entry, ok := p.entries[key]
	if !ok {
		return Entry{}, false
	}
	delete(p.entries, key)
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return entry, true
}

// TakeBatch removes up to maxActions entries ordered by (timestamp_ms,
// action_id) and returns them, or nil if the pool is empty. This is a
// thin call to TakeBatchWithRules with no payload limit.
func (p *Pool) TakeBatch(maxActions int) []Entry {
	return p.TakeBatchWithRules(BatchRules{MaxActions: maxActions})
}

// TakeBatchWithRules removes and returns entries ordered by (timestamp_ms,
// action_id), honoring both rules.MaxActions and a running
// rules.MaxPayloadBytes budget (0 means unlimited). Entries that would
// exceed the payload budget are skipped over, not dropped — they remain in
// the pool for a later batch.
func (p *Pool) TakeBatchWithRules(rules BatchRules) []Entry {
	if len(p.entries) == 0 {
		return nil
	}
	candidates := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		candidates = append(candidates, e)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].TimestampMs != candidates[j].TimestampMs {
			return candidates[i].TimestampMs < candidates[j].TimestampMs
		}
		return candidates[i].Envelope.ID.Less(candidates[j].Envelope.ID)
	})

	var batch []Entry
	payloadBudget := rules.MaxPayloadBytes
	for _, e := range candidates {
		if rules.MaxActions > 0 && len(batch) >= rules.MaxActions {
			break
		}
		if payloadBudget > 0 && e.PayloadLen > payloadBudget {
			continue
		}
		batch = append(batch, e)
		if payloadBudget > 0 {
			payloadBudget -= e.PayloadLen
		}
	}
	for _, e := range batch {
		p.RemoveAction(e.Envelope.ID)
	}
	return batch
}
