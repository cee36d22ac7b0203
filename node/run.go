package node

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Run drives Tick on a ticker at deps.Params.TickInterval until ctx is
// canceled. It is the only goroutine expected to call Tick. Node has no
// internal locking: SubmitAction, Attest and ApplyHead mutate the same
// mempool, consensus engine and World that Tick uses, without any
// synchronization or queueing.
func (n *Node) Run(ctx context.Context) error {
	interval := n.deps.Params.TickInterval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			proposed, result, err := n.Tick(now)
			if err != nil {
				n.deps.Log.Error("tick failed", zap.Uint64("slot", n.slot-1), zap.Error(err))
				continue
			}
			if proposed {
				n.deps.Log.Debug("proposed block", zap.Uint64("slot", result.Block.Slot), zap.String("block_hash", result.BlockHash))
			}
		}
	}
}
