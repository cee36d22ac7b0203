// Package config holds the tunable knobs for a world runtime, consensus
// engine, and mempool, with Mainnet/Testnet/Local presets in the teacher's
// style.
package config

import "time"

// Parameters bundles every tunable that shapes a node's behavior.
type Parameters struct {
	// Consensus / PoS
	QuorumNumerator   uint64 // quorum fraction numerator, e.g. 2
	QuorumDenominator uint64 // quorum fraction denominator, e.g. 3 for 2/3
	SlotDuration      time.Duration
	LeaseDuration     time.Duration

	// Mempool
	MempoolGlobalCapacity int
	MempoolPerActorCap    int

	// Module host
	ModuleLimits ModuleLimitsParams

	// Segmentation
	SnapshotChunkBytes      int
	JournalEventsPerSegment int

	// Snapshot retention
	MaxSnapshots int

	// Tick loop
	TickInterval time.Duration

	// Effect pipeline: caps how many dispatched effect intents may be
	// in flight (queued for a receipt) at once; 0 means unbounded.
	EffectMaxInflight int
}

// ModuleLimitsParams mirrors proto.ModuleLimits, kept separate so config
// has no dependency on the proto package.
type ModuleLimitsParams struct {
	MaxInstructions uint64
	MaxMemoryBytes  uint64
	MaxWallMillis   uint64
}

// Mainnet returns production-scale parameters.
func Mainnet() Parameters {
	return Parameters{
		QuorumNumerator:         2,
		QuorumDenominator:       3,
		SlotDuration:            2 * time.Second,
		LeaseDuration:           6 * time.Second,
		MempoolGlobalCapacity:   65536,
		MempoolPerActorCap:      256,
		ModuleLimits:            ModuleLimitsParams{MaxInstructions: 5_000_000, MaxMemoryBytes: 16 * 1024 * 1024, MaxWallMillis: 50},
		SnapshotChunkBytes:      256 * 1024,
		JournalEventsPerSegment: 256,
		MaxSnapshots:            10,
		TickInterval:            200 * time.Millisecond,
		EffectMaxInflight:       1024,
	}
}

// Testnet returns a smaller-scale, faster-cadence configuration for shared
// test networks.
func Testnet() Parameters {
	p := Mainnet()
	p.SlotDuration = 1 * time.Second
	p.LeaseDuration = 3 * time.Second
	p.MempoolGlobalCapacity = 8192
	p.MempoolPerActorCap = 64
	p.TickInterval = 100 * time.Millisecond
	return p
}

// Local returns single-node development parameters with tight cadences and
// small capacities, favoring fast iteration over realism.
func Local() Parameters {
	return Parameters{
		QuorumNumerator:         1,
		QuorumDenominator:       1,
		SlotDuration:            200 * time.Millisecond,
		LeaseDuration:           500 * time.Millisecond,
		MempoolGlobalCapacity:   1024,
		MempoolPerActorCap:      32,
		ModuleLimits:            ModuleLimitsParams{MaxInstructions: 1_000_000, MaxMemoryBytes: 4 * 1024 * 1024, MaxWallMillis: 20},
		SnapshotChunkBytes:      64 * 1024,
		JournalEventsPerSegment: 32,
		MaxSnapshots:            3,
		TickInterval:            10 * time.Millisecond,
		EffectMaxInflight:       64,
	}
}
