// Command agentworldd runs a single agentworld node against an
// in-process world, as the only validator of a one-member validator set.
// It configures no network transport, DHT or head follower.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/luxfi/agentworld/blobstore"
	"github.com/luxfi/agentworld/config"
	"github.com/luxfi/agentworld/consensus"
	"github.com/luxfi/agentworld/logx"
	"github.com/luxfi/agentworld/mempool"
	"github.com/luxfi/agentworld/node"
	"github.com/luxfi/agentworld/wasmhost"
	"github.com/luxfi/agentworld/worldrt"
	"go.uber.org/zap"
)

func main() {
	network := flag.String("network", "local", "parameter preset: mainnet, testnet, or local")
	worldID := flag.String("world", "world-1", "world id this node serves")
	dataDir := flag.String("data", "", "blob storage directory (empty for in-memory)")
	dev := flag.Bool("dev", true, "use a human-readable development logger instead of JSON")
	flag.Parse()

	params := presetParams(*network)

	log, err := newLogger(*dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agentworldd: init logger: %v\n", err)
		os.Exit(1)
	}

	id, err := node.NewIdentity()
	if err != nil {
		log.Fatal("generate identity", zap.Error(err))
	}

	store := blobstoreFor(*dataDir)
	validators := consensus.NewValidatorSet([]consensus.Validator{{NodeID: id.NodeID, Stake: 1}})
	engine := consensus.NewEngine(validators, params.QuorumNumerator, params.QuorumDenominator)

	world := worldrt.New(log)
	world.SetEffectMaxInflight(params.EffectMaxInflight)
	receiptSecret, err := randomReceiptSecret()
	if err != nil {
		log.Fatal("generate receipt signer secret", zap.Error(err))
	}
	world.SetReceiptSigner(worldrt.NewReceiptSigner(receiptSecret))

	n := node.New(node.Deps{
		WorldID:  *worldID,
		Identity: id,
		World:    world,
		Host:     wasmhost.NewHost(wasmhost.NewFixedSandbox(), nil),
		Engine:   engine,
		Mempool:  mempool.New(mempool.DefaultConfig()),
		Store:    store,
		Params:   params,
		Log:      log,
	})

	log.Info("node starting", zap.String("node_id", id.NodeID), zap.String("world_id", *worldID))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := n.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("node run", zap.Error(err))
	}
	log.Info("node stopped")
}

func presetParams(network string) config.Parameters {
	switch network {
	case "mainnet":
		return config.Mainnet()
	case "testnet":
		return config.Testnet()
	default:
		return config.Local()
	}
}

func blobstoreFor(dir string) blobstore.Store {
	if dir == "" {
		return blobstore.NewMemStore()
	}
	return blobstore.NewLocalCasStore(dir)
}

func newLogger(dev bool) (logx.Logger, error) {
	if dev {
		return logx.NewDevelopment()
	}
	return logx.NewProduction()
}

func randomReceiptSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return secret, nil
}
