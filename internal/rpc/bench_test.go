package rpc_test

import (
	"context"
	"os"
	"testing"

	"github.com/sirupsen/logrus"

	"namadexer/internal/rpc"
)

// BenchmarkGetBlock measures get_block's round-trip cost against a live
// node, mirroring the original implementation's get_block_bench.rs.
// Skipped unless TEST_TENDERMINT_ADDR names a reachable RPC endpoint.
func BenchmarkGetBlock(b *testing.B) {
	addr := os.Getenv("TEST_TENDERMINT_ADDR")
	if addr == "" {
		b.Skip("set TEST_TENDERMINT_ADDR to run this benchmark against a live node")
	}

	client, err := rpc.New(addr, logrus.NewEntry(logrus.New()), nil)
	if err != nil {
		b.Fatalf("rpc.New: %v", err)
	}

	ctx := context.Background()
	latest, err := client.GetLatestBlock(ctx)
	if err != nil {
		b.Fatalf("GetLatestBlock: %v", err)
	}
	startHeight := int64(latest.HeaderHeight) - int64(b.N)
	if startHeight < 1 {
		startHeight = 1
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = client.GetBlock(ctx, startHeight+int64(i))
	}
}
