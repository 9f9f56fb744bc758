package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"namadexer/internal/checksums"
	"namadexer/internal/chain"
	"namadexer/internal/rpc"
	"namadexer/internal/schema"
	"namadexer/internal/store"
)

// BenchmarkSaveBlock measures save_block's per-block transaction cost
// against a real Postgres instance, mirroring the original implementation's
// save_blocks_bench.rs. Skipped unless TEST_DATABASE_URL names a reachable
// database, since there is no in-memory pgx substitute.
func BenchmarkSaveBlock(b *testing.B) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		b.Skip("set TEST_DATABASE_URL to run this benchmark against a live Postgres instance")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		b.Fatalf("pgxpool.New: %v", err)
	}
	defer pool.Close()

	const schemaName = "bench_save_block"
	if err := schema.Apply(ctx, pool, schemaName, nil); err != nil {
		b.Fatalf("schema.Apply: %v", err)
	}
	defer schema.TruncateAll(ctx, pool, schemaName)

	registry := checksums.NewForTest(nil)
	engine := store.New(pool, schemaName, registry, nil, logrus.NewEntry(logrus.New()))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		height := uint32(i + 1)
		var blockID chain.BlockID
		blockID[0] = byte(height)
		blockID[1] = byte(height >> 8)
		fetched := &rpc.FetchedBlock{
			Block: &chain.Block{
				BlockID:      blockID,
				ChainID:      "bench",
				HeaderHeight: height,
				HeaderTime:   "2024-01-01T00:00:00Z",
			},
		}
		if err := engine.SaveBlock(ctx, fetched); err != nil {
			b.Fatalf("SaveBlock: %v", err)
		}
	}
}
