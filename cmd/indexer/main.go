// Command indexer runs the ingestion pipeline: it fetches blocks from a
// Tendermint/CometBFT node and persists them to Postgres.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"namadexer/internal/checksums"
	"namadexer/internal/config"
	"namadexer/internal/db"
	"namadexer/internal/ingest"
	"namadexer/internal/logging"
	"namadexer/internal/metrics"
	"namadexer/internal/rpc"
	"namadexer/internal/schema"
	"namadexer/internal/store"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "indexer",
		Short: "Index a Tendermint/CometBFT chain into Postgres",
	}
	root.AddCommand(runCmd())
	root.AddCommand(resetCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(os.Getenv("INDEXER_CONFIG_PATH"), cmd.Flags())
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ingestion pipeline until fatal error or signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runIndexer(cmd.Context(), cfg)
		},
	}
	return cmd
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Truncate every table for the configured chain schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			return schema.TruncateAll(ctx, pool.Pool, cfg.SchemaName())
		},
	}
	return cmd
}

func runIndexer(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	m := metrics.New()

	registry, err := checksums.Load()
	if err != nil {
		return err
	}

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	schemaName := cfg.SchemaName()
	if err := schema.Apply(ctx, pool.Pool, schemaName, registry.Kinds()); err != nil {
		return err
	}

	client, err := rpc.New(cfg.Indexer.TendermintAddr, log.WithField("component", "rpc"), m)
	if err != nil {
		return err
	}

	engine := store.New(pool.Pool, schemaName, registry, m, log.WithField("component", "store"))

	pipeline := &ingest.Pipeline{
		Client:      client,
		Engine:      engine,
		SchemaConn:  pool.Pool,
		SchemaName:  schemaName,
		CreateIndex: cfg.Database.CreateIndex,
		Log:         log.WithField("component", "ingest"),
	}
	return pipeline.Run(ctx)
}
