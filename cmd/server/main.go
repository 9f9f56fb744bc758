// Command server runs the JSON read API against an already populated
// chain schema.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"namadexer/internal/api"
	"namadexer/internal/config"
	"namadexer/internal/db"
	"namadexer/internal/logging"
	"namadexer/internal/metrics"
	"namadexer/internal/readapi"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "server",
		Short: "Serve the JSON read API",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := os.Getenv("INDEXER_CONFIG_PATH")
			cfg, err := config.Load(path, cmd.Flags())
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	readAPI := readapi.New(pool.Pool, cfg.SchemaName())
	controller := api.NewController(readAPI, log.WithField("component", "api"))

	var m *metrics.Metrics
	if cfg.Prometheus.Host != "" {
		m = metrics.New()
	}

	handler := api.NewRouter(controller, m, cfg.Server.CORSAllowOrigins)
	addr := fmt.Sprintf("%s:%d", cfg.Server.ServeAt, cfg.Server.Port)
	log.WithField("addr", addr).Info("serving read API")
	return http.ListenAndServe(addr, handler)
}
