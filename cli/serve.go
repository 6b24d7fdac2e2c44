package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nftmarket/indexer-query/api"
	"github.com/nftmarket/indexer-query/config"
	"github.com/nftmarket/indexer-query/core/catalog"
	"github.com/nftmarket/indexer-query/enrich"
	"github.com/nftmarket/indexer-query/sqlite"
	"github.com/nftmarket/indexer-query/transport"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API in front of the indexer. Configuration is read from
the config file, .env and NFTQ_ environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigFile)
			if err != nil {
				return err
			}
			logger, err := config.NewLogger(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server, cleanup, err := buildServer(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			return server.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
}

// buildServer wires the store, cache, transport and enrichment into the API.
// cleanup releases them in reverse order.
func buildServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*api.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	store, err := sqlite.Open(ctx, cfg.Database.Path, logger.Named("sqlite"), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open user store: %w", err)
	}
	closers = append(closers, func() { store.Close() })

	opts := []transport.Option{
		transport.WithTimeout(cfg.Indexer.Timeout),
		transport.WithLogger(logger.Named("transport")),
	}
	if cfg.Redis.Enabled {
		cache, err := transport.NewRedisCache(ctx, transport.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { cache.Close() })
		opts = append(opts, transport.WithCache(cache, cfg.Redis.TTL))
	}
	client := transport.NewClient(cfg.Indexer.Endpoint, opts...)

	enricher, err := enrich.New(store, logger.Named("enrich"), enrich.Options{
		Workers:         cfg.Enrich.Workers,
		MetadataTimeout: cfg.Enrich.MetadataTimeout,
		IPFSGateway:     cfg.Enrich.IPFSGateway,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, enricher.Close)

	cat := catalog.New(catalog.Config{MaxPageSize: cfg.Query.MaxPageSize})
	return api.NewServer(cat, client, enricher, logger.Named("api")), cleanup, nil
}
