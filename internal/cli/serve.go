package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/depmanifest/internal/config"
	"github.com/matzehuels/depmanifest/internal/server"
	"github.com/matzehuels/depmanifest/pkg/observability"
	"github.com/matzehuels/depmanifest/pkg/storage"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the resolution HTTP API",
		Long: `Serve starts the HTTP API. Results are cached in Redis when cache.redis_url
is set and run history is kept in MongoDB when storage.mongo_uri is set;
otherwise the file cache and an in-memory history are used.`,
		Example: `  depmanifest serve --listen :9000
  DEPMANIFEST_STORAGE_MONGO_URI=mongodb://localhost:27017 depmanifest serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Server.Listen
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			c.Logger.Info("starting server", "listen", listen, "store", storeKind(cfg))
			observability.NewLogHooks(c.Logger).Register()
			return server.New(runner, store, c.Logger).ListenAndServe(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from server.listen, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// openStore connects the configured run history backend.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.MongoURI == "" {
		return storage.NewMemoryStore(), nil
	}
	return storage.NewMongoStore(ctx, cfg.Storage.MongoURI, cfg.Storage.Database)
}

func storeKind(cfg *config.Config) string {
	if cfg.Storage.MongoURI == "" {
		return "memory"
	}
	return "mongodb"
}
