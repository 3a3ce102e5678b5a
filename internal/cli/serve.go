package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeio/pkg/api"
	"github.com/matzehuels/nodeio/pkg/cache"
	"github.com/matzehuels/nodeio/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		redisURL string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve inspect, validate and render over HTTP",
		Long: `Serve starts the HTTP API. Documents are posted as request bodies:

  POST /v1/inspect
  POST /v1/validate
  POST /v1/render?group=main&format=svg

The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Serve.Addr
			}
			if redisURL == "" {
				redisURL = c.Config.Serve.RedisURL
			}
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			if redisURL != "" && !noCache {
				rc, err := cache.NewRedisCache(cmd.Context(), redisURL)
				if err != nil {
					return err
				}
				_ = runner.Cache.Close()
				runner.Cache = rc
				c.Logger.Info("using redis render cache", "url", redisURL)
			}
			defer runner.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(runner),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return c.listen(cmd.Context(), srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVar(&redisURL, "redis", "", "share rendered artifacts through this redis server (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "render without the artifact cache")
	return cmd
}

// listen runs srv until ctx ends, then shuts it down.
func (c *CLI) listen(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeInternal, err, "serve %s", srv.Addr)
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(errors.ErrCodeInternal, err, "serve %s", srv.Addr)
	}
	return nil
}
