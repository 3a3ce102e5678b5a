// Package cli implements the nodeio command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/nodeio/pkg/buildinfo"
	"github.com/matzehuels/nodeio/pkg/cache"
	"github.com/matzehuels/nodeio/pkg/config"
	"github.com/matzehuels/nodeio/pkg/observability"
	"github.com/matzehuels/nodeio/pkg/pipeline"
)

const appName = "nodeio"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "nodeio moves node graphs between editors and files",
		Long: `nodeio captures node graphs, including every nested group they use, into
self-contained .bnodes documents and restores them elsewhere. It inspects,
validates, converts and renders documents, and serves the same operations
over HTTP.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/nodeio/config.toml)")

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup runs before every command: it applies --verbose, loads the config
// file and installs the logging hooks.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}

	path := c.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", path)

	observability.SetEngineHooks(&logHooks{logger: c.Logger})
	observability.SetServerHooks(&logHooks{logger: c.Logger})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	stdout = cmd.OutOrStdout()
	return nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cat, err := c.Config.LoadCatalog()
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cat, newCache(noCache, c.Logger), c.Logger), nil
}

// newCache opens the artifact cache. A cache that cannot be opened
// disables caching.
func newCache(noCache bool, logger *log.Logger) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		logger.Debug("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}
