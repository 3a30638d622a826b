package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacklineage/pkg/buildinfo"
	"github.com/matzehuels/stacklineage/pkg/cache"
	"github.com/matzehuels/stacklineage/pkg/observability"
	"github.com/matzehuels/stacklineage/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories, config files and display.
	appName = "stacklineage"

	// openTimeout bounds connecting to a remote cache backend.
	openTimeout = 10 * time.Second
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before every command runs.
	Config *Config

	cfgFile string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stacklineage builds focused views of data-lineage graphs",
		Long: `Stacklineage reads a lineage graph of jobs and datasets and builds the view
around one focal node: what feeds it, what it feeds, and how the picture
changes when jobs or datasets are hidden.`,
		Version:           buildinfo.Get().Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.preRun,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default: "+appName+".yaml in this or a parent directory)")
	pf.String("cache", cache.BackendFile, "cache backend: file, memory, redis, mongo or none")
	pf.String("cache-dir", "", "directory for the file cache")

	root.AddCommand(c.viewCommand())
	root.AddCommand(c.lineageCommand())
	root.AddCommand(c.seedCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// preRun loads the configuration and wires logging into every layer.
func (c *CLI) preRun(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(c.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	c.Config = cfg
	if cfg.File != "" {
		c.Logger.Debug("loaded config", "file", cfg.File)
	}

	hooks := newLogHooks(c.Logger)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// config returns the loaded configuration, falling back to defaults when a
// command runs without the root pre-run (tests).
func (c *CLI) config() *Config {
	if c.Config == nil {
		cfg, err := LoadConfig(c.cfgFile, nil)
		if err != nil {
			cfg = &Config{}
		}
		c.Config = cfg
	}
	return c.Config
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	cfg := c.config()

	var keyer cache.Keyer
	if cfg.Cache.Backend != cache.BackendRedis {
		// Redis applies the prefix to raw keys itself.
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Prefix)
	}
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	r.TTL = cfg.Cache.TTL
	return r, nil
}

func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	ctx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()
	return cache.Open(ctx, c.config().CacheOptions())
}
