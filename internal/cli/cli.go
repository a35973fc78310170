package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depmanifest/internal/config"
	"github.com/matzehuels/depmanifest/pkg/bom"
	"github.com/matzehuels/depmanifest/pkg/buildinfo"
	"github.com/matzehuels/depmanifest/pkg/cache"
	"github.com/matzehuels/depmanifest/pkg/integrations/maven"
	"github.com/matzehuels/depmanifest/pkg/pipeline"
	"github.com/matzehuels/depmanifest/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

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

	// ConfigFile is the --config flag; empty reads the default location.
	ConfigFile string

	status    io.Writer // where spinners draw; the log writer
	configDir string    // overrides config.Dir (tests)
	cfg       *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), status: w}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "depmanifest resolves dependency manifests against their platform",
		Long: `depmanifest reads a dependency manifest (a Gradle build script, a pom.xml or a
depmanifest.yaml), inherits versions from the active platform/BOM, and prints
the deduplicated list of dependencies with their role and effective version.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		return nil
	}
	root.PersistentFlags().StringVar(&c.ConfigFile, "config", "", "config file (default $XDG_CONFIG_HOME/depmanifest/config.yaml)")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, err := config.Load(config.LoadOptions{File: c.ConfigFile, Dir: c.configDir})
	if err != nil {
		return nil, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. BOM tables come from the
// local Maven repository first and the configured remote repository second;
// remote downloads show a spinner.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ch, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}

	runner := pipeline.NewRunner(ch, nil, c.Logger)
	if cfg.Cache.TTL > 0 {
		runner.TTL = cfg.Cache.TTL
	}
	runner.Local = bom.NewFileLoader(cfg.Maven.LocalRepository, c.Logger)
	runner.Remote = &fetchProgress{
		inner: bom.NewMavenLoader(maven.NewClient(ch, runner.TTL, cfg.Maven.RepositoryURL), c.Logger),
		w:     c.status,
	}
	return runner, nil
}

// newCache picks the cache backend: none, Redis when configured, or files
// under the user cache directory.
func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisURL != "" {
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// pipelineOptions applies configuration-level settings to opts.
func (c *CLI) pipelineOptions(opts pipeline.Options) (pipeline.Options, error) {
	cfg, err := c.config()
	if err != nil {
		return opts, err
	}
	if opts.Configurations == nil {
		opts.Configurations = cfg.ConfigurationMap()
	}
	opts.Logger = c.Logger
	return opts, nil
}

// =============================================================================
// Run History
// =============================================================================

// historyStore opens the local run history.
func historyStore() (*storage.FileStore, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	return storage.NewFileStore(filepath.Join(dir, "runs"))
}

// recordRun saves a CLI resolution to the local history. Failures are
// logged, never returned: history is best effort.
func (c *CLI) recordRun(ctx context.Context, filename string, roles []string, result *pipeline.Result) string {
	store, err := historyStore()
	if err != nil {
		c.Logger.Debug("history unavailable", "error", err)
		return ""
	}
	defer store.Close()

	run := storage.NewRun(filename)
	run.ManifestType = result.ManifestType
	run.Project = result.Project
	run.Platform = result.Platform.String()
	run.Roles = roles
	run.Dependencies = result.Dependencies
	if err := store.SaveRun(ctx, run); err != nil {
		c.Logger.Debug("save run failed", "error", err)
		return ""
	}
	return run.ID
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/depmanifest/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory using XDG standard (~/.local/share/depmanifest/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
