package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunematch/internal/matcher"
	"github.com/desertthunder/tunematch/internal/models"
	"github.com/desertthunder/tunematch/internal/repositories"
	"github.com/desertthunder/tunematch/internal/services"
	"github.com/desertthunder/tunematch/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      models.MatchBrowser
	closeStore func() error
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Store is opened from the config on first use.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      models.MatchBrowser
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, matchCommand, matchesCommand, failuresCommand, statsCommand, reportCommand, reviewCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure loads the config file named by --config when it exists and applies the log level.
func (r *Runner) configure(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	level := cmd.String("log-level")
	if level == "" {
		level = r.config.Log.Level
	}
	ll, err := shared.ParseLogLevel(level)
	if err != nil {
		return ctx, err
	}
	shared.SetLogLevel(r.logger, ll)

	return ctx, nil
}

// close releases the match store if the runner opened it.
func (r *Runner) close(ctx context.Context, cmd *cli.Command) error {
	if r.closeStore == nil {
		return nil
	}
	err := r.closeStore()
	r.closeStore = nil
	r.store = nil
	return err
}

// matchStore returns the injected store or opens the configured one.
func (r *Runner) matchStore() (models.MatchBrowser, error) {
	if r.store != nil {
		return r.store, nil
	}

	store, closeFn, err := repositories.Open(r.config)
	if err != nil {
		return nil, fmt.Errorf("failed to open match store: %w", err)
	}
	r.logger.Debug("opened match store", "engine", r.config.Store.Engine, "path", r.config.Database.Path)

	r.store = store
	r.closeStore = closeFn
	return store, nil
}

// newMatcher builds a matcher from the loaded config. A nil store disables caching.
func (r *Runner) newMatcher(store models.MatchStore) *matcher.TrackMatcher {
	return matcher.New(matcher.ConfigFrom(r.config), store, matcher.WithLogger(shared.WithLogger(r.logger, "component", "matcher")))
}

func (r *Runner) loadCatalog(path string, m *matcher.TrackMatcher) (*services.Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: catalog path is required", shared.ErrMissingArgument)
	}
	catalog, err := services.LoadCatalog(path, m.Normalizer(), r.config.Search.Limit)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("loaded catalog", "path", path, "platform", catalog.Name())
	return catalog, nil
}

// writeJSON writes data followed by a newline in a single write.
func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writePlainln writes a line set off by a blank line above it.
func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) {
	rule := strings.Repeat("═", 39)
	r.writePlain("%s\n%s\n%s\n", rule, title, rule)
}
