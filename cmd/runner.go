package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/nunvibe/internal/repositories"
	"github.com/desertthunder/nunvibe/internal/services"
	"github.com/desertthunder/nunvibe/internal/session"
	"github.com/desertthunder/nunvibe/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	recommender session.Recommender
	api         *services.APIService
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	db          *sql.DB
	noCache     bool
	openURL     func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Recommender session.Recommender
	API         *services.APIService
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	DB          *sql.DB
	NoCache     bool
	OpenURL     func(string) error // defaults to [shared.OpenBrowser]
}

// NewRunner creates a new Runner with the provided configuration.
//
// Missing services are built from the config.
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		recommender: opts.Recommender,
		api:         opts.API,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		db:          opts.DB,
		noCache:     opts.NoCache,
		openURL:     opts.OpenURL,
	}
	r.buildServices()
	return r
}

func (r *Runner) buildServices() {
	if r.recommender == nil {
		r.recommender = services.NewRecommenderFromConfig(r.config.Recommender, r.httpClient)
	}
	if r.api == nil {
		r.api = services.NewAPIService(r.config.Recommender.BaseURL, r.httpClient)
	}
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		tuiCommand, genresCommand, samplesCommand, recommendCommand, refineCommand,
		sweepCommand, apiCommand, setupCommand, spotifyCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configure runs before every command: it loads the config file named by --config when it
// exists, applies the log level and rebuilds the services against the loaded settings.
func (r *Runner) configure(cmd *cli.Command) error {
	path := cmd.String("config")
	r.configPath = path

	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = config
		r.recommender, r.api = nil, nil
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	level := r.config.Log.Level
	if cmd.Bool("verbose") {
		level = "debug"
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))

	if url := cmd.String("base-url"); url != "" {
		r.config.Recommender.BaseURL = url
		r.recommender, r.api = nil, nil
	}
	if cmd.Bool("no-cache") {
		r.noCache = true
	}

	r.buildServices()
	return nil
}

// cache returns the song cache, opening and migrating the database on first use.
//
// A database that cannot be opened disables caching for the rest of the run.
func (r *Runner) cache() session.SongCacher {
	if r.noCache {
		return nil
	}
	if r.db == nil {
		db, err := shared.OpenMigrated(r.config.Database)
		if err != nil {
			r.logger.Warn("song cache disabled", "error", err)
			r.noCache = true
			return nil
		}
		r.db = db
	}
	return repositories.NewSongCacheAdapter(repositories.NewSongRepository(r.db))
}

// newSession creates a session wired to the recommender and, unless disabled, the song cache.
func (r *Runner) newSession(batchSize int) *session.Session {
	if batchSize <= 0 {
		batchSize = r.config.Recommender.BatchSize
	}
	opts := session.Options{Logger: r.logger, BatchSize: batchSize}
	if c := r.cache(); c != nil {
		opts.Cache = c
	}
	return session.New(r.recommender, opts)
}

// Close releases the database handle, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// saveTokens stores token in the config and writes the config file.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config not loaded", shared.ErrMissingConfig)
	}
	if r.configPath == "" {
		return fmt.Errorf("%w: config path not set", shared.ErrMissingConfig)
	}
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Debug("spotify tokens saved", "path", r.configPath)
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
