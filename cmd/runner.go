package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/uidx/internal/repositories"
	"github.com/desertthunder/uidx/internal/services"
	"github.com/desertthunder/uidx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil in [RunnerOpts] are built from the loaded config on first use.
type Runner struct {
	config     *shared.Config
	exchange   services.TrackExchange
	snapshots  repositories.SnapshotRepository
	runs       *repositories.RunRepository
	db         *sql.DB
	ownsDB     bool
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Exchange   services.TrackExchange
	Snapshots  repositories.SnapshotRepository
	Runs       *repositories.RunRepository
	HTTPClient *http.Client
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		exchange:   opts.Exchange,
		snapshots:  opts.Snapshots,
		runs:       opts.Runs,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        time.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, syncCommand, reportCommand, statusCommand, historyCommand, setupCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// prepare loads the config named by the --config flag and builds any dependency not injected.
//
// A missing config file is only an error when the flag was set explicitly.
func (r *Runner) prepare(cmd *cli.Command) error {
	if path := cmd.String("config"); path != "" {
		_, statErr := os.Stat(path)
		if cmd.IsSet("config") && statErr != nil {
			return fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
		if statErr == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load config %s: %w", path, err)
			}
			r.config = config
			r.logger.Debug("config loaded", "path", path)
		}
	}

	level, err := shared.ParseLogLevel(r.config.Log.Level)
	if err != nil {
		return err
	}
	shared.SetLogLevel(r.logger, level)

	if r.exchange == nil {
		r.exchange = services.NewExchangeService(r.config.Exchange, r.httpClient)
	}

	needsDB := (r.snapshots == nil && r.config.State.Backend == shared.BackendSQLite) ||
		(r.runs == nil && r.config.History.Enabled)
	if needsDB && r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database %s: %w", r.config.Database.Path, err)
		}
		r.db = db
		r.ownsDB = true
	}

	if r.snapshots == nil {
		snapshots, err := repositories.NewSnapshotRepository(r.config, r.db)
		if err != nil {
			return err
		}
		r.snapshots = snapshots
	}

	if r.runs == nil && r.config.History.Enabled {
		r.runs = repositories.NewRunRepository(r.db)
	}
	return nil
}

// Close releases the database opened by [Runner.prepare], if any.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
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
