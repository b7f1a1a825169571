package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maltier/internal/challenge"
	"github.com/desertthunder/maltier/internal/services"
	"github.com/desertthunder/maltier/internal/sessions"
	"github.com/desertthunder/maltier/internal/shared"
	"github.com/desertthunder/maltier/internal/store"
	"github.com/desertthunder/maltier/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	challenges *challenge.Store
	store      *store.Store
	mal        *services.MALClient
	manager    *sessions.Manager
	fetcher    *sessions.Fetcher
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Challenges *challenge.Store
	Store      *store.Store
	MAL        *services.MALClient
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

	r := &Runner{
		config:     opts.Config,
		challenges: opts.Challenges,
		store:      opts.Store,
		mal:        opts.MAL,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	if opts.Store != nil && opts.MAL != nil && opts.Challenges != nil {
		r.manager = sessions.NewManager(sessions.ManagerOpts{
			Challenges: opts.Challenges,
			Store:      opts.Store,
			OAuth:      opts.MAL,
			Logger:     opts.Logger,
		})
		r.fetcher = sessions.NewFetcher(r.manager, opts.Store, opts.MAL, opts.Logger)
	}

	return r
}

// SetLogger replaces the runner's logger and propagates it to dependents.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// ready reports whether the broker components could be constructed.
func (r *Runner) ready() error {
	if r.manager == nil || r.fetcher == nil {
		return fmt.Errorf("%w: configure MAL credentials and store path first (run 'maltier setup')", shared.ErrMissingCredentials)
	}
	return nil
}

// warmEngine builds a warm engine on demand.
func (r *Runner) warmEngine() *tasks.WarmEngine {
	return tasks.NewWarmEngine(r.fetcher, r.logger)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, authCommand, sessionsCommand, listCommand, exportCommand, warmCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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
