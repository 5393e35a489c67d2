package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotibaby/internal/credentials"
	"github.com/desertthunder/spotibaby/internal/gateway"
	"github.com/desertthunder/spotibaby/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	store      credentials.Store
	gateway    *gateway.Gateway
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Store      credentials.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Store == nil {
		opts.Store = credentials.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Backend.TimeoutDuration()}
	}

	r := &Runner{
		config:     opts.Config,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.gateway = r.newGateway()
	return r
}

func (r *Runner) newGateway() *gateway.Gateway {
	logger := shared.WithLogger(r.logger, "component", "gateway")
	expired := func() {
		logger.Warn("credential cleared, run `spotibaby login` to sign in again")
	}
	return gateway.New(gateway.Options{
		BaseURL:        r.config.Backend.BaseURL,
		HTTPClient:     r.httpClient,
		Store:          r.store,
		RateLimit:      r.config.Backend.RateLimit,
		Logger:         logger,
		OnUnauthorized: expired,
	})
}

// SetLogger swaps the logger, rebuilding the gateway so its output follows.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	r.gateway = r.newGateway()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, logoutCommand, statusCommand,
		playlistsCommand, tracksCommand,
		playCommand, pauseCommand, resumeCommand, seekCommand,
		tuiCommand,
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

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n"+format+"\n", args...)
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
