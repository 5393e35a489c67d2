package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotibaby/internal/engine"
	"github.com/desertthunder/spotibaby/internal/session"
	"github.com/desertthunder/spotibaby/internal/shared"
	"github.com/desertthunder/spotibaby/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the kiosk interface backed by a playback session controller.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if err := shared.SetLogLevel(fileLogger, r.config.Log.Level); err != nil {
		fileLogger.Warn("ignoring log level", "error", err)
	}
	r.SetLogger(fileLogger)
	r.output = io.Discard

	controller, err := r.newController()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan error, 1)
	go func() { stopped <- controller.Run(runCtx) }()
	if err := controller.Started(runCtx); err != nil {
		return fmt.Errorf("session controller did not start: %w", err)
	}

	model := ui.NewModel(runCtx, r.gateway, controller, r.doLogin)
	_, runErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

	cancel()
	if err := <-stopped; err != nil {
		fileLogger.Warn("session controller exited", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("error running TUI: %w", runErr)
	}
	return nil
}

func (r *Runner) newController() (*session.Controller, error) {
	eng := engine.NewWebAPIEngine(engine.Options{
		APIURL:        r.config.Engine.APIURL,
		Timeout:       r.config.Backend.TimeoutDuration(),
		WatchInterval: r.config.Engine.WatchEvery(),
		Refresh:       r.refreshCredential,
		Logger:        shared.WithLogger(r.logger, "component", "engine"),
	})

	return session.New(session.Options{
		Engine:         eng,
		Gateway:        r.gateway,
		Store:          r.store,
		DeviceName:     r.config.Player.Name,
		Volume:         r.config.Player.Volume,
		PollInterval:   r.config.Player.PollEvery(),
		HealthInterval: r.config.Player.HealthEvery(),
		Logger:         shared.WithLogger(r.logger, "component", "session"),
	})
}

// refreshCredential renews the stored credential so the engine picks up a new provider token.
func (r *Runner) refreshCredential(ctx context.Context) error {
	_, err := r.gateway.Refresh(ctx)
	return err
}
