package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotibaby/internal/credentials"
	"github.com/desertthunder/spotibaby/internal/server"
	"github.com/desertthunder/spotibaby/internal/shared"
	"github.com/urfave/cli/v3"
)

const loginTimeout = 2 * time.Minute

// Login signs in through the backend and stores the issued credential.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	if err := r.doLogin(ctx); err != nil {
		return err
	}

	r.writePlainln("✓ Signed in")
	return r.writePlain("You can now use: spotibaby tui\n")
}

// Logout clears the stored credential.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	r.logger.Info("credential cleared")
	return r.writePlain("✓ Signed out\n")
}

// Status reports whether a credential is stored, whether it carries a provider token, and
// whether the backend accepts it.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("spotibaby status")
	r.writePlain("Backend: %s\n", r.config.Backend.BaseURL)

	cred, err := r.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read credential: %w", err)
	}
	if cred == nil {
		return r.writePlain("Credential: ✗ Not signed in\n")
	}
	r.writePlain("Credential: ✓ %s\n", shared.Mask(cred.Token))

	if _, err := cred.ProviderToken(); err != nil {
		r.writePlain("Provider token: ✗ %v\n", err)
	} else {
		r.writePlain("Provider token: ✓ Present\n")
	}

	token, err := r.gateway.Token(ctx)
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return r.writePlain("Backend session: ✗ Expired, run `spotibaby login`\n")
	case err != nil:
		return r.writePlain("Backend session: ✗ %v\n", err)
	}

	r.writePlain("Backend session: ✓ Valid\n")
	if !token.Expiry.IsZero() {
		r.writePlain("Provider token expires: %s\n", token.Expiry.Format(time.RFC3339))
	}
	return nil
}

// doLogin serves the login callback locally, opens the backend login page, and waits for the
// redirect carrying the credential.
func (r *Runner) doLogin(ctx context.Context) error {
	handler := server.NewLoginHandler(r.store)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(shared.WithLogger(r.logger, "component", "login")))
	router.Handler(handler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	callback, err := server.Listen(serverAddr, router)
	if err != nil {
		return err
	}
	r.logger.Infof("login server listening at %v", callback.Addr())
	defer func() {
		if err := callback.Close(); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	loginURL := r.gateway.LoginURL()
	r.writePlain("→ Opening browser to sign in...\n")
	if err := shared.OpenBrowser(loginURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err, "url", loginURL)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", loginURL)
	}

	r.writePlain("→ Waiting for sign in (2 minute timeout)...\n")

	timeout := time.NewTimer(loginTimeout)
	defer timeout.Stop()

	var result server.LoginResult
	select {
	case result = <-handler.Result():
	case err := <-callback.Errors():
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: sign in timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	if result.Error() != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Error())
	}
	if result.Credential == nil {
		return fmt.Errorf("%w: no credential received", shared.ErrAuthFailed)
	}

	if _, err := result.Credential.ProviderToken(); err != nil {
		var cfgErr *credentials.ConfigurationError
		if errors.As(err, &cfgErr) {
			r.logger.Warn("signed in, but the credential is unusable for playback", "reason", cfgErr.Reason)
		}
	}

	r.logger.Info("credential stored", "token", shared.Mask(result.Credential.Token))
	return nil
}
