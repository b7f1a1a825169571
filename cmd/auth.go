package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/maltier/internal/server"
	"github.com/desertthunder/maltier/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin runs the full browser authorization round trip.
//
// It registers a fresh PKCE verifier, serves the callback endpoint on the
// configured address, opens the authorize URL, and waits for MyAnimeList to
// redirect back with the code.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(); err != nil {
		return err
	}

	noBrowser := cmd.Bool("no-browser")
	timeout := time.Duration(cmd.Int("timeout")) * time.Second

	verifier := oauth2.GenerateVerifier()
	state, err := r.manager.BeginAuthorization(verifier)
	if err != nil {
		return fmt.Errorf("failed to begin authorization: %w", err)
	}

	// Plain challenge method: the challenge is the verifier itself.
	authURL := r.mal.AuthCodeURL(state, verifier)

	sessionCh := make(chan string, 1)
	api := server.NewAPI(r.manager, r.fetcher, r.mal, r.logger)
	api.OnSession = func(id string) {
		select {
		case sessionCh <- id:
		default:
		}
	}

	router := server.NewBasicRouter()
	api.Register(router)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("waiting for callback", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if noBrowser {
		r.writePlain("Open this URL to authorize:\n%s\n", authURL)
	} else {
		r.writePlain("Opening browser for authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Open this URL to authorize:\n%s\n", authURL)
		}
	}

	select {
	case sessionID := <-sessionCh:
		r.writePlain("✓ Authorized. Session: %s\n", sessionID)
		return nil
	case err := <-errCh:
		return fmt.Errorf("callback server error: %w", err)
	case <-time.After(timeout):
		return fmt.Errorf("%w: no callback received within %v", shared.ErrInvalidState, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AuthLogout removes a session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(); err != nil {
		return err
	}

	sessionID := cmd.StringArg("session")
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	if err := r.manager.Logout(sessionID); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	r.writePlain("✓ Session %s removed\n", sessionID)
	return nil
}
