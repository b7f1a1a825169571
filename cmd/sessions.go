package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/shared"
	"github.com/urfave/cli/v3"
)

// Sessions prints the persisted sessions.
func (r *Runner) Sessions(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(); err != nil {
		return err
	}

	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	all := r.manager.Sessions()
	if useJSON {
		return r.writeJSON(all, pretty)
	}

	if len(all) == 0 {
		r.writePlain("No sessions. Run 'maltier auth login' to create one.\n")
		return nil
	}

	now := time.Now()
	for _, sess := range all {
		status := "valid"
		if sess.Expired(now) {
			status = "expired"
		}
		name := sess.UserName
		if name == "" {
			name = "(unknown user)"
		}
		r.writePlain("%s  %s  token %s  %d anime / %d manga cached\n",
			sess.ID, name, status,
			len(sess.CachedList(models.KindAnime)),
			len(sess.CachedList(models.KindManga)),
		)
	}
	return nil
}

// List fetches and prints a session's completed list.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(); err != nil {
		return err
	}

	sessionID := cmd.StringArg("session")
	if sessionID == "" {
		return fmt.Errorf("%w: session id", shared.ErrMissingArgument)
	}

	kind, err := models.ParseListKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	entries, err := r.fetcher.GetList(ctx, sessionID, kind, cmd.Bool("refresh"))
	if err != nil {
		return fmt.Errorf("list fetch failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	r.writePlain("%s list for %s (%d entries)\n", kind, sessionID, len(entries))
	for _, e := range entries {
		r.writePlain("  #%-8d score %.1f\n", e.RemoteID, e.Score)
	}
	return nil
}
