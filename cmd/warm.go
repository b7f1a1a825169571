package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/shared"
	"github.com/desertthunder/maltier/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Warm refreshes the cached lists of every persisted session.
func (r *Runner) Warm(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(); err != nil {
		return err
	}

	kinds := []models.ListKind{models.KindAnime, models.KindManga}
	if raw := cmd.String("kind"); raw != "" {
		kind, err := models.ParseListKind(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		kinds = []models.ListKind{kind}
	}

	var jobs []tasks.WarmJob
	for _, sess := range r.manager.Sessions() {
		for _, kind := range kinds {
			jobs = append(jobs, tasks.WarmJob{SessionID: sess.ID, Kind: kind})
		}
	}
	if len(jobs) == 0 {
		r.writePlain("No sessions to warm.\n")
		return nil
	}

	prog := make(chan tasks.ProgressUpdate, len(jobs)+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.warmEngine().Warm(ctx, prog, jobs, tasks.WarmOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(prog)
	<-done

	if err != nil {
		return fmt.Errorf("warm run failed: %w", err)
	}

	r.writePlainln("Warmed %d/%d lists (%d failed)", result.Successful, result.TotalJobs, result.Failed)
	return nil
}
