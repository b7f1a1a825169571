package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/maltier/internal/formatter"
	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/shared"
	"github.com/urfave/cli/v3"
)

// Export renders a session's tiered list in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
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

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	entries, err := r.fetcher.GetList(ctx, sessionID, kind, cmd.Bool("refresh"))
	if err != nil {
		return fmt.Errorf("list fetch failed: %w", err)
	}

	groups := formatter.Group(entries)

	outputPath := cmd.String("output")
	if outputPath == "" {
		return formatter.Export(r.output, groups, format)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := formatter.Export(f, groups, format); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlain("✓ Exported %d entries in %d tiers to %s\n", len(entries), len(groups), outputPath)
	return nil
}
