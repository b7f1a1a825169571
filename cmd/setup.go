package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/maltier/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates a config file from the embedded template.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
		r.writePlain("Config already present at %s\n", configPath)
		return nil
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Config written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Register an API client at https://myanimelist.net/apiconfig\n")
	r.writePlain("2. Fill in credentials.mal.client_id and client_secret\n")
	r.writePlain("3. Run 'maltier auth login' to create your first session\n")

	return nil
}
