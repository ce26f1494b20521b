package main

import (
	"fmt"
	"log/slog"
	"membership-api/internal/config"
	"membership-api/internal/logger"
	"os"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "membership-api",
		Short:   "Membership, daily call and invoicing API",
		Version: Version,
		// no subcommand means serve
		RunE: runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedPlansCmd())
	rootCmd.AddCommand(issueTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env into the environment, then parses it.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	logger.New(cfg.Log)
	slog.Debug("config loaded", "environment", cfg.Environment.Name, "database_driver", cfg.Database.Driver)
	return cfg, nil
}
