package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mroshb/jeju_points/internal/app"
	"github.com/mroshb/jeju_points/internal/config"
	"github.com/mroshb/jeju_points/internal/database"
	"github.com/mroshb/jeju_points/pkg/logger"
	"github.com/spf13/cobra"
)

// Opener builds the wired services a command runs against.
type Opener func() (*app.App, error)

// Execute runs pointsctl against the configured database.
func Execute() error {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("APP_ENV"))
	defer logger.Sync()

	return NewRootCmd(openFromEnv).Execute()
}

// NewRootCmd assembles the command tree.
func NewRootCmd(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "pointsctl",
		Short: "Operate the Jeju points ledger",
		Long: `pointsctl runs maintenance against the points database: expiry sweeps,
ledger verification and export, and manual admin grants. It reads the same
environment as the server.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newSweepCmd(open),
		newVerifyCmd(open),
		newExportCmd(open),
		newGrantCmd(open),
	)
	return root
}

func openFromEnv() (*app.App, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	return app.New(cfg, db)
}

// withApp opens the app for the duration of fn.
func withApp(open Opener, fn func(a *app.App) error) error {
	a, err := open()
	if err != nil {
		return fmt.Errorf("failed to open points database: %w", err)
	}
	defer a.Close()
	return fn(a)
}
