package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eleven-am/coach/internal/logger"
	"github.com/eleven-am/coach/pkg/coach"
)

// Global configuration variables
var (
	configFile  string
	coachConfig *CoachConfig
	databaseURL string
	verbose     bool
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coach",
		Short: "Coach - Personal Training Backend",
		Long: `Coach is the storage and operations core behind a personal-training
platform: exercise catalogs, workout templates, client trainings and
managed client accounts, backed by Postgres.`,
		Version: coach.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			godotenv.Load()

			var err error
			coachConfig, err = LoadCoachConfig(configFile)
			if err != nil {
				if verbose {
					cmd.Printf("Warning: Failed to load config file: %v\n", err)
				}
			}

			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if coachConfig != nil && databaseURL == "" {
				databaseURL = coachConfig.Database.URL
			}

			if verbose {
				logger.SetLevel(logger.LevelDebug)
			} else if coachConfig != nil {
				logger.SetLevel(parseLevel(coachConfig.Log.Level))
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: coach.yaml)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

func parseLevel(level string) logger.Level {
	switch level {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	case "silent":
		return logger.LevelSilent
	default:
		return logger.LevelWarn
	}
}
