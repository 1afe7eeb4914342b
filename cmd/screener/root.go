package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fadilmartias/scandid/internal/app"
	applog "github.com/fadilmartias/scandid/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const cliName = "screener"

var (
	// Used for flags.
	envFile  string
	debug    bool
	jsonLogs bool
	storeDir string
	jobsFile string

	zlog     *zap.Logger
	settings app.Settings

	rootCmd = &cobra.Command{
		Use:           cliName,
		Short:         "screener scores resumes against job descriptions and shows the leaderboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			if zlog != nil {
				_ = zlog.Sync()
			}
		},
	}
)

// Execute executes the root command. Interrupts cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func init() {
	// Assigned here rather than in the literal: initConfig reads rootCmd,
	// which would otherwise be an initialization cycle.
	rootCmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		return initConfig()
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLogs, "json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "directory of the CSV result store (overrides STORE_DIR)")
	rootCmd.PersistentFlags().StringVar(&jobsFile, "jobs", "", "job catalogue YAML file (overrides JOBS_FILE)")

	rootCmd.AddCommand(scoreCmd, leaderboardCmd, jobsCmd)
}

func initConfig() error {
	if err := godotenv.Load(envFile); err != nil && rootCmd.PersistentFlags().Changed("env-file") {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	settings = app.LoadSettings()
	if storeDir != "" {
		settings.Store.Dir = storeDir
	}
	if jobsFile != "" {
		settings.App.JobsFile = jobsFile
	}

	l, err := applog.New(jsonLogs || settings.App.LogJSON, debug || settings.App.LogDebug)
	if err != nil {
		log.Printf("could not build logger: %v", err)
		l = zap.NewNop()
	}
	zlog = l
	return nil
}
