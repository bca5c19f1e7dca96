package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pictotext/pictotext/app/repository"
	"github.com/pictotext/pictotext/internal/pkg/database"
	"github.com/pictotext/pictotext/internal/pkg/env"
	"github.com/pictotext/pictotext/internal/pkg/logger"
)

var version = "1.0.0"

var logLevel string

var rootCmd = &cobra.Command{
	Use:     "pictotextctl",
	Short:   "Operations CLI for the PictoText service",
	Long:    `pictotextctl manages the premium allow-list, usage counters and buffered statistics of a running PictoText deployment directly against its database.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Setup(logger.Config{Level: logLevel, Format: "console", Output: "stderr"}); err != nil {
			return err
		}
		env.SetupEnvFile()
		database.SetupDatabase()
		repository.InitGlobalFactory(database.GetDB())
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
