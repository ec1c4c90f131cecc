package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	portOverride int
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:     "logcentrald",
	Short:   "Centralized log ingestion server",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file (falls back to built-in defaults if unset or unreadable)")
	rootCmd.PersistentFlags().IntVar(&portOverride, "port", 0, "Override server.port from the configuration file (0 = use config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level from the configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func handleFatal(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}
