package main

import (
	"github.com/spf13/cobra"

	"github.com/kinechobot/kinecho/internal/telemetry"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "kinecho",
	Short: "Kinecho is a personal chatbot with console and Discord front ends",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Reinitialize the logger once flags are parsed.
		return telemetry.Setup(logLevel, logFormat)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default: kinecho.yaml in . or ~/.kinecho)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(versionCmd)
}
