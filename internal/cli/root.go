// Package cli implements the noto commands.
package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/noto-agent/internal/config"
	"github.com/PabloGalante/noto-agent/internal/observability"
)

var logLevel string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:          "noto",
	Short:        "Chat-based personal memory assistant",
	Long:         "Noto keeps the things you tell it in categorized notes and reminders, and finds them again when you ask.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (default: $NOTO_LOG_LEVEL)")
}

// loadApp reads the environment config and wires the application.
// Logs go to logs so command output on stdout stays machine readable.
func loadApp(ctx context.Context, logs io.Writer) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	observability.Init(logs, cfg.LogLevel)
	return Build(ctx, cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the root command.
func Execute() int {
	if err := RootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}
