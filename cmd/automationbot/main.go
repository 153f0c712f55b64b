// Package main is the automationbot binary: a Slack bot that relays modal input
// and approval clicks to workflow webhooks.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build information set via ldflags at compile time.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.buildTime=2024-01-01T00:00:00Z"
var (
	version   = "dev"     // Application version (e.g., "1.0.0", "v1.2.3")
	commit    = "unknown" // Git commit hash (short or full)
	buildTime = "unknown" // Build timestamp in RFC3339 format
)

var rootCmd = &cobra.Command{
	Use:   "automationbot",
	Short: "Slack bot that relays requests and approvals to automation webhooks",
	Long: `automationbot opens a request form in Slack and forwards what users submit,
and their approve/reject decisions, to the configured workflow webhooks.

Running without a subcommand is the same as "automationbot serve".

Examples:
  automationbot                  # Serve Slack callbacks (or connect via Socket Mode)
  automationbot check-webhooks   # Send test payloads to each configured webhook
  automationbot version          # Print build information`,
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkWebhooksCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}

// newLogger builds the production logger at the given level, or the
// development logger for "debug".
func newLogger(level string) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "debug" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}
