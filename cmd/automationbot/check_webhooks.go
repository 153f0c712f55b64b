package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rudderlabs/automationbot/internal/webhook"
	"github.com/rudderlabs/automationbot/pkg/config"
	"github.com/rudderlabs/automationbot/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Test identity and data carried by check-webhooks payloads.
const (
	testUserID   = "TEST_USER_ID"
	testUserName = "test_user"
	testData     = "Test data from webhook test script"
)

var checkVerbose bool

var checkWebhooksCmd = &cobra.Command{
	Use:   "check-webhooks",
	Short: "Send test payloads to each configured webhook",
	Long: `Send a test data submission and a test approval to the configured webhook
destinations and print how each one answered.

Payloads are tagged with source "webhook_test" so workflows can ignore them.
Only the webhook settings are required; Slack credentials are not.
Exits non-zero if any configured destination fails.`,
	Args: cobra.NoArgs,
	RunE: runCheckWebhooks,
}

func init() {
	checkWebhooksCmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false, "Log each request")
}

func runCheckWebhooks(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWebhooks()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := zap.NewNop()
	if checkVerbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()
	}

	dispatcher := webhook.NewDispatcher(cfg.WebhookConfig(), logger)
	return checkWebhooks(cmd.Context(), dispatcher, cmd.OutOrStdout(), time.Now())
}

type webhookCheck struct {
	dest    webhook.Destination
	payload any
}

// checkWebhooks probes every destination and reports to out. It fails when a
// configured destination does not answer with 2xx.
func checkWebhooks(ctx context.Context, d *webhook.Dispatcher, out io.Writer, now time.Time) error {
	user := webhook.User{ID: testUserID, Name: testUserName}

	submission, err := webhook.NewSubmission(user, testData, now)
	if err != nil {
		return err
	}
	submission.Source = constants.SourceWebhookTest

	approval, err := webhook.NewApproval(user, constants.ActionApprove, now)
	if err != nil {
		return err
	}
	approval.Source = constants.SourceWebhookTest

	checks := []webhookCheck{
		{dest: webhook.DestinationData, payload: submission},
		{dest: webhook.DestinationApproval, payload: approval},
	}

	configured, failed := 0, 0
	for _, c := range checks {
		p := d.Probe(ctx, c.dest, c.payload)
		if !p.Configured {
			fmt.Fprintf(out, "- %s webhook: not configured, skipped\n", c.dest)
			continue
		}
		configured++

		fmt.Fprintf(out, "- %s webhook: %s\n", c.dest, p.URL)
		switch {
		case p.Err != nil:
			failed++
			fmt.Fprintf(out, "  FAIL  %v\n", p.Err)
		case p.OK():
			fmt.Fprintf(out, "  OK    %d in %s\n", p.StatusCode, p.Duration.Round(time.Millisecond))
		default:
			failed++
			fmt.Fprintf(out, "  FAIL  %d in %s\n", p.StatusCode, p.Duration.Round(time.Millisecond))
		}
		if p.Body != "" {
			fmt.Fprintf(out, "  response: %s\n", p.Body)
		}
	}

	if configured == 0 {
		fmt.Fprintln(out, "no webhook destinations configured")
		return nil
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d webhook checks failed", failed, configured)
	}
	fmt.Fprintf(out, "all %d webhook checks passed\n", configured)
	return nil
}
