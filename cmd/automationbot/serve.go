package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rudderlabs/automationbot/internal/relay"
	"github.com/rudderlabs/automationbot/internal/slack"
	"github.com/rudderlabs/automationbot/internal/webhook"
	"github.com/rudderlabs/automationbot/pkg/config"
	"github.com/rudderlabs/automationbot/pkg/constants"
	"github.com/rudderlabs/automationbot/pkg/health"
	"github.com/rudderlabs/automationbot/pkg/metrics"
	"github.com/rudderlabs/automationbot/pkg/middleware"
	"github.com/rudderlabs/automationbot/pkg/worker"
	slackgo "github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Long: `Run the bot until SIGINT or SIGTERM.

Slack callbacks are served on /slack/command and /slack/interactive unless
SLACK_APP_TOKEN is set, in which case the bot connects over Socket Mode.
/metrics, /health, /ready and /version are always served.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to load configuration", zap.Error(err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize metrics
	m := metrics.Init()
	logger.Info("metrics initialized")

	dispatcher := webhook.NewDispatcher(cfg.WebhookConfig(), logger)
	dispatcher.SetMetrics(m)
	logger.Info("webhook dispatcher configured",
		zap.Bool("data_webhook", dispatcher.Configured(webhook.DestinationData)),
		zap.Bool("approval_webhook", dispatcher.Configured(webhook.DestinationApproval)),
		zap.Bool("basic_auth", cfg.BasicAuthEnabled()),
		zap.Duration("timeout", dispatcher.Timeout()),
	)

	adapter := relay.NewAdapter(dispatcher, logger)
	pool := worker.NewPool(logger, m)

	var apiOpts []slackgo.Option
	if cfg.SocketMode() {
		apiOpts = append(apiOpts, slackgo.OptionAppLevelToken(cfg.SlackAppToken))
	}
	api := slackgo.New(cfg.SlackBotToken, apiOpts...)

	handler := slack.NewHandler(&slack.Config{SigningSecret: cfg.SlackSigningSecret}, api, adapter, pool, logger)
	handler.SetMetrics(m)

	// Initialize health manager
	healthMgr := health.NewManager(logger, version)
	healthMgr.RegisterLivenessCheck("server", health.AlwaysHealthyChecker())
	healthMgr.RegisterReadinessCheck("slack_api", health.SlackAPIChecker(func(ctx context.Context) error {
		_, err := api.AuthTestContext(ctx)
		return err
	}))
	healthMgr.RegisterReadinessCheck("webhook_config", health.WebhookConfigChecker(
		dispatcher.Configured(webhook.DestinationData),
		dispatcher.Configured(webhook.DestinationApproval),
	))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthMgr.LivenessHandler())
	mux.HandleFunc("/ready", healthMgr.ReadinessHandler())
	mux.HandleFunc("/version", versionHandler())

	if cfg.SocketMode() {
		runner := slack.NewSocketRunner(api, handler, logger, cfg.LogLevel == "debug")
		runner.SetMetrics(m)
		healthMgr.RegisterReadinessCheck("slack_socket", health.SocketConnectionChecker(runner.Connected))

		go func() {
			if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Fatal("socket mode connection failed", zap.Error(err))
			}
		}()
	} else {
		// Slack endpoints with full middleware stack
		mux.HandleFunc("/slack/command", middleware.Standard("/slack/command", constants.HandlerTimeout, logger, m, handler.HandleSlashCommand))
		mux.HandleFunc("/slack/interactive", middleware.Standard("/slack/interactive", constants.HandlerTimeout, logger, m, handler.HandleInteractive))
	}

	// Configure server with explicit timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  constants.ServerReadTimeout,
		WriteTimeout: constants.ServerWriteTimeout,
		IdleTimeout:  constants.ServerIdleTimeout,
	}

	// Setup graceful shutdown handling
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		logger.Info("starting automationbot server",
			zap.String("version", version),
			zap.String("commit", commit),
			zap.String("build_time", buildTime),
			zap.String("port", cfg.Port),
			zap.Bool("socket_mode", cfg.SocketMode()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	select {
	case <-stop:
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received, initiating graceful shutdown")

	// Stop accepting Socket Mode envelopes
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during graceful shutdown", zap.Error(err))
	} else {
		logger.Info("server shutdown complete")
	}

	// Let acknowledged interactions finish their webhook call and Slack update
	if pool.Stop(constants.GracefulShutdownTimeout) {
		logger.Info("in-flight dispatches drained")
	} else {
		logger.Warn("in-flight dispatches cancelled at shutdown timeout")
	}

	return nil
}
