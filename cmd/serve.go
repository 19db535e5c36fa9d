package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kipper0508/escape-bot/internal/logging"
)

// serveCmd runs the webhook server and the reminder scheduler.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the LINE webhook and run reminder scans",
	Long: `Serve the LINE webhook on $PORT and push reminders on $REMINDER_CRON.

Endpoints:
  POST /webhook   LINE Messaging API callback
  GET  /health    store and upstream health
  GET  /metrics   Prometheus metrics

Stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}

	logging.Info("starting escape-bot", append([]any{"version", Version}, cfg.LogFields()...)...)
	return a.Daemon().Run(cmd.Context())
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
