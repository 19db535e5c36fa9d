package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kipper0508/escape-bot/internal/output"
)

// remindCmd groups reminder commands.
var remindCmd = &cobra.Command{
	Use:     "remind",
	Aliases: []string{"r"},
	Short:   "Manage event reminders",
}

// remindRunCmd runs one reminder scan.
var remindRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reminder scan now",
	Long: `Push a reminder for every group event that starts within its reminder
lead time and has not been reminded yet. This is the job serve runs on
$REMINDER_CRON.`,
	RunE: runRemindRun,
}

func runRemindRun(cmd *cobra.Command, args []string) error {
	if cfg.LINE.ChannelAccessToken == "" {
		return errMissingToken
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}

	report, err := a.ReminderChecker().Check(cmd.Context())
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return formatter.JSON(report)
	}
	cli := output.NewCLIFormatter(formatter)
	cli.Title("Reminder scan at " + formatter.FormatTime(report.At))
	formatter.Printf("  candidates: %d\n  due: %d\n", report.Candidates, report.Due)
	if report.Sent > 0 {
		cli.Success(pluralize(report.Sent, "reminder") + " sent")
	}
	if report.Failed > 0 {
		cli.Warning(pluralize(report.Failed, "reminder") + " failed, retried on the next scan")
	}
	return nil
}

func init() {
	remindCmd.AddCommand(remindRunCmd)
	rootCmd.AddCommand(remindCmd)
}
