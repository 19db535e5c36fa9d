package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/kipper0508/escape-bot/internal/output"
	"github.com/kipper0508/escape-bot/internal/parser"
)

// parseCmd shows how a chat line is understood.
var parseCmd = &cobra.Command{
	Use:   "parse TEXT...",
	Short: "Parse a chat line and print the command",
	Long: `Parse a chat line exactly as the webhook would and print the result as JSON.
Relative dates resolve against the current time in $EVENT_TIMEZONE.

Examples:
  escape-bot parse "小精靈 新增 6/20 16:00 籠中鳥 (台北 1)"
  escape-bot parse 小精靈 查詢 籠中鳥 明天`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	p := parser.New(parser.WithTrigger(cfg.Bot.Trigger), parser.WithLocation(loc))

	input := strings.Join(args, " ")
	return output.NewJSONFormatter(formatter).PrintCommand(input, p.Parse(input))
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
