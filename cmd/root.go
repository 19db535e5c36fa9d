// Package cmd provides the CLI commands for escape-bot.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kipper0508/escape-bot/internal/config"
	"github.com/kipper0508/escape-bot/internal/errors"
	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/output"
	"github.com/kipper0508/escape-bot/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat  string
	flagColor   string
	flagDebug   bool
	flagEnvFile string
)

// Shared state set up before every command.
var (
	cfg       *config.RuntimeConfig
	formatter *output.Formatter
	app       *runtime.App
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "escape-bot",
	Short: "A LINE chat bot for planning escape-room outings",
	Long: `escape-bot answers "小精靈" commands in LINE groups: it schedules
escape-room games from the escape.bar catalog, warns about clashing
bookings, summarizes player reviews and pushes reminders before each game.

Examples:
  escape-bot serve
  escape-bot parse "小精靈 新增 6/20 16:00 籠中鳥"
  escape-bot events list --creator C1234 --kind group
  escape-bot remind run`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var envFiles []string
		if flagEnvFile != "" {
			envFiles = append(envFiles, flagEnvFile)
		}
		var err error
		cfg, err = config.Load(envFiles...)
		if err != nil {
			return err
		}

		if flagDebug {
			logging.InitDebug()
		} else {
			level, err := logging.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			logging.Init(logging.Config{
				Level:  level,
				JSON:   cfg.Log.JSON,
				Output: os.Stderr,
				File:   cfg.Log.File,
			})
		}

		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		formatter = output.NewFormatter()
		formatter.Format = output.ParseFormat(flagFormat)
		formatter.ColorMode = output.ParseColorMode(flagColor)
		formatter.Location = loc
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if app != nil {
			err = app.Close()
			app = nil
		}
		_ = logging.Close()
		return err
	},
}

// openApp wires the bot components for commands that need the store.
func openApp(ctx context.Context) (*runtime.App, error) {
	if app != nil {
		return app, nil
	}
	var err error
	app, err = runtime.New(ctx, cfg, Version)
	return app, err
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		Die(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "",
		"Load environment from this file instead of .env")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("escape-bot %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
	},
}

// Die prints an error and exits.
func Die(err error) {
	if formatter != nil && formatter.IsJSON() {
		_ = output.NewJSONFormatter(formatter).PrintError(err, errors.GetSuggestion(err))
	} else {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		if flagDebug {
			for _, link := range errors.Chain(err)[1:] {
				os.Stderr.WriteString("  caused by: " + link + "\n")
			}
		}
	}
	os.Exit(1)
}
