package cmd

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/output"
)

var errMissingToken = errors.New("LINE_CHANNEL_ACCESS_TOKEN is required")

// Events command flags.
var (
	eventsFlagCreator string
	eventsFlagKind    string
	eventsFlagHistory bool
)

// eventsCmd groups stored event commands.
var eventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"e"},
	Short:   "Inspect stored events",
}

// eventsListCmd lists a chat's events.
var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events",
	Long: `List upcoming events, or past ones with --history. Without --creator
every chat's events are listed.

Examples:
  escape-bot events list
  escape-bot events list --creator C1234 --kind group
  escape-bot events list --creator U5678 --kind user --history -f json`,
	RunE: runEventsList,
}

func runEventsList(cmd *cobra.Command, args []string) error {
	creator := model.Creator{ID: eventsFlagCreator, Kind: model.CreatorKind(eventsFlagKind)}
	if creator.ID != "" && !creator.Kind.Valid() {
		return fmt.Errorf("invalid --kind %q (use user or group)", eventsFlagKind)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	now := time.Now()

	var events []*model.Event
	switch {
	case creator.ID == "":
		all, err := a.Store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range all {
			if e.EventTime.After(now) != eventsFlagHistory {
				events = append(events, e)
			}
		}
		slices.SortFunc(events, func(x, y *model.Event) int { return x.EventTime.Compare(y.EventTime) })
	case eventsFlagHistory:
		events, err = a.Store.FindHistory(cmd.Context(), creator, now)
	default:
		events, err = a.Store.FindUpcoming(cmd.Context(), creator, now)
	}
	if err != nil {
		return err
	}

	if formatter.IsJSON() {
		return output.NewJSONFormatter(formatter).PrintEvents(events)
	}
	title := "Upcoming events"
	if eventsFlagHistory {
		title = "Past events"
	}
	output.NewCLIFormatter(formatter).PrintEvents(title, events, now)
	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func init() {
	eventsListCmd.Flags().StringVar(&eventsFlagCreator, "creator", "", "LINE user or group ID")
	eventsListCmd.Flags().StringVar(&eventsFlagKind, "kind", string(model.CreatorGroup), "Creator kind: user, group")
	eventsListCmd.Flags().BoolVar(&eventsFlagHistory, "history", false, "List past events instead")

	eventsCmd.AddCommand(eventsListCmd)
	rootCmd.AddCommand(eventsCmd)
}
