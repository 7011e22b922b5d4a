package main

import (
	"fmt"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/sidequest-dev/sidequest/internal/model"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the task history",
	Long: `Show completed and rejected quests, newest first.

When online the history is fetched from the server and the local copy is
refreshed; offline the local copy is shown.

The --since filter accepts natural language:
  sq history --since "last monday"
  sq history --since "3 days ago"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetString("since")

		var cutoff string
		if since != "" {
			t, err := parseSince(since)
			if err != nil {
				return err
			}
			cutoff = t.Format("2006-01-02")
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.close()

		entries, err := a.engine.TaskHistory(a.ctx)
		if err != nil {
			return err
		}

		shown := 0
		for _, e := range entries {
			if cutoff != "" && e.Date < cutoff {
				continue
			}
			printEntry(a, e)
			shown++
		}

		if shown == 0 {
			fmt.Println(a.theme.Muted.Render("No history yet"))
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the entire task history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.engine.ClearTaskHistory(a.ctx); err != nil {
			return err
		}
		fmt.Println(a.theme.RenderPass("History cleared"))
		return nil
	},
}

// parseSince turns a natural-language phrase into a point in time.
func parseSince(phrase string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(phrase, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse --since: %w", err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not understand --since %q", phrase)
	}
	return r.Time, nil
}

func printEntry(a *app, e model.TaskHistoryEntry) {
	line := fmt.Sprintf("%s %s  %s", e.Date, e.Time, e.Quest)
	if e.Status == model.StatusCompleted {
		line += a.theme.Good.Render(fmt.Sprintf("  +%d", e.Points))
	}
	line += "  " + a.theme.StatusText(e.Status)
	if e.Goal != nil {
		line += "  " + a.theme.RenderAccent("["+e.Goal.Title+"]")
	}
	fmt.Println(line)
}

func init() {
	historyCmd.Flags().String("since", "", "Only show entries since this time (natural language)")
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
