package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var rejectCmd = &cobra.Command{
	Use:   "reject <quest>",
	Short: "Reroll a quest you don't want today",
	Long: `Reject a quest. The rejection is counted against today and recorded
in the task history; no points change hands.

Example usage:
  sq reject "Meditate for 10 minutes"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.close()

		quest := strings.Join(args, " ")
		info, err := a.engine.RejectQuest(a.ctx, quest, time.Now())
		if err != nil {
			return err
		}

		fmt.Println(a.theme.Muted.Render(fmt.Sprintf("Rejected %q (%d today)", quest, info.Count)))
		if !a.engine.Online() {
			fmt.Println(a.theme.RenderWarn("Offline: will sync when the server is reachable"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rejectCmd)
}
