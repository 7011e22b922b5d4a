package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity, session and pending sync state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.close()

		fmt.Println(a.theme.LabelValue("Server", a.cfg.ServerURL))
		fmt.Println(a.theme.LabelValue("Connectivity", a.theme.ConnectivityText(a.engine.Online())))

		if a.tokens.LoggedIn(a.ctx) {
			line := "logged in"
			if exp, err := a.tokens.ExpiresAt(a.ctx); err == nil && !exp.IsZero() {
				if time.Now().After(exp) {
					line = "session expired, run `sq login`"
				} else {
					line = fmt.Sprintf("logged in (session ends %s)", exp.Local().Format("2006-01-02 15:04"))
				}
			}
			fmt.Println(a.theme.LabelValue("Session", line))
		} else {
			fmt.Println(a.theme.LabelValue("Session", a.theme.Muted.Render("logged out")))
		}

		scalar, history := a.engine.PendingOps()
		if scalar+history == 0 {
			fmt.Println(a.theme.LabelValue("Pending", "nothing to sync"))
		} else {
			fmt.Println(a.theme.LabelValue("Pending",
				a.theme.Warn.Render(fmt.Sprintf("%d operations waiting for connectivity", scalar+history))))
		}

		count, err := a.store.HistoryCount(a.ctx)
		if err == nil {
			fmt.Println(a.theme.LabelValue("History", fmt.Sprintf("%d entries cached locally", count)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
