package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidequest-dev/sidequest/internal/model"
)

var completeCmd = &cobra.Command{
	Use:   "complete <quest>",
	Short: "Mark a quest completed and claim its points",
	Long: `Mark a quest completed. Points are added to the total, the daily
streak advances, and the completion lands in the task history.

A completion can be linked to a long-term goal; the goal's progress on
the server is bumped as well.

Example usage:
  sq complete "Take a 20 minute walk outside" --points 10
  sq complete "Run 5k" --points 30 --goal g-42 --goal-title "Marathon prep"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, _ := cmd.Flags().GetInt("points")
		goalID, _ := cmd.Flags().GetString("goal")
		goalTitle, _ := cmd.Flags().GetString("goal-title")
		goalCategory, _ := cmd.Flags().GetString("goal-category")
		goalProgress, _ := cmd.Flags().GetInt("goal-progress")

		if points <= 0 {
			return fmt.Errorf("points must be positive")
		}

		var goal *model.GoalInfo
		if goalID != "" {
			goal = &model.GoalInfo{GoalID: goalID, Title: goalTitle, Category: goalCategory}
		}

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.close()

		quest := strings.Join(args, " ")
		progress, err := a.engine.CompleteQuest(a.ctx, quest, points, goal, goalProgress, time.Now())
		if err != nil {
			return err
		}

		fmt.Println(a.theme.RenderPass(fmt.Sprintf("%s (+%d pts)", quest, points)))
		fmt.Println(a.theme.LabelValue("Points", progress.Points))
		fmt.Println(a.theme.LabelValue("Streak", progress.Streak))
		if !a.engine.Online() {
			fmt.Println(a.theme.RenderWarn("Offline: will sync when the server is reachable"))
		}
		return nil
	},
}

func init() {
	completeCmd.Flags().IntP("points", "p", 10, "Points the quest is worth")
	completeCmd.Flags().String("goal", "", "Goal ID to credit")
	completeCmd.Flags().String("goal-title", "", "Goal title, for the history entry")
	completeCmd.Flags().String("goal-category", "", "Goal category, for the history entry")
	completeCmd.Flags().Int("goal-progress", 1, "Goal progress increment")
	rootCmd.AddCommand(completeCmd)
}
