package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sidequest-dev/sidequest/internal/model"
	"github.com/sidequest-dev/sidequest/internal/questgen"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's quests",
	Long: `Show the quest list for today.

The list is derived from a daily seed shared across devices, so every
logged-in device shows the same quests. The seed rolls over at local
midnight.

Example usage:
  sq today
  sq today --count 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")

		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.close()

		if count <= 0 {
			count = a.cfg.QuestCount
		}

		rec, err := a.engine.Seed(a.ctx, model.DayOfYear(time.Now()))
		if err != nil {
			return err
		}

		gen, err := newGenerator(a)
		if err != nil {
			return err
		}

		quests, err := gen.Generate(a.ctx, rec, count)
		if err != nil {
			return err
		}

		fmt.Println(a.theme.Heading(time.Now().Format("Monday, January 2")))
		for i, q := range quests {
			fmt.Printf("%d. %s %s\n", i+1, q.Title,
				a.theme.Muted.Render(fmt.Sprintf("(%d pts, %s)", q.Points, q.Category)))
		}

		progress, err := a.engine.Progress(a.ctx)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(a.theme.LabelValue("Points", progress.Points))
		fmt.Println(a.theme.LabelValue("Streak", progress.Streak))
		return nil
	},
}

// newGenerator picks the quest source: a custom pool file when
// configured, the Anthropic generator when a key is present, the
// built-in pool otherwise.
func newGenerator(a *app) (questgen.Generator, error) {
	var static *questgen.StaticGenerator
	var err error
	if a.cfg.QuestPool != "" {
		static, err = questgen.NewStaticFromFile(a.cfg.QuestPool)
	} else {
		static, err = questgen.NewStatic()
	}
	if err != nil {
		return nil, err
	}

	if a.cfg.AnthropicKey != "" {
		return questgen.NewAnthropic(a.cfg.AnthropicKey, static, a.cfg.NewLogger("questgen"))
	}
	return static, nil
}

func init() {
	todayCmd.Flags().IntP("count", "n", 0, "Number of quests to show")
	rootCmd.AddCommand(todayCmd)
}
