package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sidequest-dev/sidequest/internal/model"
)

var themeCmd = &cobra.Command{
	Use:   "theme [light|dark|system]",
	Short: "Show or set the theme preference",
	Long: `Show or set the theme preference. The preference syncs across
devices like everything else.

Example usage:
  sq theme          # show the current preference
  sq theme dark     # switch to the dark palette`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.close()

		if len(args) == 0 {
			mode, err := a.engine.Theme(a.ctx)
			if err != nil {
				return err
			}
			fmt.Println(a.theme.LabelValue("Theme", strings.ToLower(mode.String())))
			return nil
		}

		var mode model.ThemeMode
		switch strings.ToLower(args[0]) {
		case "light":
			mode = model.ThemeLight
		case "dark":
			mode = model.ThemeDark
		case "system":
			mode = model.ThemeSystem
		default:
			return fmt.Errorf("unknown theme %q, want light, dark or system", args[0])
		}

		confirmed, err := a.engine.SaveTheme(a.ctx, mode)
		if err != nil {
			return err
		}
		fmt.Println(a.theme.RenderPass("Theme set to " + strings.ToLower(confirmed.String())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
