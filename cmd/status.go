package cmd

import (
	"fmt"
	"strings"

	"github.com/bnema/noreveal/internal/config"
	"github.com/bnema/noreveal/internal/instance"
	"github.com/bnema/noreveal/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether NoReveal is running",
	Long:  `Check whether a NoReveal instance is running and show the configured policy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var output strings.Builder

		pid, running := instance.Running(config.Dir())
		if running {
			output.WriteString(ui.SuccessStyle.Render("● Running"))
			if pid > 0 {
				output.WriteString(ui.DimStyle.Render(fmt.Sprintf(" (pid %d)", pid)))
			}
		} else {
			output.WriteString(ui.ErrorStyle.Render("○ Not running"))
		}
		output.WriteString("\n")

		cfg := config.Get()
		policy := cfg.Policy()
		if policy.Active() {
			output.WriteString(fmt.Sprintf("Blocking %s, %dpx\n", policy.Edges, policy.Margin))
		} else {
			output.WriteString(ui.SubtleStyle.Render("Blocking disabled in configuration") + "\n")
		}
		output.WriteString(ui.DimStyle.Render("Config: "+config.GetConfigPath()) + "\n")

		fmt.Fprint(cmd.OutOrStdout(), output.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
