package cmd

import (
	"fmt"

	"github.com/bnema/noreveal/internal/emergency"
	"github.com/spf13/cobra"
)

// releaseCmd asks a running instance to drop all blocking
var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Emergency release: stop blocking in the running instance",
	Long: `Ask the running NoReveal instance to stop blocking immediately. The
instance removes its mouse hook, clears the cursor confinement and stays
stopped until restarted.

On Unix 'kill -USR1 <pid>' does the same. This command is useful for
keybindings in window managers like Hyprland.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := emergency.Request(); err != nil {
			return fmt.Errorf("failed to request release: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Release requested (%s)\n", emergency.TriggerFile())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}
