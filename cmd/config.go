package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/bnema/noreveal/internal/config"
	"github.com/bnema/noreveal/internal/confine"
	"github.com/bnema/noreveal/internal/logger"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage NoReveal configuration",
	Long:  `Manage the NoReveal configuration file: blocked edges, margin and UI settings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Config file: %s\n\n", config.GetConfigPath())

		fmt.Fprintln(out, "[blocker]")
		fmt.Fprintf(out, "  Enabled:          %v\n", cfg.Blocker.Enabled)
		fmt.Fprintf(out, "  Block Distance:   %d px\n", cfg.Blocker.BlockDistance)
		fmt.Fprintf(out, "  Restricted Edges: %s\n", strings.Join(cfg.Blocker.RestrictedEdges, ", "))

		fmt.Fprintln(out, "\n[ui]")
		fmt.Fprintf(out, "  Start Minimized:    %v\n", cfg.UI.StartMinimized)
		fmt.Fprintf(out, "  Show Notifications: %v\n", cfg.UI.ShowNotifications)

		fmt.Fprintln(out, "\n[logging]")
		fmt.Fprintf(out, "  File Logging: %v\n", cfg.Logging.FileLogging)
		level := cfg.Logging.LogLevel
		if level == "" {
			level = "(LOG_LEVEL or info)"
		}
		fmt.Fprintf(out, "  Log Level:    %s\n", level)
		fmt.Fprintf(out, "  Log Dir:      %s\n", config.LogDir())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.GetConfigPath())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.GetConfigPath()
		if _, err := os.Stat(configPath); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				logger.Infof("Configuration file already exists at: %s", configPath)
				logger.Info("Use --force to overwrite")
				return nil
			}
		}

		d := config.DefaultConfig
		d.Blocker.RestrictedEdges = slices.Clone(config.DefaultConfig.Blocker.RestrictedEdges)
		if err := config.Save(&d); err != nil {
			return err
		}

		logger.Infof("Configuration initialized at: %s", configPath)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the blocker settings interactively",
	Long: `Edit the blocker settings with an interactive form. A running instance
picks up the saved file automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		current := config.Get()
		next := *current
		next.Blocker.RestrictedEdges = slices.Clone(current.Blocker.RestrictedEdges)

		distance := strconv.Itoa(next.Blocker.BlockDistance)

		edgeOptions := make([]huh.Option[string], len(confine.AllEdges))
		for i, e := range confine.AllEdges {
			edgeOptions[i] = huh.NewOption(e.String(), e.String())
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Enable edge blocking?").
					Value(&next.Blocker.Enabled),
				huh.NewInput().
					Title("Block distance").
					Description(fmt.Sprintf("Width of the blocked strip in pixels (%d-%d)", confine.MinMargin, confine.MaxMargin)).
					Value(&distance).
					Validate(validateDistance),
				huh.NewMultiSelect[string]().
					Title("Restricted edges").
					Options(edgeOptions...).
					Value(&next.Blocker.RestrictedEdges).
					Validate(func(v []string) error {
						if len(v) == 0 {
							return fmt.Errorf("select at least one edge")
						}
						return nil
					}),
			),
			huh.NewGroup(
				huh.NewConfirm().
					Title("Start without the status screen?").
					Value(&next.UI.StartMinimized),
				huh.NewConfirm().
					Title("Show desktop notifications?").
					Value(&next.UI.ShowNotifications),
			),
		)

		if err := form.Run(); err != nil {
			return fmt.Errorf("edit cancelled: %w", err)
		}

		next.Blocker.BlockDistance, _ = strconv.Atoi(strings.TrimSpace(distance))
		for _, note := range next.ValidateAndCorrect() {
			logger.Warn(note)
		}
		if err := config.Save(&next); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

func validateDistance(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if n < confine.MinMargin || n > confine.MaxMargin {
		return fmt.Errorf("must be between %d and %d", confine.MinMargin, confine.MaxMargin)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)

	configInitCmd.Flags().Bool("force", false, "Force overwrite existing configuration")
	rootCmd.AddCommand(configCmd)
}
