package cmd

import (
	"fmt"

	"github.com/bnema/noreveal/internal/config"
	"github.com/bnema/noreveal/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "noreveal",
		Short: "NoReveal - keep the cursor off the screen edges",
		Long: `NoReveal keeps the mouse cursor a few pixels away from selected screen
edges so auto-hidden panels and taskbars stay hidden.

Running without a subcommand is the same as 'noreveal run'. Moving the
cursor twice against a blocked edge within two seconds suspends blocking
for ten seconds.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
		RunE:              runNoReveal,
	}
)

// Execute runs the root command
func Execute() error {
	rootCmd.Version = Version
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is <user config dir>/noreveal/noreveal.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	addRunFlags(rootCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		config.SetConfigPath(configFile)
	}
	if err := config.Init(); err != nil {
		return err
	}

	level := logLevel
	if level == "" {
		level = config.Get().Logging.LogLevel
	}
	if level != "" {
		if err := logger.SetLevel(level); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}
	return nil
}
