package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/noreveal/internal/config"
	"github.com/bnema/noreveal/internal/confine"
	"github.com/bnema/noreveal/internal/emergency"
	"github.com/bnema/noreveal/internal/engine"
	"github.com/bnema/noreveal/internal/instance"
	"github.com/bnema/noreveal/internal/logger"
	"github.com/bnema/noreveal/internal/notify"
	"github.com/bnema/noreveal/internal/platform"
	"github.com/bnema/noreveal/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const notifyTitle = "NoReveal"

var (
	forceTUI      bool
	forceHeadless bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start blocking the configured screen edges",
	Long: `Start NoReveal in the foreground. With ui.start_minimized = true (the
default) it runs headless until interrupted; otherwise a status screen is
shown with keys to toggle blocking, trigger the fail-safe, refresh the
screen bounds and disable everything in an emergency.`,
	RunE: runNoReveal,
}

func addRunFlags(c *cobra.Command) {
	c.Flags().BoolVar(&forceTUI, "tui", false, "show the status screen even if ui.start_minimized is set")
	c.Flags().BoolVar(&forceHeadless, "headless", false, "run without the status screen")
	c.MarkFlagsMutuallyExclusive("tui", "headless")
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runNoReveal(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	lock, err := instance.Acquire(config.Dir())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warnf("Failed to release instance lock: %v", err)
		}
	}()

	if cfg.Logging.FileLogging {
		path, err := logger.SetupFileLogging(config.LogDir())
		if err != nil {
			logger.Warnf("File logging disabled: %v", err)
		} else {
			logger.Debugf("Logging to %s", path)
			defer logger.CloseFileLogging()
		}
	}

	plat, err := platform.New()
	if err != nil {
		return fmt.Errorf("failed to initialize platform: %w", err)
	}
	defer plat.Close()

	eng := engine.New(plat, cfg.Policy())
	defer func() {
		if err := eng.Dispose(); err != nil {
			logger.Warnf("Shutdown incomplete: %v", err)
		}
	}()

	notifier := notify.Gated{
		Notifier: notify.New(),
		Show:     func() bool { return config.Get().UI.ShowNotifications },
	}
	defer notifier.Close()

	eng.OnStatus(func(msg string) {
		if err := notifier.Notify(notifyTitle, msg); err != nil {
			logger.Debugf("Notification failed: %v", err)
		}
	})

	if !eng.Start() {
		return errors.New("failed to start: mouse hook could not be installed")
	}

	policy := eng.Policy()
	startMsg := fmt.Sprintf("NoReveal started - Blocking %d edge(s)", policy.Edges.Len())
	logger.Infof("%s: %s", startMsg, policy.Edges)
	if err := notifier.Notify(notifyTitle, startMsg); err != nil {
		logger.Debugf("Notification failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	watcher := emergency.NewWatcher(func(reason string) {
		logger.Warnf("Emergency release requested (%s)", reason)
		if err := eng.EmergencyDisable(); err != nil {
			logger.Errorf("Emergency disable incomplete: %v", err)
		}
	})
	watcher.Start(ctx)
	defer watcher.Stop()

	go func() {
		if err := config.Watch(ctx, func(c *config.Config) { applyConfig(eng, c) }); err != nil {
			logger.Warnf("Config changes will not be picked up: %v", err)
		}
	}()

	toggle := func() error { return toggleBlocking(eng) }

	if useTUI(cfg) {
		return runStatusUI(ctx, eng, toggle)
	}

	logger.Info("Running headless, press Ctrl+C to exit")
	<-ctx.Done()
	logger.Info("Shutting down")
	return nil
}

func useTUI(cfg *config.Config) bool {
	switch {
	case forceTUI:
		return true
	case forceHeadless:
		return false
	default:
		return !cfg.UI.StartMinimized
	}
}

// configTarget is what a config change is applied to
type configTarget interface {
	UpdateConfiguration(p confine.Policy)
	Resume() bool
}

// applyPolicy updates the engine and brings a stopped one back when the
// policy is active, as after an emergency disable
func applyPolicy(t configTarget, p confine.Policy) {
	t.UpdateConfiguration(p)
	if p.Active() && !t.Resume() {
		logger.Warn("Blocking is enabled but the engine could not restart - restart NoReveal to restore it")
	}
}

func applyConfig(t configTarget, c *config.Config) {
	if logLevel == "" && c.Logging.LogLevel != "" {
		if err := logger.SetLevel(c.Logging.LogLevel); err != nil {
			logger.Warnf("Ignoring log level: %v", err)
		}
	}
	applyPolicy(t, c.Policy())
}

// toggleTarget is the engine surface the toggle action needs
type toggleTarget interface {
	configTarget
	ActivateFailSafe() bool
}

// toggleBlocking flips and persists blocker.enabled, applies it and records a
// fail-safe trigger, so toggling twice quickly also suspends blocking
func toggleBlocking(t toggleTarget) error {
	next, err := config.SetEnabled(!config.Get().Blocker.Enabled)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	applyPolicy(t, next.Policy())
	t.ActivateFailSafe()

	state := "disabled"
	if next.Blocker.Enabled {
		state = "enabled"
	}
	logger.Infof("Blocking %s", state)
	return nil
}

func runStatusUI(ctx context.Context, eng *engine.Engine, toggle func() error) error {
	feed := ui.NewFeed(256)
	defer feed.Close()

	model := ui.NewStatusModel(eng, toggle)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	logger.SetConsole(feed)
	defer logger.SetConsole(os.Stderr)
	eng.OnStatus(feed.Status)
	go feed.Run(p.Send)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("status screen failed: %w", err)
	}
	return nil
}
