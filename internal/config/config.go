// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bnema/noreveal/internal/confine"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Blocker BlockerConfig `mapstructure:"blocker"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BlockerConfig is the confinement policy as stored on disk
type BlockerConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	BlockDistance   int      `mapstructure:"block_distance"`   // Blocked strip width in pixels, 1..50
	RestrictedEdges []string `mapstructure:"restricted_edges"` // Top, Bottom, Left, Right
}

// UIConfig contains front-end settings
type UIConfig struct {
	StartMinimized    bool `mapstructure:"start_minimized"` // Run headless instead of showing the status UI
	ShowNotifications bool `mapstructure:"show_notifications"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	FileLogging bool   `mapstructure:"file_logging"` // Enable/disable file logging
	LogLevel    string `mapstructure:"log_level"`    // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Blocker: BlockerConfig{
			Enabled:         true,
			BlockDistance:   2,
			RestrictedEdges: []string{"Bottom"},
		},
		UI: UIConfig{
			StartMinimized:    true,
			ShowNotifications: true,
		},
		Logging: LoggingConfig{
			FileLogging: true, // Enable file logging by default
			LogLevel:    "",   // Empty means use LOG_LEVEL env var
		},
	}

	mu  sync.RWMutex
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Dir returns the per-user directory holding config, logs and the lock file
func Dir() string {
	if configPathOverride != "" {
		return filepath.Dir(configPathOverride)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "noreveal")
}

// LogDir returns where daily log files are written
func LogDir() string {
	return filepath.Join(Dir(), "logs")
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}
	return filepath.Join(Dir(), "noreveal.toml")
}

func setDefaults() {
	// Individual keys so a partial file merges with the defaults
	viper.SetDefault("blocker.enabled", DefaultConfig.Blocker.Enabled)
	viper.SetDefault("blocker.block_distance", DefaultConfig.Blocker.BlockDistance)
	viper.SetDefault("blocker.restricted_edges", DefaultConfig.Blocker.RestrictedEdges)

	viper.SetDefault("ui.start_minimized", DefaultConfig.UI.StartMinimized)
	viper.SetDefault("ui.show_notifications", DefaultConfig.UI.ShowNotifications)

	viper.SetDefault("logging.file_logging", DefaultConfig.Logging.FileLogging)
	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)
}

// Init initializes the configuration system. A missing file means defaults.
func Init() error {
	// Drop anything read from a previously selected file
	viper.Reset()
	viper.SetConfigType("toml")
	viper.SetConfigFile(GetConfigPath())
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c, err := load()
	if err != nil {
		return err
	}
	Set(c)
	return nil
}

// load unmarshals and validates whatever viper currently holds
func load() (*Config, error) {
	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	c.ValidateAndCorrect()
	return c, nil
}

// Get returns the current configuration. Callers must not modify it.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if cfg == nil {
		// Return defaults if not initialized
		d := DefaultConfig
		d.Blocker.RestrictedEdges = slices.Clone(DefaultConfig.Blocker.RestrictedEdges)
		return &d
	}
	return cfg
}

// Set sets the current configuration
func Set(c *Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
}

// Save writes c to the config file and makes it current
func Save(c *Config) error {
	configPath := GetConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// A separate instance, so the values do not become overrides on the
	// global one and hide later file edits
	v := viper.New()
	v.SetConfigType("toml")
	v.Set("blocker.enabled", c.Blocker.Enabled)
	v.Set("blocker.block_distance", c.Blocker.BlockDistance)
	v.Set("blocker.restricted_edges", c.Blocker.RestrictedEdges)
	v.Set("ui.start_minimized", c.UI.StartMinimized)
	v.Set("ui.show_notifications", c.UI.ShowNotifications)
	v.Set("logging.file_logging", c.Logging.FileLogging)
	v.Set("logging.log_level", c.Logging.LogLevel)

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	Set(c)
	return nil
}

// SetEnabled flips the persisted blocker.enabled flag and returns the new
// configuration
func SetEnabled(enabled bool) (*Config, error) {
	next := *Get()
	next.Blocker.RestrictedEdges = slices.Clone(next.Blocker.RestrictedEdges)
	next.Blocker.Enabled = enabled
	if err := Save(&next); err != nil {
		return nil, err
	}
	return &next, nil
}

// ValidateAndCorrect clamps the config into a usable state: a distance
// outside 1..50 becomes 1, unknown edges are dropped, duplicates removed and
// an empty edge list becomes Bottom. It returns a note per correction.
func (c *Config) ValidateAndCorrect() []string {
	var notes []string

	if c.Blocker.BlockDistance < confine.MinMargin || c.Blocker.BlockDistance > confine.MaxMargin {
		notes = append(notes, fmt.Sprintf("block_distance %d out of range, using %d", c.Blocker.BlockDistance, confine.MinMargin))
		c.Blocker.BlockDistance = confine.MinMargin
	}

	var set confine.EdgeSet
	for _, name := range c.Blocker.RestrictedEdges {
		e, err := confine.ParseEdge(name)
		if err != nil {
			notes = append(notes, fmt.Sprintf("ignoring unknown edge %q", name))
			continue
		}
		set = set.Add(e)
	}
	if set.Empty() {
		notes = append(notes, "no restricted edges, using Bottom")
		set = confine.NewEdgeSet(confine.Bottom)
	}

	edges := set.Edges()
	names := make([]string, len(edges))
	for i, e := range edges {
		names[i] = e.String()
	}
	c.Blocker.RestrictedEdges = names

	c.Logging.LogLevel = strings.TrimSpace(c.Logging.LogLevel)
	return notes
}

// Policy converts the blocker section into the engine's policy. Unknown edge
// names are skipped.
func (c *Config) Policy() confine.Policy {
	var set confine.EdgeSet
	for _, name := range c.Blocker.RestrictedEdges {
		if e, err := confine.ParseEdge(name); err == nil {
			set = set.Add(e)
		}
	}
	return confine.Policy{
		Enabled: c.Blocker.Enabled,
		Margin:  int32(c.Blocker.BlockDistance),
		Edges:   set,
	}
}
