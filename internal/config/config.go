// Package config provides configuration management for gitprompt.
// Configuration is optional: defaults cover everything, and a missing
// config file is simply skipped. The tool never writes configuration —
// a prompt segment must stay side-effect-free.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for gitprompt.
type Config struct {
	Backend string        `mapstructure:"backend"`
	Display DisplayConfig `mapstructure:"display"`
	Theme   ThemeConfig   `mapstructure:"theme"`
}

// DisplayConfig holds default rendering options; command-line flags
// override these per invocation.
type DisplayConfig struct {
	Color   string `mapstructure:"color"`
	Sparse  bool   `mapstructure:"sparse"`
	HashLen int    `mapstructure:"hash_len"`
}

// ThemeConfig holds the colors used in decorated output. Values are
// anything lipgloss accepts: ANSI palette indexes or hex codes.
type ThemeConfig struct {
	ColorBranch      string `mapstructure:"color_branch"`
	ColorRemote      string `mapstructure:"color_remote"`
	ColorHeadless    string `mapstructure:"color_headless"`
	ColorCommit      string `mapstructure:"color_commit"`
	ColorConflict    string `mapstructure:"color_conflict"`
	ColorDivergence  string `mapstructure:"color_divergence"`
	ColorSync        string `mapstructure:"color_sync"`
	ColorWorkingTree string `mapstructure:"color_working_tree"`
	ColorIndex       string `mapstructure:"color_index"`
	ColorStash       string `mapstructure:"color_stash"`
	ColorAdd         string `mapstructure:"color_add"`
	ColorModify      string `mapstructure:"color_modify"`
	ColorDelete      string `mapstructure:"color_delete"`
	ColorRename      string `mapstructure:"color_rename"`
	ColorTypeChange  string `mapstructure:"color_typechange"`
}

// DefaultThemeConfig returns the default theme, matched to the basic
// ANSI palette so the prompt follows the terminal scheme.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorBranch:      "7",
		ColorRemote:      "4",
		ColorHeadless:    "4",
		ColorCommit:      "3",
		ColorConflict:    "1",
		ColorDivergence:  "1",
		ColorSync:        "2",
		ColorWorkingTree: "3",
		ColorIndex:       "2",
		ColorStash:       "6",
		ColorAdd:         "2",
		ColorModify:      "3",
		ColorDelete:      "1",
		ColorRename:      "6",
		ColorTypeChange:  "5",
	}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Backend: "git",
		Display: DisplayConfig{
			Color:   "auto",
			Sparse:  false,
			HashLen: 7,
		},
		Theme: DefaultThemeConfig(),
	}
}

// GetConfigPath returns the path of the optional config file.
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "gitprompt", "config.toml"), nil
}

// Load reads the config file if present and overlays it on defaults.
// A missing file is not an error and is never created.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return loadFrom(configPath)
}

func loadFrom(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("display.color", defaults.Display.Color)
	v.SetDefault("display.sparse", defaults.Display.Sparse)
	v.SetDefault("display.hash_len", defaults.Display.HashLen)

	theme := defaults.Theme
	v.SetDefault("theme.color_branch", theme.ColorBranch)
	v.SetDefault("theme.color_remote", theme.ColorRemote)
	v.SetDefault("theme.color_headless", theme.ColorHeadless)
	v.SetDefault("theme.color_commit", theme.ColorCommit)
	v.SetDefault("theme.color_conflict", theme.ColorConflict)
	v.SetDefault("theme.color_divergence", theme.ColorDivergence)
	v.SetDefault("theme.color_sync", theme.ColorSync)
	v.SetDefault("theme.color_working_tree", theme.ColorWorkingTree)
	v.SetDefault("theme.color_index", theme.ColorIndex)
	v.SetDefault("theme.color_stash", theme.ColorStash)
	v.SetDefault("theme.color_add", theme.ColorAdd)
	v.SetDefault("theme.color_modify", theme.ColorModify)
	v.SetDefault("theme.color_delete", theme.ColorDelete)
	v.SetDefault("theme.color_rename", theme.ColorRename)
	v.SetDefault("theme.color_typechange", theme.ColorTypeChange)
}
