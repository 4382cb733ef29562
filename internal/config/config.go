package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppName names the config, data and state directories.
const AppName = "tonearm"

const (
	envPrefix = "TONEARM_"

	DefaultPollInterval = time.Second
	MinPollInterval     = 100 * time.Millisecond
	DefaultLogLevel     = "info"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	LibrarySources []string      `koanf:"library_sources"` // directories indexed for music
	IndexPath      string        `koanf:"index_path"`      // media index database, empty means XDG data dir
	PollInterval   time.Duration `koanf:"poll_interval"`   // UI position refresh rate
	AutoAdvance    *bool         `koanf:"auto_advance"`    // play next track at end of track (default: true)
	Notifications  *bool         `koanf:"notifications"`   // desktop notification on track start (default: true)
	IndexWorkers   int           `koanf:"index_workers"`   // 0 means one per CPU

	Log LogConfig `koanf:"log"`
}

// LogConfig controls the log file. The terminal belongs to the UI.
type LogConfig struct {
	File  string `koanf:"file"`  // empty means XDG state dir
	Level string `koanf:"level"` // debug, info, warn, error
}

func Load() (*Config, error) {
	return loadFrom(getConfigPaths())
}

// LoadFile reads a single config file instead of the search path.
// Environment overrides still apply.
func LoadFile(path string) (*Config, error) {
	path = expandPath(path)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return loadFrom([]string{path})
}

func loadFrom(configPaths []string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
		}
	}

	// TONEARM_POLL_INTERVAL=500ms, TONEARM_LOG__LEVEL=debug
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	for i, src := range cfg.LibrarySources {
		cfg.LibrarySources[i] = expandPath(strings.TrimSpace(src))
	}
	if len(cfg.LibrarySources) == 0 && xdg.UserDirs.Music != "" {
		cfg.LibrarySources = []string{xdg.UserDirs.Music}
	}
	cfg.IndexPath = expandPath(cfg.IndexPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) validate() error {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollInterval < MinPollInterval {
		return fmt.Errorf("%w: poll_interval %s is below %s", ErrInvalid, c.PollInterval, MinPollInterval)
	}
	if c.IndexWorkers < 0 {
		return fmt.Errorf("%w: index_workers must not be negative", ErrInvalid)
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "":
		c.Log.Level = DefaultLogLevel
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. $XDG_CONFIG_HOME/tonearm/config.toml
	if xdg.ConfigHome != "" {
		paths = append(paths, filepath.Join(xdg.ConfigHome, AppName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// AutoAdvanceEnabled reports whether playback moves on at end of track.
func (c *Config) AutoAdvanceEnabled() bool {
	return c.AutoAdvance == nil || *c.AutoAdvance
}

// NotificationsEnabled reports whether track changes raise desktop notifications.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications == nil || *c.Notifications
}

// IndexPathOrDefault returns the media index location.
func (c *Config) IndexPathOrDefault() (string, error) {
	if c.IndexPath != "" {
		return c.IndexPath, nil
	}
	return xdg.DataFile(filepath.Join(AppName, "index.db"))
}

// LogPathOrDefault returns the log file location.
func (c *Config) LogPathOrDefault() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	return xdg.StateFile(filepath.Join(AppName, AppName+".log"))
}
