package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	FileName     = "pomotrack.yaml"
	StoreSQLite  = "sqlite"
	StoreFile    = "file"
	envPrefix    = "POMOTRACK"
	dbFileName   = "pomotrack.db"
	defaultLevel = "warn"
)

type Config struct {
	DataDir  string
	DBPath   string
	Store    string
	LogLevel string
	LogFile  string
	Timer    TimerConfig
	Notify   NotifyConfig
}

type TimerConfig struct {
	DefaultMinutes int
	PresetsMinutes []int
}

type NotifyConfig struct {
	Enabled   bool
	TimeoutMS int
}

// DefaultSeconds is the countdown length a fresh timer starts with.
func (t TimerConfig) DefaultSeconds() int {
	return t.DefaultMinutes * 60
}

func (t TimerConfig) PresetSeconds() []int {
	out := make([]int, 0, len(t.PresetsMinutes))
	for _, m := range t.PresetsMinutes {
		out = append(out, m*60)
	}
	return out
}

// New reads <dataDir>/pomotrack.yaml when present and layers POMOTRACK_*
// environment overrides on top of the defaults.
func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", StoreSQLite)
	v.SetDefault("log_level", defaultLevel)
	v.SetDefault("log_file", "")
	v.SetDefault("timer.default_minutes", 25)
	v.SetDefault("timer.presets_minutes", []int{25, 60, 90})
	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.timeout_ms", 3000)

	path := filepath.Join(dataDir, FileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := Config{
		DataDir:  dataDir,
		DBPath:   filepath.Join(dataDir, dbFileName),
		Store:    strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		LogLevel: v.GetString("log_level"),
		LogFile:  v.GetString("log_file"),
		Timer: TimerConfig{
			DefaultMinutes: v.GetInt("timer.default_minutes"),
			PresetsMinutes: v.GetIntSlice("timer.presets_minutes"),
		},
		Notify: NotifyConfig{
			Enabled:   v.GetBool("notify.enabled"),
			TimeoutMS: v.GetInt("notify.timeout_ms"),
		},
	}
	if cfg.LogFile != "" && !filepath.IsAbs(cfg.LogFile) {
		cfg.LogFile = filepath.Join(dataDir, cfg.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreFile:
	default:
		return fmt.Errorf("unsupported store %q (want %s or %s)", c.Store, StoreSQLite, StoreFile)
	}
	if c.Timer.DefaultMinutes <= 0 {
		return fmt.Errorf("timer.default_minutes must be positive")
	}
	for _, m := range c.Timer.PresetsMinutes {
		if m <= 0 {
			return fmt.Errorf("timer.presets_minutes must be positive, got %d", m)
		}
	}
	if c.Notify.TimeoutMS <= 0 {
		return fmt.Errorf("notify.timeout_ms must be positive")
	}
	return nil
}

// DefaultDataDir follows the XDG base directory layout.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "pomotrack")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pomotrack"
	}
	return filepath.Join(home, ".local", "share", "pomotrack")
}
