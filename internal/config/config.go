package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/attain/internal/model"
)

// Config holds all attain configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Animation  AnimationConfig  `toml:"animation"`
	TUI        TUIConfig        `toml:"tui"`
	Daemon     DaemonConfig     `toml:"daemon"`
	AMQP       AMQPConfig       `toml:"amqp"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds data source and range preferences.
type GeneralConfig struct {
	DefaultRange string `toml:"default_range"`
	Source       string `toml:"source"`
	DataFile     string `toml:"data_file,omitempty"`
	DBPath       string `toml:"db_path,omitempty"`
}

// AnimationConfig controls how displayed numbers move to new values.
type AnimationConfig struct {
	DurationMS int `toml:"duration_ms"`
	FPS        int `toml:"fps"`
}

// TUIConfig holds dashboard refresh settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// DaemonConfig holds background poller settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AMQPConfig configures the optional event publisher. An empty URL disables it.
type AMQPConfig struct {
	URL        string `toml:"url,omitempty"`
	Exchange   string `toml:"exchange"`
	RoutingKey string `toml:"routing_key"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// Sources lists the accepted values of general.source.
var Sources = []string{"demo", "file", "sqlite"}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultRange: model.Month.String(),
			Source:       "demo",
		},
		Animation: AnimationConfig{
			DurationMS: 500,
			FPS:        60,
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 30,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8788",
			IntervalSec:  15,
			EventsBuffer: 200,
		},
		AMQP: AMQPConfig{
			Exchange:   "attain",
			RoutingKey: "attain.events",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "attain")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "attain")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if _, err := model.ParseTimeRange(c.General.DefaultRange); err != nil {
		errs = append(errs, fmt.Errorf("general.default_range: %w", err))
	}
	if !validSource(c.General.Source) {
		errs = append(errs, fmt.Errorf("general.source: %q is not one of %v", c.General.Source, Sources))
	}
	if c.General.Source == "file" && DataFile(c) == "" {
		errs = append(errs, errors.New("general.data_file: required when source is \"file\""))
	}
	if c.General.Source == "sqlite" && DBPath(c) == "" {
		errs = append(errs, errors.New("general.db_path: required when source is \"sqlite\""))
	}
	if c.Animation.DurationMS < 0 {
		errs = append(errs, errors.New("animation.duration_ms: must not be negative"))
	}
	if c.Animation.FPS < 0 || c.Animation.FPS > 240 {
		errs = append(errs, errors.New("animation.fps: must be between 0 and 240"))
	}
	if c.TUI.RefreshIntervalSec < 0 {
		errs = append(errs, errors.New("tui.refresh_interval_sec: must not be negative"))
	}
	if c.Daemon.IntervalSec < 0 {
		errs = append(errs, errors.New("daemon.interval_sec: must not be negative"))
	}
	if c.Daemon.EventsBuffer < 0 {
		errs = append(errs, errors.New("daemon.events_buffer: must not be negative"))
	}

	return errors.Join(errs...)
}

func validSource(s string) bool {
	for _, v := range Sources {
		if s == v {
			return true
		}
	}
	return false
}

// AnimationDuration returns the configured animation length.
func (c Config) AnimationDuration() time.Duration {
	return time.Duration(c.Animation.DurationMS) * time.Millisecond
}

// RefreshInterval returns the TUI auto-refresh period, or 0 when disabled.
func (c Config) RefreshInterval() time.Duration {
	if !c.TUI.AutoRefresh || c.TUI.RefreshIntervalSec <= 0 {
		return 0
	}
	return time.Duration(c.TUI.RefreshIntervalSec) * time.Second
}

// DataFile returns the dataset path from env var or config, in that order.
func DataFile(cfg Config) string {
	if p := os.Getenv("ATTAIN_DATA_FILE"); p != "" {
		return p
	}
	return cfg.General.DataFile
}

// DBPath returns the SQLite path from env var or config, in that order.
func DBPath(cfg Config) string {
	if p := os.Getenv("ATTAIN_DB_PATH"); p != "" {
		return p
	}
	return cfg.General.DBPath
}

// AMQPURL returns the broker URL from env var or config, in that order.
func AMQPURL(cfg Config) string {
	if u := os.Getenv("ATTAIN_AMQP_URL"); u != "" {
		return u
	}
	return cfg.AMQP.URL
}
