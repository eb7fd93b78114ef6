package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Sim      SimConfig      `toml:"sim"`
	Viewport ViewportConfig `toml:"viewport"`
	Data     DataConfig     `toml:"data"`
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
	Feed     FeedConfig     `toml:"feed"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

type SimConfig struct {
	TickRate       Duration `toml:"tick_rate"`
	CellSize       float64  `toml:"cell_size"`        // default when the map file has none
	MaxCollideSpan float64  `toml:"max_collide_span"` // lower bound; raised by the catalog
	Seed           int64    `toml:"seed"`             // 0 = seed from the clock
	MaxTicks       uint64   `toml:"max_ticks"`        // 0 = run until the match ends
}

type ViewportConfig struct {
	WindowWidth   float64 `toml:"window_width"`
	WindowHeight  float64 `toml:"window_height"`
	WindowExtSize float64 `toml:"window_ext_size"` // culling margin around the window
}

type DataConfig struct {
	ObjectsFile string `toml:"objects_file"`
	MapFile     string `toml:"map_file"`
	ScriptsDir  string `toml:"scripts_dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// DatabaseConfig configures match result storage. An empty DSN disables it.
type DatabaseConfig struct {
	DSN             string   `toml:"dsn"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
}

// FeedConfig configures the spectator snapshot feed. An empty bind address
// disables it.
type FeedConfig struct {
	BindAddress        string   `toml:"bind_address"`
	SendQueue          int      `toml:"send_queue"`
	WriteTimeout       Duration `toml:"write_timeout"`
	MaxClients         int      `toml:"max_clients"`
	CommandsPerSec     int      `toml:"commands_per_sec"`      // per session, 0 = unlimited
	MaxCommandsPerTick int      `toml:"max_commands_per_tick"` // 0 = drain all
}

// Duration decodes TOML strings such as "16ms" or "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs error
	if c.Sim.TickRate.Duration <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("sim.tick_rate must be positive, got %s", c.Sim.TickRate.Duration))
	}
	if c.Sim.CellSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("sim.cell_size must be positive, got %g", c.Sim.CellSize))
	}
	if c.Sim.MaxCollideSpan < 0 {
		errs = multierr.Append(errs, fmt.Errorf("sim.max_collide_span must not be negative, got %g", c.Sim.MaxCollideSpan))
	}
	if c.Viewport.WindowWidth <= 0 || c.Viewport.WindowHeight <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("viewport window size must be positive, got %gx%g",
			c.Viewport.WindowWidth, c.Viewport.WindowHeight))
	}
	if c.Viewport.WindowExtSize < 0 {
		errs = multierr.Append(errs, fmt.Errorf("viewport.window_ext_size must not be negative, got %g", c.Viewport.WindowExtSize))
	}
	if c.Data.ObjectsFile == "" {
		errs = multierr.Append(errs, fmt.Errorf("data.objects_file is required"))
	}
	if c.Data.MapFile == "" {
		errs = multierr.Append(errs, fmt.Errorf("data.map_file is required"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if c.Feed.BindAddress != "" && c.Feed.SendQueue <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("feed.send_queue must be positive, got %d", c.Feed.SendQueue))
	}
	return errs
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "arena",
		},
		Sim: SimConfig{
			TickRate:       Duration{16 * time.Millisecond},
			CellSize:       64,
			MaxCollideSpan: 0,
		},
		Viewport: ViewportConfig{
			WindowWidth:   1280,
			WindowHeight:  720,
			WindowExtSize: 64,
		},
		Data: DataConfig{
			ObjectsFile: "data/yaml/objects.yaml",
			MapFile:     "data/yaml/maps/arena.yaml",
			ScriptsDir:  "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: Duration{30 * time.Minute},
		},
		Feed: FeedConfig{
			SendQueue:          64,
			WriteTimeout:       Duration{5 * time.Second},
			MaxClients:         32,
			CommandsPerSec:     30,
			MaxCommandsPerTick: 64,
		},
	}
}
