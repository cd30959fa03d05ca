package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/flockgo/flockd/internal/boid"
)

// ErrInvalid marks a configuration rejected by Validate.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Spawn     SpawnConfig     `toml:"spawn"`
	Flock     boid.Params     `toml:"flock"`
	Attractor AttractorConfig `toml:"attractor"`
	Formation FormationConfig `toml:"formation"`
	Loop      LoopConfig      `toml:"loop"`
	Data      DataConfig      `toml:"data"`
	Scripting ScriptingConfig `toml:"scripting"`
	Database  DatabaseConfig  `toml:"database"`
	Journal   JournalConfig   `toml:"journal"`
	Logging   LoggingConfig   `toml:"logging"`
}

type SpawnConfig struct {
	NumBoids    int           `toml:"num_boids"`
	SpawnRadius float64       `toml:"spawn_radius"`
	SpawnDelay  time.Duration `toml:"spawn_delay"`
	Template    string        `toml:"template"`
	Seed        int64         `toml:"seed"` // 0 = seed from the clock
}

type AttractorConfig struct {
	Position [3]float64 `toml:"position"`
}

type FormationConfig struct {
	Enabled   bool    `toml:"enabled"`
	Points    int     `toml:"points"`
	Radius    float64 `toml:"radius"`
	Meridians int     `toml:"meridians"`
}

type LoopConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
}

type DataConfig struct {
	Templates string `toml:"templates"`
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the journal store
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type JournalConfig struct {
	FlushInterval int `toml:"flush_interval"` // ticks between flushes
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(raw []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values that would make a run meaningless before it starts.
func (c *Config) Validate() error {
	var errs []error
	if c.Spawn.NumBoids < 0 {
		errs = append(errs, fmt.Errorf("spawn.num_boids %d is negative", c.Spawn.NumBoids))
	}
	if c.Spawn.SpawnDelay < 0 {
		errs = append(errs, fmt.Errorf("spawn.spawn_delay %s is negative", c.Spawn.SpawnDelay))
	}
	if c.Spawn.SpawnRadius < 0 {
		errs = append(errs, fmt.Errorf("spawn.spawn_radius %v is negative", c.Spawn.SpawnRadius))
	}
	if c.Spawn.Template == "" {
		errs = append(errs, errors.New("spawn.template is empty"))
	}
	if c.Flock.Velocity < 0 || c.Flock.NeighborDist < 0 || c.Flock.CollDist < 0 {
		errs = append(errs, errors.New("flock velocity and distances must not be negative"))
	}
	if c.Formation.Enabled && c.Formation.Points < 2 {
		errs = append(errs, fmt.Errorf("formation.points %d: at least 2 are required", c.Formation.Points))
	}
	if c.Loop.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("loop.tick_rate %s must be positive", c.Loop.TickRate))
	}
	if c.Journal.FlushInterval < 1 {
		errs = append(errs, fmt.Errorf("journal.flush_interval %d must be at least 1", c.Journal.FlushInterval))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func Defaults() *Config {
	return &Config{
		Spawn: SpawnConfig{
			NumBoids:    100,
			SpawnRadius: 100,
			SpawnDelay:  100 * time.Millisecond,
			Template:    "boid",
		},
		Flock: boid.DefaultParams(),
		Formation: FormationConfig{
			Enabled:   true,
			Points:    10,
			Radius:    3,
			Meridians: 7,
		},
		Loop: LoopConfig{
			TickRate: 20 * time.Millisecond,
		},
		Data: DataConfig{
			Templates: "data/yaml/boid_templates.yaml",
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Journal: JournalConfig{
			FlushInterval: 50, // 50 ticks x 20ms = 1 second
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
