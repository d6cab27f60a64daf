// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":3000"`
	DBPath   string `env:"DB_PATH" envDefault:"othello.db"`

	// RedisURL selects the Redis snapshot cache; empty keeps snapshots in memory.
	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"24h"`

	// SessionKey enables signed session tokens next to the stored ones.
	SessionKey string `env:"SESSION_KEY"`

	IdentifyTimeout   time.Duration `env:"IDENTIFY_TIMEOUT" envDefault:"500ms"`
	CompanionDepth    int           `env:"COMPANION_DEPTH" envDefault:"6"`
	CompanionMaxDepth int           `env:"COMPANION_MAX_DEPTH" envDefault:"8"`
	RoomBuffer        int           `env:"ROOM_BUFFER" envDefault:"16"`
	OutboundBuffer    int           `env:"OUTBOUND_BUFFER" envDefault:"16"`
	FrameRate         float64       `env:"FRAME_RATE" envDefault:"20"`
	FrameBurst        int           `env:"FRAME_BURST" envDefault:"40"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LOG_DEV" envDefault:"false"`
}

const prefix = "OTHELLO_"

// Load reads a .env file when present, then the OTHELLO_* variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.HTTPAddr == "":
		return errors.New("config: http addr is required")
	case c.IdentifyTimeout <= 0:
		return fmt.Errorf("config: identify timeout must be positive, got %s", c.IdentifyTimeout)
	case c.CompanionDepth < 1:
		return fmt.Errorf("config: companion depth must be at least 1, got %d", c.CompanionDepth)
	case c.CompanionMaxDepth < c.CompanionDepth:
		return fmt.Errorf("config: companion max depth %d is below the default depth %d", c.CompanionMaxDepth, c.CompanionDepth)
	case c.RoomBuffer < 1 || c.OutboundBuffer < 1:
		return errors.New("config: buffers must hold at least one event")
	case c.FrameRate <= 0 || c.FrameBurst < 1:
		return errors.New("config: frame rate and burst must be positive")
	}
	return nil
}
