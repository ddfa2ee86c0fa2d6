// Package config loads lovecore settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/nathoo/lovecore/logger"
)

// Save backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the runtime configuration. Command-line flags override it.
type Config struct {
	ContentDir  string `env:"LOVECORE_CONTENT_DIR" envDefault:"content"`
	SaveDir     string `env:"LOVECORE_SAVE_DIR"`
	SaveBackend string `env:"LOVECORE_SAVE_BACKEND" envDefault:"file"`
	SQLitePath  string `env:"LOVECORE_SQLITE_PATH"`

	LogLevel    string `env:"LOVECORE_LOG_LEVEL" envDefault:"warn"`
	LogEncoding string `env:"LOVECORE_LOG_ENCODING" envDefault:"console"`
	LogFile     string `env:"LOVECORE_LOG_FILE" envDefault:"stderr"`

	// Seed for the idle-line picker; 0 picks a time-based seed.
	Seed int64 `env:"LOVECORE_SEED"`

	MaxEpisodes         int `env:"LOVECORE_MAX_EPISODES" envDefault:"5"`
	DailyInvestigations int `env:"LOVECORE_DAILY_INVESTIGATIONS" envDefault:"3"`
	ClueReward          int `env:"LOVECORE_CLUE_REWARD" envDefault:"1"`
	EpisodeReward       int `env:"LOVECORE_EPISODE_REWARD" envDefault:"10"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads dotenv files into the environment, then parses and validates
// the configuration. With no files, a missing ./.env is not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load dotenv: %w", err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fillDefaults() {
	if c.SaveDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.SaveDir = filepath.Join(home, ".lovecore", "saves")
		} else {
			c.SaveDir = "saves"
		}
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(c.SaveDir, "saves.db")
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.SaveBackend != BackendFile && c.SaveBackend != BackendSQLite {
		return fmt.Errorf("config: unknown save backend %q (want %s or %s)", c.SaveBackend, BackendFile, BackendSQLite)
	}
	if c.MaxEpisodes < 1 || c.MaxEpisodes > 99 {
		return fmt.Errorf("config: max episodes %d out of range 1..99", c.MaxEpisodes)
	}
	if c.DailyInvestigations < 1 || c.ClueReward < 1 || c.EpisodeReward < 1 {
		return fmt.Errorf("config: investigation and reward settings must be positive")
	}
	return nil
}

// Logger returns the logger settings.
func (c Config) Logger() logger.Config {
	return logger.Config{Level: c.LogLevel, Encoding: c.LogEncoding, OutputPath: c.LogFile}
}
