package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"pkgdb/pkgdb/database"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
	Json  bool   `env:"JSON" envDefault:"false"`
	File  string `env:"FILE"`
}

type PkgdbEnv struct {
	DbDriver    string    `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseUri string    `env:"DATABASE_URI,required"`
	Log         LogConfig `envPrefix:"LOG_"`

	Language        string `env:"LANGUAGE" envDefault:"C"`
	ConflictRetries int    `env:"CONFLICT_RETRIES" envDefault:"3"`
	Actor           int64  `env:"ACTOR" envDefault:"0"`

	// Written on exit in the node exporter textfile format when set.
	MetricsFile string `env:"METRICS_FILE"`
}

const envPrefix = "PKGDB_"

/**
 * ==========================================================================
 * ==== All variables used by pkgdb must be loaded here. This is to make ====
 * ==== the data flow clear so that a user can see what variables are   ====
 * ==== exposed, and how the values are propagated through the system.  ====
 * ==========================================================================
 */
func LoadEnv(envFile string) (*PkgdbEnv, error) {
	if envFile != "" {
		slog.Info(fmt.Sprintf("loading env from file %v", envFile))
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error loading .env file '%v': %w", envFile, err)
			}
			slog.Warn("env file not found, using process environment", "env_file", envFile)
		}
	}

	cfg := &PkgdbEnv{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (e *PkgdbEnv) validate() error {
	if e.DbDriver != database.SqliteDriver && e.DbDriver != database.PostgresDriver {
		return fmt.Errorf("%vDB_DRIVER must be '%v' or '%v', got '%v'", envPrefix, database.SqliteDriver, database.PostgresDriver, e.DbDriver)
	}
	if e.ConflictRetries < 0 {
		return fmt.Errorf("%vCONFLICT_RETRIES must not be negative", envPrefix)
	}
	if e.Language == "" {
		return fmt.Errorf("%vLANGUAGE must not be empty", envPrefix)
	}
	return nil
}
