package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Reference data drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port              string  `env:"PORT" envDefault:"8080"`
	Env               string  `env:"APP_ENV" envDefault:"development"`
	RefDataDriver     string  `env:"REFDATA_DRIVER" envDefault:"sqlite"`
	DatabaseURL       string  `env:"DATABASE_URL"`
	SQLitePath        string  `env:"SQLITE_PATH" envDefault:"shipping.db"`
	JWTSecret         string  `env:"JWT_SECRET"`
	VolumetricDivisor float64 `env:"VOLUMETRIC_DIVISOR" envDefault:"5000"`
	PostalCodeWidth   int     `env:"POSTAL_CODE_WIDTH" envDefault:"5"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that env tags cannot express.
func (c *Config) Validate() error {
	c.RefDataDriver = strings.ToLower(strings.TrimSpace(c.RefDataDriver))
	switch c.RefDataDriver {
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported REFDATA_DRIVER %q", c.RefDataDriver)
	}
	if c.VolumetricDivisor <= 0 {
		return errors.New("VOLUMETRIC_DIVISOR must be positive")
	}
	if c.PostalCodeWidth <= 0 {
		return errors.New("POSTAL_CODE_WIDTH must be positive")
	}
	return nil
}
