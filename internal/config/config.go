package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backends soportados para persistir la identidad.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config centraliza la configuración del front-end.
type Config struct {
	ChatAPIBaseURL string        `env:"CHAT_API_BASE_URL" envDefault:"http://localhost:8000"`
	ChatAPITimeout time.Duration `env:"CHAT_API_TIMEOUT" envDefault:"60s"`
	WebAddr        string        `env:"WEB_ADDR" envDefault:"127.0.0.1:3000"`
	Profile        string        `env:"PROFILE" envDefault:"default"`
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"file"`
	StateDir       string        `env:"STATE_DIR"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	Debug          bool          `env:"DEBUG" envDefault:"false"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate comprueba que el backend elegido tenga lo que necesita.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageFile:
	case StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("config: REDIS_ADDR required for storage backend %q", c.StorageBackend)
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL required for storage backend %q", c.StorageBackend)
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.StorageBackend)
	}
	if c.Profile == "" {
		return fmt.Errorf("config: PROFILE must not be empty")
	}
	return nil
}
