package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLitePath = "medchat.db"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort         string        `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseDriver   string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	LLMAPIKey        string        `env:"OPENAI_API_KEY,required,notEmpty"`
	LLMBaseURL       string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel         string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	MediaRoot        string        `env:"MEDIA_ROOT" envDefault:"media"`
	MediaURL         string        `env:"MEDIA_URL" envDefault:"/media/"`
	AudioS3Bucket    string        `env:"AUDIO_S3_BUCKET"`
	AudioS3Prefix    string        `env:"AUDIO_S3_PREFIX"`
	AudioS3PublicURL string        `env:"AUDIO_S3_PUBLIC_URL"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	SummaryCacheTTL  time.Duration `env:"SUMMARY_CACHE_TTL" envDefault:"24h"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	switch c.DatabaseDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			c.DatabaseURL = defaultSQLitePath
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	// MEDIA_URL siempre termina en "/" para concatenar claves.
	if !strings.HasSuffix(c.MediaURL, "/") {
		c.MediaURL += "/"
	}
	return nil
}

// UsesS3 indica si el audio se guarda en S3 en lugar de disco local.
func (c *Config) UsesS3() bool {
	return strings.TrimSpace(c.AudioS3Bucket) != ""
}
