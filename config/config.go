package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   string `envconfig:"PORT" default:"8080"`

	// DatabaseURL selects PostgreSQL when set, otherwise SQLite at SQLitePath.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"cognitive_load.db"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"dev-secret-key-change-in-production"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`

	Stats struct {
		UnderAnnotatedThreshold int `envconfig:"UNDER_ANNOTATED_THRESHOLD" default:"5"`
		HistogramDays           int `envconfig:"HISTOGRAM_DAYS" default:"30"`
	} `envconfig:""`

	Supabase struct {
		URL    string `envconfig:"SUPABASE_URL"`
		Key    string `envconfig:"SUPABASE_KEY"`
		Bucket string `envconfig:"SUPABASE_BUCKET" default:"uploads"`
	} `envconfig:""`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.Stats.UnderAnnotatedThreshold <= 0 {
		return Config{}, fmt.Errorf("load config: UNDER_ANNOTATED_THRESHOLD must be positive, got %d", cfg.Stats.UnderAnnotatedThreshold)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	switch strings.ToLower(c.AppEnv) {
	case "prod", "production":
		return true
	}
	return false
}

// PostgresDSN normalizes the scheme some hosting providers hand out.
func (c Config) PostgresDSN() string {
	if strings.HasPrefix(c.DatabaseURL, "postgres://") {
		return "postgresql://" + strings.TrimPrefix(c.DatabaseURL, "postgres://")
	}
	return c.DatabaseURL
}
