package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string
	DatabaseURL    string
	AppEnv         string
	LogLevel       string
	StrapiURL      string
	StrapiAPIToken string
	JWTSecret      string
	FrontendURL    string

	Endpoints Endpoints
	Reconcile ReconcileConfig
	Append    AppendConfig
	CacheTTL  time.Duration
}

// Endpoints maps editorial content kinds to the CMS collection names.
// Strapi derives REST paths from the plural content type name, which differs
// between deployments.
type Endpoints struct {
	Articles      string `yaml:"articles"`
	Columns       string `yaml:"columns"`
	Events        string `yaml:"events"`
	VideoEpisodes string `yaml:"video_episodes"`
}

type ReconcileConfig struct {
	Ratio       float64 `yaml:"ratio"`
	MinExisting int     `yaml:"min_existing"`
}

type AppendConfig struct {
	LockWait    time.Duration `yaml:"lock_wait"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

// fileOverrides is the optional YAML overlay referenced by EDITOR_CONFIG.
type fileOverrides struct {
	Endpoints *Endpoints       `yaml:"endpoints"`
	Reconcile *ReconcileConfig `yaml:"reconcile"`
	Append    *AppendConfig    `yaml:"append"`
}

// Load reads the environment (and .env when present) and applies the
// EDITOR_CONFIG overlay if one is set.
func Load() (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", "file:editor.sqlite"),
		AppEnv:         getEnv("APP_ENV", "local"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		StrapiURL:      getEnv("STRAPI_URL", "http://localhost:1337"),
		StrapiAPIToken: getEnv("STRAPI_API_TOKEN", ""),
		JWTSecret:      getEnv("JWT_SECRET", "secret"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		Endpoints:      DefaultEndpoints(),
		Reconcile: ReconcileConfig{
			Ratio:       getEnvFloat("RECONCILE_RATIO", 0.5),
			MinExisting: getEnvInt("RECONCILE_MIN_EXISTING", 3),
		},
		Append: AppendConfig{
			LockWait:    getEnvDuration("APPEND_LOCK_WAIT", 2*time.Second),
			SettleDelay: getEnvDuration("APPEND_SETTLE_DELAY", 100*time.Millisecond),
		},
		CacheTTL: getEnvDuration("CACHE_TTL", 30*time.Second),
	}

	if path := getEnv("EDITOR_CONFIG", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Articles:      "articles",
		Columns:       "columns",
		Events:        "events",
		VideoEpisodes: "video-episodes",
	}
}

// Collection returns the CMS collection for an editorial kind, or false when
// the kind is unknown.
func (e Endpoints) Collection(kind string) (string, bool) {
	switch kind {
	case "articles":
		return e.Articles, true
	case "columns":
		return e.Columns, true
	case "events":
		return e.Events, true
	case "video-episodes", "video_episodes":
		return e.VideoEpisodes, true
	}
	return "", false
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read editor config: %w", err)
	}

	var overrides fileOverrides
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return fmt.Errorf("parse editor config %s: %w", path, err)
	}

	if e := overrides.Endpoints; e != nil {
		mergeString(&c.Endpoints.Articles, e.Articles)
		mergeString(&c.Endpoints.Columns, e.Columns)
		mergeString(&c.Endpoints.Events, e.Events)
		mergeString(&c.Endpoints.VideoEpisodes, e.VideoEpisodes)
	}
	if r := overrides.Reconcile; r != nil {
		if r.Ratio > 0 {
			c.Reconcile.Ratio = r.Ratio
		}
		if r.MinExisting > 0 {
			c.Reconcile.MinExisting = r.MinExisting
		}
	}
	if a := overrides.Append; a != nil {
		if a.LockWait > 0 {
			c.Append.LockWait = a.LockWait
		}
		if a.SettleDelay > 0 {
			c.Append.SettleDelay = a.SettleDelay
		}
	}
	return nil
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}
