package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	DSNTBaseURL         string `mapstructure:"DSNT_BASE_URL"`
	DSNTTokenURL        string `mapstructure:"DSNT_TOKEN_URL"`
	DSNTAPIKey          string `mapstructure:"DSNT_API_KEY"`
	DSNTMaxRadius       int    `mapstructure:"DSNT_MAX_RADIUS"`
	DSNTDefaultQuantity int    `mapstructure:"DSNT_DEFAULT_QUANTITY"`

	ScriptSaveBaseURL    string `mapstructure:"SCRIPTSAVE_BASE_URL"`
	ScriptSaveTokenURL   string `mapstructure:"SCRIPTSAVE_TOKEN_URL"`
	ScriptSaveAPIKey     string `mapstructure:"SCRIPTSAVE_API_KEY"`
	ScriptSaveMaxResults int    `mapstructure:"SCRIPTSAVE_MAX_RESULTS"`

	CacheMaxEntries int           `mapstructure:"CACHE_MAX_ENTRIES"`
	CacheMaxAge     time.Duration `mapstructure:"CACHE_MAX_AGE"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DSNT_MAX_RADIUS", 50)
	v.SetDefault("DSNT_DEFAULT_QUANTITY", 30)
	v.SetDefault("SCRIPTSAVE_MAX_RESULTS", 200)
	v.SetDefault("CACHE_MAX_ENTRIES", 256)
	v.SetDefault("CACHE_MAX_AGE", "15m")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("DSNT_BASE_URL")
	v.BindEnv("DSNT_TOKEN_URL")
	v.BindEnv("DSNT_API_KEY")
	v.BindEnv("DSNT_MAX_RADIUS")
	v.BindEnv("DSNT_DEFAULT_QUANTITY")
	v.BindEnv("SCRIPTSAVE_BASE_URL")
	v.BindEnv("SCRIPTSAVE_TOKEN_URL")
	v.BindEnv("SCRIPTSAVE_API_KEY")
	v.BindEnv("SCRIPTSAVE_MAX_RESULTS")
	v.BindEnv("CACHE_MAX_ENTRIES")
	v.BindEnv("CACHE_MAX_AGE")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Provider endpoints
// may stay empty in development (the engine simply finds no prices), but a
// deployment outside development without them is a misconfiguration.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.DSNTBaseURL == "" {
			return fmt.Errorf("DSNT_BASE_URL is required when ENV is not development")
		}
		if c.ScriptSaveBaseURL == "" {
			return fmt.Errorf("SCRIPTSAVE_BASE_URL is required when ENV is not development")
		}
	}
	if c.DSNTMaxRadius <= 0 {
		return fmt.Errorf("DSNT_MAX_RADIUS must be positive, got %d", c.DSNTMaxRadius)
	}
	if c.DSNTDefaultQuantity <= 0 {
		return fmt.Errorf("DSNT_DEFAULT_QUANTITY must be positive, got %d", c.DSNTDefaultQuantity)
	}
	if c.ScriptSaveMaxResults <= 0 {
		return fmt.Errorf("SCRIPTSAVE_MAX_RESULTS must be positive, got %d", c.ScriptSaveMaxResults)
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be positive, got %d", c.CacheMaxEntries)
	}
	if c.CacheMaxAge <= 0 {
		return fmt.Errorf("CACHE_MAX_AGE must be positive, got %s", c.CacheMaxAge)
	}
	return nil
}
