package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"

	"github.com/surgaudit/surgaudit/internal/domain/registry"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret   string   `mapstructure:"JWT_SECRET"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	SynonymsFile string `mapstructure:"SYNONYMS_FILE"`

	SimilaritySame    float64 `mapstructure:"SIMILARITY_SAME"`
	SimilarityVariant float64 `mapstructure:"SIMILARITY_VARIANT"`
	ClusterPatient    float64 `mapstructure:"CLUSTER_PATIENT"`
	ClusterProcedure  float64 `mapstructure:"CLUSTER_PROCEDURE"`
	DateToleranceDays int     `mapstructure:"DATE_TOLERANCE_DAYS"`
	QuantityMedia     float64 `mapstructure:"QUANTITY_MEDIA"`
	QuantityAlta      float64 `mapstructure:"QUANTITY_ALTA"`
	TraceabilityAlta  float64 `mapstructure:"TRACEABILITY_ALTA"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	defaults := registry.DefaultThresholds()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SIMILARITY_SAME", defaults.SameEntity)
	v.SetDefault("SIMILARITY_VARIANT", defaults.MinorVariant)
	v.SetDefault("CLUSTER_PATIENT", defaults.ClusterPatient)
	v.SetDefault("CLUSTER_PROCEDURE", defaults.ClusterProcedure)
	v.SetDefault("DATE_TOLERANCE_DAYS", defaults.DateToleranceDays)
	v.SetDefault("QUANTITY_MEDIA", defaults.QuantityMedia)
	v.SetDefault("QUANTITY_ALTA", defaults.QuantityAlta)
	v.SetDefault("TRACEABILITY_ALTA", defaults.TraceabilityAlta)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("SYNONYMS_FILE")
	v.BindEnv("SIMILARITY_SAME")
	v.BindEnv("SIMILARITY_VARIANT")
	v.BindEnv("CLUSTER_PATIENT")
	v.BindEnv("CLUSTER_PROCEDURE")
	v.BindEnv("DATE_TOLERANCE_DAYS")
	v.BindEnv("QUANTITY_MEDIA")
	v.BindEnv("QUANTITY_ALTA")
	v.BindEnv("TRACEABILITY_ALTA")

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

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: authentication is bypassed; all requests get auditor access.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Thresholds assembles the analysis thresholds from configuration.
func (c *Config) Thresholds() registry.Thresholds {
	return registry.Thresholds{
		SameEntity:        c.SimilaritySame,
		MinorVariant:      c.SimilarityVariant,
		ClusterPatient:    c.ClusterPatient,
		ClusterProcedure:  c.ClusterProcedure,
		DateToleranceDays: c.DateToleranceDays,
		QuantityMedia:     c.QuantityMedia,
		QuantityAlta:      c.QuantityAlta,
		TraceabilityAlta:  c.TraceabilityAlta,
	}
}

// Registry loads the synonym registry from SYNONYMS_FILE, or the built-in
// default table when no file is configured.
func (c *Config) Registry() (*registry.Registry, error) {
	if c.SynonymsFile == "" {
		return registry.Default(), nil
	}
	return registry.LoadFile(c.SynonymsFile)
}

// Validate checks that the configuration is safe to run. DATABASE_URL is
// required only by the commands that touch the store (serve, migrate), not
// by offline analysis. Production refuses to start without a JWT secret.
func (c *Config) Validate() error {
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

// ValidateServer extends Validate with the requirements of the HTTP server
// and migration commands.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}
