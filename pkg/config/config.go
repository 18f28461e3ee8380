package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for databridge.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the capsule signing key) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// AllowedOriginsStr is a comma-separated list of origins permitted by the
	// CORS layer. "*" allows any origin.
	AllowedOriginsStr string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"*"`

	// AllowedOrigins is the parsed form of AllowedOriginsStr (not from config file).
	AllowedOrigins []string `yaml:"-"`

	// Capsule holds credential capsule settings.
	Capsule CapsuleConfig `yaml:"capsule"`
}

// CapsuleConfig holds settings for minting and verifying credential capsules.
type CapsuleConfig struct {
	// Secret signs capsules. The server refuses to start without it.
	// Generate with: openssl rand -base64 32
	Secret string `yaml:"-" env:"CAPSULE_SECRET"` // Secret - not in YAML

	// TTLMinutes is the validity window of a freshly minted capsule.
	TTLMinutes int `yaml:"ttl_minutes" env:"CAPSULE_TTL_MINUTES" env-default:"60"`
}

// TTL returns the capsule validity window as a duration.
func (c *CapsuleConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// The capsule signing secret must come from the environment (yaml:"-" field);
// a missing secret is a fatal misconfiguration.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	cfg.AllowedOrigins = parseAllowedOrigins(cfg.AllowedOriginsStr)

	if cfg.Capsule.Secret == "" {
		return nil, fmt.Errorf("CAPSULE_SECRET is not set; capsules cannot be signed")
	}
	if cfg.Capsule.TTLMinutes <= 0 {
		return nil, fmt.Errorf("capsule ttl_minutes must be positive, got %d", cfg.Capsule.TTLMinutes)
	}

	return cfg, nil
}

// parseAllowedOrigins splits the comma-separated origins list.
func parseAllowedOrigins(value string) []string {
	var origins []string
	for _, o := range strings.Split(value, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
