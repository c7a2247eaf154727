package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/m3rciful/coinbot/core/config"
	coredatabase "github.com/m3rciful/coinbot/core/database"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// CoinGeckoConfig holds market-data API settings.
type CoinGeckoConfig struct {
	BaseURL        string `yaml:"base_url" envconfig:"COINGECKO_BASE_URL"`
	VsCurrency     string `yaml:"vs_currency" envconfig:"COINGECKO_VS_CURRENCY"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"COINGECKO_TIMEOUT_SECONDS"`
}

// StorageConfig selects the directory store backend.
type StorageConfig struct {
	Backend string `yaml:"backend" envconfig:"STORAGE_BACKEND"`
}

// Config is the full bot configuration: the reusable core plus the
// coin-bot specific sections.
type Config struct {
	Core      coreconfig.Config   `yaml:",inline"`
	Storage   StorageConfig       `yaml:"storage"`
	Database  coredatabase.Config `yaml:"database"`
	CoinGecko CoinGeckoConfig     `yaml:"coingecko"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Core
}

// LoadConfig reads configuration from a YAML file and environment variables.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	backend := strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if backend == "" {
		backend = StorageMemory
	}
	switch backend {
	case StorageMemory:
	case StoragePostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" {
			return fmt.Errorf("database.host is required when storage.backend is 'postgres'")
		}
		if strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.name is required when storage.backend is 'postgres'")
		}
	default:
		return fmt.Errorf("invalid storage.backend %q; allowed: memory, postgres", cfg.Storage.Backend)
	}
	cfg.Storage.Backend = backend

	if cfg.CoinGecko.TimeoutSeconds < 0 {
		return fmt.Errorf("coingecko.timeout_seconds must be >= 0")
	}
	return nil
}
