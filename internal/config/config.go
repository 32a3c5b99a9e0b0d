package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model: who the local user is,
// where the providers live, feed tuning, and storage/server addresses.
type Config struct {
	Account AccountConfig `yaml:"account"`
	Catalog CatalogConfig `yaml:"catalog"`
	Detail  DetailConfig  `yaml:"detail"`
	Feed    FeedConfig    `yaml:"feed"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
}

type AccountConfig struct {
	// Local user id stamped onto interaction/search log rows.
	Name string `yaml:"name"`
}

type CatalogConfig struct {
	// Search provider base URL. If empty, read from env CATALOG_BASE_URL,
	// falling back to the public TVMaze API.
	BaseURL string `yaml:"baseURL"`
}

type DetailConfig struct {
	// Ordered mirror list for detail lookups, first success wins.
	Mirrors []string `yaml:"mirrors"`
}

type FeedConfig struct {
	// Store readiness budget: attempts x delay before giving up.
	ReadyAttempts int `yaml:"readyAttempts"`
	ReadyDelayMS  int `yaml:"readyDelayMS"`
	// Periodic refresh interval for serve mode, in minutes. 0 disables.
	RefreshMinutes int `yaml:"refreshMinutes"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metricsAddr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Account: AccountConfig{Name: "local"},
		Catalog: CatalogConfig{BaseURL: "https://api.tvmaze.com"},
		Detail: DetailConfig{Mirrors: []string{
			"https://pipedapi.kavin.rocks",
			"https://pipedapi.tokhmi.xyz",
			"https://pipedapi.moomoo.me",
			"https://api-piped.mha.fi",
		}},
		Feed:    FeedConfig{ReadyAttempts: 15, ReadyDelayMS: 200, RefreshMinutes: 0},
		Storage: StorageConfig{DBPath: "./glassbox.db"},
		Server:  ServerConfig{Addr: ":8080", MetricsAddr: ""},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = os.Getenv("CATALOG_BASE_URL")
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = os.Getenv("GLASSBOX_DB")
	}
	if c.Server.Addr == "" {
		c.Server.Addr = os.Getenv("GLASSBOX_ADDR")
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = os.Getenv("METRICS_ADDR")
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
