package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Registry RegistryConfig `toml:"registry"`
	Sync     SyncConfig     `toml:"sync"`
	View     ViewConfig     `toml:"view"`
	Server   ServerConfig   `toml:"server"`
}

type RegistryConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type SyncConfig struct {
	IntervalSeconds int    `toml:"interval_seconds"`
	ActorID         string `toml:"actor_id"`
}

type ViewConfig struct {
	SortKey   string `toml:"sort_key"`
	Ascending bool   `toml:"ascending"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// knownSortKeys mirrors the view engine's supported sort columns.
var knownSortKeys = []string{"id", "managementType", "serviceCount", "comments"}

func Default(registryURL string) Config {
	return Config{
		Registry: RegistryConfig{
			URL:            registryURL,
			TimeoutSeconds: 10,
		},
		Sync: SyncConfig{
			IntervalSeconds: 10,
		},
		View: ViewConfig{
			SortKey:   "id",
			Ascending: true,
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	url := strings.TrimSpace(c.Registry.URL)
	if url == "" {
		return errors.New("registry.url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("registry.url must be an http(s) URL: %q", c.Registry.URL)
	}
	if c.Registry.TimeoutSeconds < 0 {
		return errors.New("registry.timeout_seconds must be >= 0")
	}

	if c.Sync.IntervalSeconds < 1 {
		return errors.New("sync.interval_seconds must be >= 1")
	}

	key := strings.TrimSpace(c.View.SortKey)
	if key != "" && !slices.Contains(knownSortKeys, key) {
		return fmt.Errorf("invalid view.sort_key: %q", c.View.SortKey)
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
