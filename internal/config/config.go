// Package config loads tcgdeck configuration.
//
// Precedence, lowest first:
//  1. Defaults
//  2. YAML file (--config flag, TCGDECK_CONFIG, or ./tcgdeck.yaml)
//  3. TCGDECK_* environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/logging"
	"github.com/peterkuimelis/tcgdeck/internal/search"
	"github.com/peterkuimelis/tcgdeck/internal/store"
)

const (
	// DefaultPath is read when no config path is given and it exists.
	DefaultPath = "tcgdeck.yaml"
	// PathEnvVar names the config file when no flag is given.
	PathEnvVar = "TCGDECK_CONFIG"
	envPrefix  = "TCGDECK_"
)

// Config is the full configuration.
type Config struct {
	Catalog CatalogConfig `koanf:"catalog"`
	Search  SearchConfig  `koanf:"search"`
	Store   StoreConfig   `koanf:"store"`
	Logging LoggingConfig `koanf:"logging"`
	Web     WebConfig     `koanf:"web"`
	MCP     MCPConfig     `koanf:"mcp"`
}

// CatalogConfig configures the card catalog client.
type CatalogConfig struct {
	BaseURL       string        `koanf:"base_url" validate:"required,url"`
	APIKey        string        `koanf:"api_key"`
	Timeout       time.Duration `koanf:"timeout" validate:"gt=0"`
	RatePerSecond float64       `koanf:"rate_per_second" validate:"gte=0"`
	Burst         int           `koanf:"burst" validate:"gte=0"`
}

// SearchConfig sizes the search engine.
type SearchConfig struct {
	PageSize        int      `koanf:"page_size" validate:"gte=1,lte=250"`
	FetchPageSize   int      `koanf:"fetch_page_size" validate:"gte=1,lte=250"`
	MaxPages        int      `koanf:"max_pages" validate:"gte=1"`
	RegulationMarks []string `koanf:"regulation_marks" validate:"dive,alpha,len=1"`
}

// StoreConfig selects where the deck is saved.
type StoreConfig struct {
	Backend string `koanf:"backend" validate:"oneof=badger file memory"`
	Path    string `koanf:"path" validate:"required_unless=Backend memory"`
}

// LoggingConfig configures process logging.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled off"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// WebConfig configures the HTTP server.
type WebConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// MCPConfig configures the MCP server.
type MCPConfig struct {
	Name string `koanf:"name" validate:"required"`
}

// Default returns the built-in defaults.
func Default() *Config {
	sd := search.DefaultConfig()
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:       catalog.DefaultBaseURL,
			Timeout:       15 * time.Second,
			RatePerSecond: 5,
			Burst:         5,
		},
		Search: SearchConfig{
			PageSize:      sd.PageSize,
			FetchPageSize: sd.FetchPageSize,
			MaxPages:      sd.MaxPages,
		},
		Store: StoreConfig{
			Backend: store.BackendBadger,
			Path:    defaultStorePath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Web: WebConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		MCP: MCPConfig{
			Name: "tcgdeck",
		},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".tcgdeck"
	}
	return filepath.Join(dir, "tcgdeck")
}

// envKeys maps environment variables, without the prefix, to config paths.
var envKeys = map[string]string{
	"catalog_base_url":        "catalog.base_url",
	"catalog_api_key":         "catalog.api_key",
	"catalog_timeout":         "catalog.timeout",
	"catalog_rate_per_second": "catalog.rate_per_second",
	"catalog_burst":           "catalog.burst",
	"search_page_size":        "search.page_size",
	"search_fetch_page_size":  "search.fetch_page_size",
	"search_max_pages":        "search.max_pages",
	"search_regulation_marks": "search.regulation_marks",
	"store_backend":           "store.backend",
	"store_path":              "store.path",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"web_addr":                "web.addr",
	"web_shutdown_timeout":    "web.shutdown_timeout",
	"mcp_name":                "mcp.name",
}

// sliceKeys are parsed from comma-separated env values.
var sliceKeys = []string{"search.regulation_marks"}

func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return envKeys[key]
}

// Load builds the configuration. path may be empty; then TCGDECK_CONFIG and
// DefaultPath are tried. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		if p := os.Getenv(PathEnvVar); p != "" {
			path, explicit = p, true
		} else {
			path = DefaultPath
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitSlices(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		s, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// CatalogClient returns the catalog client configuration.
func (c *Config) CatalogClient() catalog.Config {
	return catalog.Config{
		BaseURL:       c.Catalog.BaseURL,
		APIKey:        c.Catalog.APIKey,
		Timeout:       c.Catalog.Timeout,
		RatePerSecond: c.Catalog.RatePerSecond,
		Burst:         c.Catalog.Burst,
	}
}

// SearchEngine returns the search engine configuration.
func (c *Config) SearchEngine() search.Config {
	return search.Config{
		PageSize:        c.Search.PageSize,
		FetchPageSize:   c.Search.FetchPageSize,
		MaxPages:        c.Search.MaxPages,
		RegulationMarks: c.Search.RegulationMarks,
	}
}

// StoreBackend returns the store configuration.
func (c *Config) StoreBackend() store.Config {
	return store.Config{Backend: c.Store.Backend, Path: c.Store.Path}
}

// LoggingSetup returns the process logger configuration.
func (c *Config) LoggingSetup() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.Format = c.Logging.Format
	return lc
}
