package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tcgdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(PathEnvVar, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultBaseURL, cfg.Catalog.BaseURL)
	assert.Equal(t, 20, cfg.Search.PageSize)
	assert.Equal(t, 250, cfg.Search.FetchPageSize)
	assert.Equal(t, 8, cfg.Search.MaxPages)
	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, 15*time.Second, cfg.Catalog.Timeout)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
catalog:
  api_key: file-key
  timeout: 30s
search:
  page_size: 40
  regulation_marks: [H, I]
store:
  backend: file
  path: /tmp/deck.yaml
logging:
  level: debug
`)
	t.Setenv("TCGDECK_CATALOG_API_KEY", "env-key")
	t.Setenv("TCGDECK_SEARCH_REGULATION_MARKS", "H, I, J")
	t.Setenv("TCGDECK_WEB_ADDR", "127.0.0.1:9000")
	t.Setenv("TCGDECK_UNKNOWN_SETTING", "ignored")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Catalog.APIKey)
	assert.Equal(t, 30*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 40, cfg.Search.PageSize)
	assert.Equal(t, []string{"H", "I", "J"}, cfg.Search.RegulationMarks)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9000", cfg.Web.Addr)

	sc := cfg.SearchEngine()
	assert.Equal(t, 40, sc.PageSize)
	assert.Equal(t, "env-key", cfg.CatalogClient().APIKey)
	assert.Equal(t, "/tmp/deck.yaml", cfg.StoreBackend().Path)
	assert.Equal(t, "debug", cfg.LoggingSetup().Level)
}

func TestLoadPathFromEnv(t *testing.T) {
	path := writeConfig(t, "mcp:\n  name: deckbot\n")
	t.Setenv(PathEnvVar, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "deckbot", cfg.MCP.Name)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"backend":   "store:\n  backend: redis\n",
		"page size": "search:\n  page_size: 0\n",
		"fetch cap": "search:\n  fetch_page_size: 500\n",
		"log level": "logging:\n  level: loud\n",
		"base url":  "catalog:\n  base_url: not a url\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
