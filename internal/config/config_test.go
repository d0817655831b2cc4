package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Zero(t, cfg.API.HTTPTimeout, "requests carry no client-side deadline by default")
	assert.Zero(t, cfg.API.RequestsPerSecond)
	assert.Equal(t, 1*time.Second, cfg.Database.Timeout)
	assert.True(t, cfg.Sync.RefetchAfterMutation)
	assert.False(t, cfg.Sync.ActiveOnly)
	assert.Equal(t, "off", cfg.Log.Level)
	assert.Equal(t, "ctrl", cfg.Keys.Modifier)
	assert.Equal(t, "q", cfg.Keys.Bindings.Quit)
	assert.Equal(t, "n", cfg.Keys.Bindings.NewNews)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, filepath.Join(home, ".newsdesk", "cache.db"), cfg.Database.Path)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
base_url = "https://news.example.org/"
http_timeout = "15s"
requests_per_second = 5

[database]
path = "` + filepath.ToSlash(filepath.Join(dir, "cache.db")) + `"

[sync]
active_only = true
subcategory_sort = "subcategory"
refetch_after_mutation = false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://news.example.org", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.HTTPTimeout)
	assert.Equal(t, 5, cfg.API.RequestsPerSecond)
	assert.Equal(t, filepath.Join(dir, "cache.db"), cfg.Database.Path)
	assert.True(t, cfg.Sync.ActiveOnly)
	assert.Equal(t, "subcategory", cfg.Sync.SubcategorySort)
	assert.False(t, cfg.Sync.RefetchAfterMutation)
	assert.Equal(t, 4, cfg.Sync.ImportConcurrency)
}

func TestLoadRejectsBadBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nbase_url = \"ftp://nope\"\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nbase_url = \"http://localhost:9000\"\n"), 0o600))
	t.Setenv("NEWSDESK_API_BASE_URL", "http://127.0.0.1:7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:7000", cfg.API.BaseURL)
}

func TestGenerateDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, GenerateDefaultConfig(path))
	assert.FileExists(t, path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig().API.BaseURL, cfg.API.BaseURL)
	assert.Equal(t, defaultConfig().Database.Timeout, cfg.Database.Timeout)
	assert.True(t, cfg.Sync.RefetchAfterMutation)
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "newsdesk-test/1.0", cfg.API.UserAgent)
	assert.Equal(t, "q", cfg.Keys.Bindings.Quit)
}
