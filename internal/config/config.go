package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Faffo96/news-exercise-front/internal/validation"
)

const (
	AppName   = "newsdesk"
	EnvPrefix = "NEWSDESK"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// HTTPTimeout of zero leaves requests without a deadline.
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	// Token overrides the stored token when set.
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type SyncConfig struct {
	ActiveOnly           bool   `mapstructure:"active_only"`
	SubcategorySort      string `mapstructure:"subcategory_sort"`
	RefetchAfterMutation bool   `mapstructure:"refetch_after_mutation"`
	ImportConcurrency    int    `mapstructure:"import_concurrency"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type UIConfig struct {
	Colors UIColors   `mapstructure:"colors"`
	Reader ReaderConf `mapstructure:"reader"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type ReaderConf struct {
	MaxPreviewLength int `mapstructure:"max_preview_length"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit         string `mapstructure:"quit"`
	Search       string `mapstructure:"search"`
	NewNews      string `mapstructure:"new_news"`
	EditNews     string `mapstructure:"edit_news"`
	DeleteNews   string `mapstructure:"delete_news"`
	Refresh      string `mapstructure:"refresh"`
	ToggleActive string `mapstructure:"toggle_active"`
	CycleStatus  string `mapstructure:"cycle_status"`
	CycleMain    string `mapstructure:"cycle_main"`
	CycleSub     string `mapstructure:"cycle_sub"`
	Back         string `mapstructure:"back"`
	Help         string `mapstructure:"help"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, "."+AppName)

	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8080",
			UserAgent: AppName + "/1.0",
		},
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "cache.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
		},
		Sync: SyncConfig{
			RefetchAfterMutation: true,
			ImportConcurrency:    4,
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, AppName+".log"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#3B82F6",
				Secondary: "#14B8A6",
				Accent:    "#F59E0B",
				Text:      "#E5E7EB",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
			Reader: ReaderConf{
				MaxPreviewLength: 120,
				WordWrapMaxWidth: 100,
				WordWrapMinWidth: 40,
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:         "q",
				Search:       "s",
				NewNews:      "n",
				EditNews:     "e",
				DeleteNews:   "x",
				Refresh:      "r",
				ToggleActive: "a",
				CycleStatus:  "t",
				CycleMain:    "g",
				CycleSub:     "b",
				Back:         "esc",
				Help:         "?",
			},
		},
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", AppName, "config.toml")
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.http_timeout", cfg.API.HTTPTimeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.requests_per_second", cfg.API.RequestsPerSecond)
	v.SetDefault("api.token", cfg.API.Token)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.timeout", cfg.Database.Timeout)
	v.SetDefault("database.search_index", cfg.Database.SearchIndex)

	v.SetDefault("sync.active_only", cfg.Sync.ActiveOnly)
	v.SetDefault("sync.subcategory_sort", cfg.Sync.SubcategorySort)
	v.SetDefault("sync.refetch_after_mutation", cfg.Sync.RefetchAfterMutation)
	v.SetDefault("sync.import_concurrency", cfg.Sync.ImportConcurrency)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)

	v.SetDefault("ui", cfg.UI)
	v.SetDefault("keys", cfg.Keys)
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := normalize(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func normalize(cfg *Config) error {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)

	baseURL, err := validation.NewBackendURLValidator().ValidateAndNormalize(cfg.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	cfg.API.BaseURL = baseURL

	if cfg.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must not be negative")
	}
	if cfg.Sync.ImportConcurrency < 1 {
		cfg.Sync.ImportConcurrency = 1
	}
	return nil
}

// expandPath expands ~ to the home directory and converts to an absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if clean, err := validation.NewPathValidator().Clean(path); err == nil {
		return clean
	}
	return path
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings for TOML readability.
	v.Set("api", map[string]any{
		"base_url":            config.API.BaseURL,
		"http_timeout":        config.API.HTTPTimeout.String(),
		"user_agent":          config.API.UserAgent,
		"requests_per_second": config.API.RequestsPerSecond,
		"token":               config.API.Token,
	})
	v.Set("database", map[string]any{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	})
	v.Set("sync", map[string]any{
		"active_only":            config.Sync.ActiveOnly,
		"subcategory_sort":       config.Sync.SubcategorySort,
		"refetch_after_mutation": config.Sync.RefetchAfterMutation,
		"import_concurrency":     config.Sync.ImportConcurrency,
	})
	v.Set("log", map[string]any{
		"level": config.Log.Level,
		"file":  config.Log.File,
	})
	v.Set("ui", config.UI)
	v.Set("keys", config.Keys)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
