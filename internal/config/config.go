package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	Emu     EmuConfig     `mapstructure:"emu"`
}

// APIConfig holds SMMDB connection settings.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds course list settings.
type CatalogConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// CacheConfig holds sqlite settings.
type CacheConfig struct {
	Path          string `mapstructure:"path"`
	MaxThumbnails int    `mapstructure:"max_thumbnails"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// EmuConfig lists save folders to offer besides the detected ones.
type EmuConfig struct {
	ExtraDirs []string `mapstructure:"extra_dirs"`
}

// Path resolves the config file location: override, then
// $SMMDBTUI_CONFIG, then ~/.config/smmdbtui/config.toml.
func Path(override string) string {
	if override != "" {
		return override
	}
	if p := os.Getenv("SMMDBTUI_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "smmdbtui", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix SMMDBTUI_.
// A missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	home := os.Getenv("HOME")
	v.SetDefault("api.base_url", "https://api.smmdb.net")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("catalog.page_size", 10)
	v.SetDefault("cache.path", filepath.Join(home, ".local", "share", "smmdbtui", "cache.db"))
	v.SetDefault("cache.max_thumbnails", 500)
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "smmdbtui", "smmdbtui.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("emu.extra_dirs", []string{})

	v.SetConfigType("toml")
	v.SetConfigFile(Path(path))

	v.SetEnvPrefix("SMMDBTUI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = 10
	}
	return c, nil
}

// Save writes the provided config to path, creating the config directory if needed.
// The settings page uses it for non-sensitive preferences; the API key lives in
// the secrets store.
func Save(path string, cfg Config) error {
	path = Path(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("catalog.page_size", cfg.Catalog.PageSize)
	v.Set("cache.path", cfg.Cache.Path)
	v.Set("cache.max_thumbnails", cfg.Cache.MaxThumbnails)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)
	extra := cfg.Emu.ExtraDirs
	if extra == nil {
		extra = []string{}
	}
	v.Set("emu.extra_dirs", extra)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
