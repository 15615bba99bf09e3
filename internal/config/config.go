package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. WALLHUB_BASE_URL.
const EnvPrefix = "WALLHUB"

func homeDirOrFallback() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return home
}

// Provider configures the optional secondary image source merged into the
// catalog. It is disabled while URL or AccessKey is empty.
type Provider struct {
	URL       string `mapstructure:"url" json:"url"`
	AccessKey string `mapstructure:"access_key" json:"access_key"`
	Query     string `mapstructure:"query" json:"query"`
	PerPage   int    `mapstructure:"per_page" json:"per_page"`
}

// Enabled reports whether the provider should be queried.
func (p Provider) Enabled() bool {
	return p.URL != "" && p.AccessKey != ""
}

// Config holds all user-configurable settings.
type Config struct {
	// BaseURL is the backend origin; relative asset references resolve against it.
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// DownloadDir is where downloaded wallpapers are saved.
	DownloadDir string `mapstructure:"download_dir" json:"download_dir"`
	// RequestsPerSecond rate-limits HTTP requests to the backend.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" json:"requests_per_second"`
	// AdminPIN unlocks the admin view. It is not a security boundary.
	AdminPIN string `mapstructure:"admin_pin" json:"admin_pin"`
	// LogLevel is a zerolog level name.
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	// Provider is the secondary image source.
	Provider Provider `mapstructure:"provider" json:"provider"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	home := homeDirOrFallback()
	return &Config{
		BaseURL:           "http://localhost:5000",
		DownloadDir:       filepath.Join(home, "Downloads", "wallhub"),
		RequestsPerSecond: 5.0,
		AdminPIN:          "1234",
		LogLevel:          "info",
		Provider: Provider{
			URL:     "https://api.unsplash.com",
			Query:   "wallpaper",
			PerPage: 20,
		},
	}
}

// ConfigDir returns the directory where config and data files are stored.
func ConfigDir() string {
	if dir := os.Getenv(EnvPrefix + "_CONFIG_DIR"); dir != "" {
		return dir
	}
	home := homeDirOrFallback()
	return filepath.Join(home, ".config", "wallhub")
}

// DBPath returns the path to the SQLite credential store.
func DBPath() string {
	return filepath.Join(ConfigDir(), "client.db")
}

// LogPath returns the path of the TUI log file.
func LogPath() string {
	return filepath.Join(ConfigDir(), "wallhub.log")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// LoadDotEnv loads KEY=VALUE pairs from ./.env and the config dir's .env
// into the environment. Existing variables win; missing files are ignored.
func LoadDotEnv() {
	for _, p := range []string{".env", filepath.Join(ConfigDir(), ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func newViper(defaults *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(ConfigPath())
	v.SetConfigType("json")

	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("download_dir", defaults.DownloadDir)
	v.SetDefault("requests_per_second", defaults.RequestsPerSecond)
	v.SetDefault("admin_pin", defaults.AdminPIN)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("provider.url", defaults.Provider.URL)
	v.SetDefault("provider.access_key", defaults.Provider.AccessKey)
	v.SetDefault("provider.query", defaults.Provider.Query)
	v.SetDefault("provider.per_page", defaults.Provider.PerPage)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads config from disk, returning defaults if the file doesn't exist.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	defaults := DefaultConfig()
	v := newViper(defaults)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := defaults.Save(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("base_url", c.BaseURL)
	v.Set("download_dir", c.DownloadDir)
	v.Set("requests_per_second", c.RequestsPerSecond)
	v.Set("admin_pin", c.AdminPIN)
	v.Set("log_level", c.LogLevel)
	v.Set("provider.url", c.Provider.URL)
	v.Set("provider.access_key", c.Provider.AccessKey)
	v.Set("provider.query", c.Provider.Query)
	v.Set("provider.per_page", c.Provider.PerPage)

	if err := v.WriteConfigAs(ConfigPath()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return os.Chmod(ConfigPath(), 0o600)
}
