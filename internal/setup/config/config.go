package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion of the dashboard config file.
const CurrentVersion = 1

// Config represents the entire dashboard configuration.
type Config struct {
	// Version of the config file.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Server     Server     `koanf:"server"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Discord    Discord    `koanf:"discord"`
	Session    Session    `koanf:"session"`
	RateLimit  RateLimit  `koanf:"rate_limit"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Enable the pprof debugging endpoint.
	EnablePprof bool `koanf:"enable_pprof"`
	// Port for the pprof server.
	PprofPort int `koanf:"pprof_port"`
}

// Server contains HTTP server configuration.
type Server struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	// Base URL the dashboard is reachable at, used for OAuth redirects.
	PublicURL string `koanf:"public_url"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	DBName       string `koanf:"db_name"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	// Connection lifetime limits in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains session and cache store configuration.
type Redis struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Discord contains the OAuth application and bot credentials.
type Discord struct {
	// OAuth application client ID.
	ClientID uint64 `koanf:"client_id"`
	// OAuth application client secret.
	ClientSecret string `koanf:"client_secret"`
	// Token of the bot whose guilds are administered here.
	BotToken string `koanf:"bot_token"`
	// Seconds that guild/channel/role catalog responses stay cached.
	CatalogCacheSeconds int `koanf:"catalog_cache_seconds"`
}

// Session contains browser session configuration.
type Session struct {
	// Name of the session cookie.
	CookieName string `koanf:"cookie_name"`
	// Session lifetime in minutes.
	TTLMinutes int `koanf:"ttl_minutes"`
	// Whether the session cookie requires HTTPS.
	SecureCookie bool `koanf:"secure_cookie"`
}

// RateLimit contains API rate limiting configuration.
type RateLimit struct {
	// Requests allowed per second per client.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	// Burst size for rate limiting.
	BurstSize int `koanf:"burst_size"`
}

// LoadConfig loads the dashboard configuration from the first matching
// search path and returns it along with the directory it was found in.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configPaths := []string{
		".warden",
		homeDir + "/.warden/config",
		"/etc/warden/config",
		"/app/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := fmt.Sprintf("%s/dashboard.toml", path)
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: dashboard.toml", ErrConfigFileNotFound)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.Version == 0 {
		return nil, "", fmt.Errorf("%w: dashboard.toml", ErrConfigVersionMissing)
	}

	if config.Version != CurrentVersion {
		return nil, "", fmt.Errorf("%w: dashboard.toml has version %d, current version is %d",
			ErrConfigVersionMismatch, config.Version, CurrentVersion)
	}

	return &config, usedConfigPath, nil
}
