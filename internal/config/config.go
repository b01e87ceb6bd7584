// Package config loads taskboard settings from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Sync modes for clients.
const (
	SyncPoll   = "poll"
	SyncStream = "stream"
)

// Config holds server and client settings.
type Config struct {
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`

	RedisURL string `yaml:"redis_url"`

	Auth AuthConfig `yaml:"auth"`
	Sync SyncConfig `yaml:"sync"`

	Client ClientConfig `yaml:"client"`
	Trello TrelloConfig `yaml:"trello"`

	Debug     bool   `yaml:"debug"`
	LogFormat string `yaml:"log_format"`
}

// AuthConfig configures session token validation.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	JWKSURL   string `yaml:"jwks_url"`
	Audience  string `yaml:"audience"`
	Issuer    string `yaml:"issuer"`
}

// SyncConfig configures board synchronization.
type SyncConfig struct {
	Mode            string        `yaml:"mode"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	StreamCheck     time.Duration `yaml:"stream_check_interval"`
	StreamHeartbeat time.Duration `yaml:"stream_heartbeat_interval"`
}

// ClientConfig configures boardctl.
type ClientConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// TrelloConfig holds Trello API credentials for imports.
type TrelloConfig struct {
	APIKey string `yaml:"api_key"`
	Token  string `yaml:"token"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:   "8080",
		DBPath: "./data/taskboard.db",
		Sync: SyncConfig{
			Mode:            SyncPoll,
			PollInterval:    3 * time.Second,
			StreamCheck:     3 * time.Second,
			StreamHeartbeat: 30 * time.Second,
		},
		Client:    ClientConfig{URL: "http://localhost:8080"},
		LogFormat: "text",
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded into the environment first without overriding variables already
// set. When CONFIG_FILE names a YAML file it is applied over the defaults,
// then environment variables are applied over both.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile builds the configuration from path (optional) and the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	setString(&c.Port, "PORT")
	setString(&c.DBPath, "DB_PATH")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.JWKSURL, "AUTH_JWKS_URL")
	setString(&c.Auth.Audience, "AUTH_AUDIENCE")
	setString(&c.Auth.Issuer, "AUTH_ISSUER")
	setString(&c.Sync.Mode, "SYNC_MODE")
	setString(&c.Client.URL, "BOARDCTL_URL")
	setString(&c.Client.Token, "BOARDCTL_TOKEN")
	setString(&c.Trello.APIKey, "TRELLO_API_KEY")
	setString(&c.Trello.Token, "TRELLO_TOKEN")
	setString(&c.LogFormat, "LOG_FORMAT")

	if v := os.Getenv("DEBUG"); v != "" {
		dbg, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG: %w", err)
		}
		c.Debug = dbg
	}

	for key, dst := range map[string]*time.Duration{
		"POLL_INTERVAL":             &c.Sync.PollInterval,
		"STREAM_CHECK_INTERVAL":     &c.Sync.StreamCheck,
		"STREAM_HEARTBEAT_INTERVAL": &c.Sync.StreamHeartbeat,
	} {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Sync.Mode {
	case SyncPoll, SyncStream:
	default:
		return fmt.Errorf("invalid sync mode %q: want %s or %s", c.Sync.Mode, SyncPoll, SyncStream)
	}
	if c.Sync.PollInterval <= 0 || c.Sync.StreamCheck <= 0 || c.Sync.StreamHeartbeat <= 0 {
		return errors.New("sync intervals must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setDuration accepts Go durations ("3s") or plain milliseconds ("3000").
func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
