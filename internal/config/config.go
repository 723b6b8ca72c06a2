// Package config provides YAML-based configuration loading for Flagman.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Flagman configuration, loaded from flagman.yaml.
// It is constructed once at startup and passed down to every component.
type Config struct {
	Repo         string `yaml:"repo"`          // "owner/name"
	Label        string `yaml:"label"`         // watched issue label
	PollInterval int    `yaml:"poll_interval"` // seconds between poll cycles
	StatusEvery  int    `yaml:"status_every"`  // status line every N polls
	DataDir      string `yaml:"data_dir"`
	Token        string `yaml:"token"` // falls back to GITHUB_TOKEN

	Responder ResponderConfig `yaml:"responder"`
	DB        DBConfig        `yaml:"db"`
	Notify    NotifyConfig    `yaml:"notify"`
	Dashboard DashboardConfig `yaml:"dashboard"`

	// ExtraBotSignatures are appended to the built-in signature allow-list.
	// The built-in list is never replaced; a stale list risks response loops.
	ExtraBotSignatures []string `yaml:"extra_bot_signatures"`
}

// ResponderConfig describes the external responder process.
type ResponderConfig struct {
	Binary  string   `yaml:"binary"`
	Args    []string `yaml:"args"`
	WorkDir string   `yaml:"workdir"`
}

// DBConfig selects the store backend. The default is a SQLite file under
// data_dir; "mysql" points the registry at a shared MySQL-compatible server.
type DBConfig struct {
	Backend  string `yaml:"backend"` // "sqlite" or "mysql"
	Path     string `yaml:"path"`    // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// NotifyConfig holds optional chat notification settings.
type NotifyConfig struct {
	Slack      SlackConfig   `yaml:"slack"`
	Discord    DiscordConfig `yaml:"discord"`
	DigestCron string        `yaml:"digest_cron"` // 5-field cron expression
}

// SlackConfig holds Slack bot credentials and the target channel.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// DiscordConfig holds Discord bot credentials and the target channel.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DashboardConfig holds settings for the read-only status dashboard.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = 10
	}
	if c.StatusEvery == 0 {
		c.StatusEvery = 30
	}
	if c.DataDir == "" {
		c.DataDir = ".flagman"
	}
	if c.Token == "" {
		c.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.Responder.Binary == "" {
		c.Responder.Binary = "claude"
	}
	if len(c.Responder.Args) == 0 {
		c.Responder.Args = []string{"-p", "-", "--permission-mode", "bypassPermissions"}
	}
	if c.DB.Backend == "" {
		c.DB.Backend = "sqlite"
	}
	if c.DB.Path == "" {
		c.DB.Path = filepath.Join(c.DataDir, "flagman.db")
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.Database == "" {
		c.DB.Database = "flagman"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Repo == "" {
		errs = append(errs, "repo is required")
	} else if !strings.Contains(c.Repo, "/") {
		errs = append(errs, `repo must be "owner/name"`)
	}
	if c.Label == "" {
		errs = append(errs, "label is required")
	}
	if c.PollInterval < 1 {
		errs = append(errs, "poll_interval must be at least 1 second")
	}
	switch c.DB.Backend {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("db.backend %q is not supported (sqlite or mysql)", c.DB.Backend))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Interval returns the poll interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// Owner returns the repository owner half of Repo.
func (c *Config) Owner() string {
	owner, _, _ := strings.Cut(c.Repo, "/")
	return owner
}

// Name returns the repository name half of Repo.
func (c *Config) Name() string {
	_, name, _ := strings.Cut(c.Repo, "/")
	return name
}

// LogsDir returns the directory holding responder session logs.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}
