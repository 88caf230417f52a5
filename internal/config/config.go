package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/loykin/provenv/internal/logger"
	"github.com/loykin/provenv/internal/workspace"
)

// Config is the top-level TOML structure.
//
// Example:
//
//	[workspace]
//	root = "/var/lib/provenv"
//	dry_run = false
//
//	[log]
//	level = "info"
//	dir = "/var/log/provenv"
//
//	[store]
//	dsn = "sqlite:///var/lib/provenv/inventory.db"
//
//	[history]
//	dsn = "clickhouse://localhost:9000?table=env_history"
//
//	[server]
//	listen = ":8080"
//	base_path = "/api"
//
//	[[environments]]
//	name = "analysis"
//	packages = ["numpy==1.2", "requests"]
type Config struct {
	Workspace    WorkspaceConfig `toml:"workspace" mapstructure:"workspace"`
	Log          LogConfig       `toml:"log" mapstructure:"log"`
	Store        StoreConfig     `toml:"store" mapstructure:"store"`
	History      HistoryConfig   `toml:"history" mapstructure:"history"`
	Server       ServerConfig    `toml:"server" mapstructure:"server"`
	Environments []EnvConfig     `toml:"environments" mapstructure:"environments"`
}

type WorkspaceConfig struct {
	Root   string `toml:"root" mapstructure:"root"`
	DryRun bool   `toml:"dry_run" mapstructure:"dry_run"`
}

type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Dir        string `toml:"dir" mapstructure:"dir"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// ToolOutput maps the log section onto the rotating writer configuration
// used for installer output.
func (l LogConfig) ToolOutput() logger.Config {
	return logger.Config{
		Dir:        l.Dir,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		Compress:   l.Compress,
	}
}

type StoreConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type HistoryConfig struct {
	DSN string `toml:"dsn" mapstructure:"dsn"`
}

type ServerConfig struct {
	Listen        string `toml:"listen" mapstructure:"listen"`
	BasePath      string `toml:"base_path" mapstructure:"base_path"`
	MetricsListen string `toml:"metrics_listen" mapstructure:"metrics_listen"`
}

type EnvConfig struct {
	Name     string   `toml:"name" mapstructure:"name"`
	Packages []string `toml:"packages" mapstructure:"packages"`
}

// LoadConfig reads and validates a TOML config file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &c, nil
}

// Validate checks structural invariants that viper cannot express.
func (c *Config) Validate() error {
	if c.Workspace.Root == "" {
		return fmt.Errorf("workspace.root is required")
	}
	seen := make(map[string]bool)
	for _, e := range c.Environments {
		if e.Name == "" {
			return fmt.Errorf("environment name must not be empty")
		}
		if seen[e.Name] {
			return fmt.Errorf("duplicate environment %q", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// BuildWorkspace constructs the workspace with all configured
// environments registered. dryRun overrides the file setting when true
// (CLI flag wins).
func (c *Config) BuildWorkspace(dryRun bool) (*workspace.Workspace, error) {
	root := c.Workspace.Root
	if !filepath.IsAbs(root) {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		root = abs
	}
	if st, err := os.Stat(root); err == nil && !st.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", root)
	}
	ws := workspace.New(root, dryRun || c.Workspace.DryRun)
	for _, e := range c.Environments {
		ws.AddEnvironment(workspace.SoftwareEnvironment{Name: e.Name, Packages: e.Packages})
	}
	return ws, nil
}
