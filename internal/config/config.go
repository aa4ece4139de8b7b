package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	ListenAddr     string `yaml:"listen_addr"`
	CommandTimeout string `yaml:"command_timeout"`
}

// StorageConfig holds local state paths (profile list, vault key).
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// MonitorConfig holds ingestion-engine tuning.
type MonitorConfig struct {
	ReplayWindow int `yaml:"replay_window"`
	SinkBuffer   int `yaml:"sink_buffer"`
}

// RelayConfig holds the NATS event relay settings.
type RelayConfig struct {
	Enabled       bool   `yaml:"enabled"`
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// ClickHouseConfig holds the connection settings for the archive database.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ArchiveConfig holds the monitor-event archive settings.
type ArchiveConfig struct {
	Enabled       bool             `yaml:"enabled"`
	Type          string           `yaml:"type"` // "jsonl" or "clickhouse"
	Path          string           `yaml:"path"`
	FlushInterval string           `yaml:"flush_interval"`
	BatchSize     int              `yaml:"batch_size"`
	ClickHouse    ClickHouseConfig `yaml:"clickhouse"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Monitor MonitorConfig `yaml:"monitor"`
	Relay   RelayConfig   `yaml:"relay"`
	Archive ArchiveConfig `yaml:"archive"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config
// struct with defaults applied.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration usable without any config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "127.0.0.1:7410"
	}
	if c.Server.CommandTimeout == "" {
		c.Server.CommandTimeout = "30s"
	}
	if c.Storage.DataDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.Storage.DataDir = dir + "/redistics"
		} else {
			c.Storage.DataDir = "."
		}
	}
	if c.Monitor.ReplayWindow <= 0 {
		c.Monitor.ReplayWindow = 1000
	}
	if c.Monitor.SinkBuffer <= 0 {
		c.Monitor.SinkBuffer = 10000
	}
	if c.Relay.SubjectPrefix == "" {
		c.Relay.SubjectPrefix = "redistics"
	}
	if c.Archive.Type == "" {
		c.Archive.Type = "jsonl"
	}
	if c.Archive.FlushInterval == "" {
		c.Archive.FlushInterval = "5s"
	}
	if c.Archive.BatchSize <= 0 {
		c.Archive.BatchSize = 500
	}
}

// CommandTimeout parses the per-command timeout duration.
func (c *Config) CommandTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.CommandTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid command_timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("command_timeout must be a positive duration")
	}
	return d, nil
}
