package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for the notifier.
type Config struct {
	HostID   string         `toml:"host_id"`
	BaseDir  string         `toml:"base_dir"`
	LogDir   string         `toml:"log_dir"`
	Wikis    []WikiConfig   `toml:"wikis"`
	Database DatabaseConfig `toml:"database"`
	Source   SourceConfig   `toml:"source"`
	Delivery DeliveryConfig `toml:"delivery"`
	Dump     DumpConfig     `toml:"dump"`
	Notify   NotifyConfig   `toml:"notify"`
}

// WikiConfig declares a wiki whose posts feed is watched.
type WikiConfig struct {
	ID     string `toml:"id"`
	Secure bool   `toml:"secure"`
}

// DatabaseConfig represents configuration for the store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// SourceConfig represents configuration for new-post discovery.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type SourceConfig struct {
	Type        string `toml:"type"`                   // "rss" or "none"
	FeedPattern string `toml:"feed_pattern,omitempty"` // printf pattern with the wiki ID, only for type=rss
	TimeoutSec  int    `toml:"timeout_sec,omitempty"`  // per-feed HTTP timeout, only for type=rss
}

// DeliveryConfig represents configuration for the delivery mechanism.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DeliveryConfig struct {
	Type     string `toml:"type"`               // "stdout" or "none"
	Username string `toml:"username,omitempty"` // delivery account name
}

// DumpConfig represents configuration for off-site run-metrics retention.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DumpConfig struct {
	Type string `toml:"type"` // "none", "memory", or "s3"

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`
}

// NotifyConfig holds notification pipeline settings.
type NotifyConfig struct {
	Workers int `toml:"workers"` // bounded delivery concurrency; <=0 uses the default
}

// NewConfig creates a new Config with the provided values and defaults.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:  hostID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Source: SourceConfig{
			Type:        "rss",
			FeedPattern: "http://%s.wikidot.com/feed/forum/posts.xml",
		},
		Delivery: DeliveryConfig{Type: "stdout"},
		Dump:     DumpConfig{Type: "none"},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
