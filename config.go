package ringlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk description of a dispatcher and its sinks, loadable
// from YAML or JSON. Durations are given in milliseconds to keep the file
// format language-neutral.
type Config struct {
	Level    string          `yaml:"level" json:"level"`
	Console  *ConsoleConfig  `yaml:"console,omitempty" json:"console,omitempty"`
	Files    []FileConfig    `yaml:"files,omitempty" json:"files,omitempty"`
	Networks []NetworkConfig `yaml:"networks,omitempty" json:"networks,omitempty"`
}

// ConsoleConfig configures a console sink.
type ConsoleConfig struct {
	Level string `yaml:"level" json:"level"`
}

// FileConfig configures a file sink.
type FileConfig struct {
	Path               string `yaml:"path" json:"path"`
	Mode               string `yaml:"mode" json:"mode"`
	Level              string `yaml:"level" json:"level"`
	BufferSize         int    `yaml:"buffer_size" json:"buffer_size"`
	FlushIntervalMs    int    `yaml:"flush_interval_ms" json:"flush_interval_ms"`
	EnableRotation     bool   `yaml:"enable_rotation" json:"enable_rotation"`
	RotationMode       string `yaml:"rotation_mode" json:"rotation_mode"`
	MaxSize            int64  `yaml:"max_size" json:"max_size"`
	RotationIntervalMs int    `yaml:"rotation_interval_ms" json:"rotation_interval_ms"`
	MaxRotatedFiles    int    `yaml:"max_rotated_files" json:"max_rotated_files"`
	Compression        string `yaml:"compression" json:"compression"`
	RotationPattern    string `yaml:"rotation_pattern" json:"rotation_pattern"`
}

// NetworkConfig configures a network sink.
type NetworkConfig struct {
	Host             string      `yaml:"host" json:"host"`
	Port             int         `yaml:"port" json:"port"`
	Secure           bool        `yaml:"secure" json:"secure"`
	Path             string      `yaml:"path" json:"path"`
	Level            string      `yaml:"level" json:"level"`
	BufferSize       int         `yaml:"buffer_size" json:"buffer_size"`
	BatchSize        int         `yaml:"batch_size" json:"batch_size"`
	FlushIntervalMs  int         `yaml:"flush_interval_ms" json:"flush_interval_ms"`
	ConnectTimeoutMs int         `yaml:"connect_timeout_ms" json:"connect_timeout_ms"`
	Encoding         string      `yaml:"encoding" json:"encoding"`
	Retry            RetryConfig `yaml:"retry" json:"retry"`
}

// RetryConfig configures a network sink's retry policy.
type RetryConfig struct {
	Strategy       string  `yaml:"strategy" json:"strategy"`
	InitialDelayMs int     `yaml:"initial_delay_ms" json:"initial_delay_ms"`
	MaxDelayMs     int     `yaml:"max_delay_ms" json:"max_delay_ms"`
	MaxAttempts    int     `yaml:"max_attempts" json:"max_attempts"`
	JitterFactor   float64 `yaml:"jitter_factor" json:"jitter_factor"`
}

// LoadConfig reads and parses a config file, selecting the codec by file
// extension: .json is parsed as JSON, everything else as YAML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Build constructs a dispatcher with every configured sink attached. Sinks
// render independently, so the dispatcher is built without a pre-render
// formatter.
func (c *Config) Build() (*Dispatcher, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	d := NewDispatcher(level, nil)

	if c.Console != nil {
		lv, err := ParseLevel(c.Console.Level)
		if err != nil {
			return nil, err
		}
		d.AddSink(NewConsoleSink(nil, lv, nil))
	}

	for i := range c.Files {
		s, err := c.Files[i].build()
		if err != nil {
			d.Close()
			return nil, err
		}
		d.AddSink(s)
	}
	for i := range c.Networks {
		s, err := c.Networks[i].build()
		if err != nil {
			d.Close()
			return nil, err
		}
		d.AddSink(s)
	}
	return d, nil
}

func (c *FileConfig) build() (*FileSink, error) {
	lv, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := DefaultFileSinkOptions()
	opts.Path = c.Path
	opts.MinLevel = lv
	if c.Mode != "" {
		opts.Mode = c.Mode
	}
	if c.BufferSize > 0 {
		opts.BufferSize = c.BufferSize
	}
	if c.FlushIntervalMs > 0 {
		opts.FlushInterval = time.Duration(c.FlushIntervalMs) * time.Millisecond
	}
	opts.EnableRotation = c.EnableRotation
	if c.RotationMode != "" {
		opts.RotationMode = c.RotationMode
	}
	if c.MaxSize > 0 {
		opts.MaxSize = c.MaxSize
	}
	if c.RotationIntervalMs > 0 {
		opts.RotationInterval = time.Duration(c.RotationIntervalMs) * time.Millisecond
	}
	if c.MaxRotatedFiles > 0 {
		opts.MaxRotatedFiles = c.MaxRotatedFiles
	}
	if c.Compression != "" {
		opts.Compression = c.Compression
	}
	if c.RotationPattern != "" {
		opts.RotationPattern = c.RotationPattern
	}
	return NewFileSink(opts)
}

func (c *NetworkConfig) build() (*NetworkSink, error) {
	lv, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	opts := DefaultNetworkSinkOptions()
	opts.Endpoint.Host = c.Host
	opts.Endpoint.Secure = c.Secure
	opts.MinLevel = lv
	if c.Port > 0 {
		opts.Endpoint.Port = c.Port
	}
	if c.Path != "" {
		opts.Endpoint.Path = c.Path
	}
	if c.BufferSize > 0 {
		opts.BufferSize = c.BufferSize
	}
	if c.BatchSize > 0 {
		opts.BatchSize = c.BatchSize
	}
	if c.FlushIntervalMs > 0 {
		opts.FlushInterval = time.Duration(c.FlushIntervalMs) * time.Millisecond
	}
	if c.ConnectTimeoutMs > 0 {
		opts.ConnectTimeout = time.Duration(c.ConnectTimeoutMs) * time.Millisecond
	}
	if c.Encoding != "" {
		opts.Encoding = c.Encoding
	}
	if c.Retry.Strategy != "" {
		opts.Retry.Strategy = c.Retry.Strategy
	}
	if c.Retry.InitialDelayMs > 0 {
		opts.Retry.InitialDelay = time.Duration(c.Retry.InitialDelayMs) * time.Millisecond
	}
	if c.Retry.MaxDelayMs > 0 {
		opts.Retry.MaxDelay = time.Duration(c.Retry.MaxDelayMs) * time.Millisecond
	}
	if c.Retry.MaxAttempts > 0 {
		opts.Retry.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.JitterFactor > 0 {
		opts.Retry.JitterFactor = c.Retry.JitterFactor
	}
	return NewNetworkSink(opts)
}
