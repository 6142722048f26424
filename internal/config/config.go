package config

import (
	"errors"
	"fmt"
	"time"
)

// History drivers.
const (
	HistorySQLite = "sqlite"
	HistoryBolt   = "bolt"
	HistoryJSON   = "json"
)

// Blob drivers.
const (
	BlobsLocal = "local"
	BlobsS3    = "s3"
)

// Config holds server configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	EchoToSender       bool          `mapstructure:"echo_to_sender" yaml:"echo_to_sender"`
	DefaultRoom        string        `mapstructure:"default_room" yaml:"default_room"`
	History            HistoryConfig `mapstructure:"history" yaml:"history"`
	Blobs              BlobConfig    `mapstructure:"blobs" yaml:"blobs"`
}

// HistoryConfig selects the durable message log.
type HistoryConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// BlobConfig controls where image attachments are written.
type BlobConfig struct {
	Driver       string        `mapstructure:"driver" yaml:"driver"`
	Dir          string        `mapstructure:"dir" yaml:"dir"`
	URLPrefix    string        `mapstructure:"url_prefix" yaml:"url_prefix"`
	MaxBytes     int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	S3           S3Config      `mapstructure:"s3" yaml:"s3"`
}

// S3Config holds bucket settings for the s3 blob driver.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	Region          string `mapstructure:"region" yaml:"region"`
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":4000",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		MaxMessageBytes:    16 << 20,
		RateLimitPerMinute: 0,
		EchoToSender:       true,
		DefaultRoom:        "anonymous",
		History: HistoryConfig{
			Driver: HistorySQLite,
			Path:   "data/messages.db",
		},
		Blobs: BlobConfig{
			Driver:       BlobsLocal,
			Dir:          "uploads",
			URLPrefix:    "/uploads",
			MaxBytes:     10 << 20,
			WriteTimeout: 10 * time.Second,
			S3: S3Config{
				Region: "us-east-1",
			},
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.DefaultRoom != "" {
		c.DefaultRoom = other.DefaultRoom
	}
	if other.History.Driver != "" {
		c.History.Driver = other.History.Driver
	}
	if other.History.Path != "" {
		c.History.Path = other.History.Path
	}
	if other.Blobs.Driver != "" {
		c.Blobs.Driver = other.Blobs.Driver
	}
	if other.Blobs.Dir != "" {
		c.Blobs.Dir = other.Blobs.Dir
	}
	if other.Blobs.URLPrefix != "" {
		c.Blobs.URLPrefix = other.Blobs.URLPrefix
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_per_minute must not be negative, got %d", c.RateLimitPerMinute))
	}
	if c.DefaultRoom == "" {
		errs = append(errs, errors.New("default_room is required"))
	}
	switch c.History.Driver {
	case HistorySQLite, HistoryBolt, HistoryJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown history driver %q", c.History.Driver))
	}
	if c.History.Path == "" {
		errs = append(errs, errors.New("history.path is required"))
	}
	switch c.Blobs.Driver {
	case BlobsLocal:
		if c.Blobs.Dir == "" {
			errs = append(errs, errors.New("blobs.dir is required for the local driver"))
		}
	case BlobsS3:
		if c.Blobs.S3.Bucket == "" {
			errs = append(errs, errors.New("blobs.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blobs driver %q", c.Blobs.Driver))
	}
	if c.Blobs.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("blobs.max_bytes must be positive, got %d", c.Blobs.MaxBytes))
	}
	return errors.Join(errs...)
}
