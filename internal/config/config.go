package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cs "github.com/AnishMulay/sizefs/internal/content_service"
	"github.com/AnishMulay/sizefs/internal/log_service"
	pms "github.com/AnishMulay/sizefs/internal/metadata_service"
	"gopkg.in/yaml.v3"
)

const (
	CommunicatorGRPC = "grpc"
	CommunicatorHTTP = "http"

	LogBackendZap       = "zap"
	LogBackendLocalDisc = "localdisc"
)

var ErrInvalidConfig = errors.New("invalid config")

type LogConfig struct {
	// Backend is zap (stderr) or localdisc (one file per node under Dir).
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir,omitempty"`
	Level   string `yaml:"level"`
}

type MountConfig struct {
	Mountpoint  string        `yaml:"mountpoint,omitempty"`
	AllowOther  bool          `yaml:"allow_other"`
	AttrTimeout time.Duration `yaml:"attr_timeout"`
}

type RemoteConfig struct {
	Listen       string `yaml:"listen"`
	Communicator string `yaml:"communicator"`
	// MetricsAddress serves /metrics on its own listener; empty disables it.
	MetricsAddress string `yaml:"metrics_address,omitempty"`
}

type ContentConfig struct {
	DefaultMaxRandom int `yaml:"default_max_random"`
	// StableContentCache is how many plans to keep; 0 re-plans every read.
	StableContentCache int  `yaml:"stable_content_cache"`
	SkipPresets        bool `yaml:"skip_presets,omitempty"`
}

type DirectoryConfig struct {
	Name       string            `yaml:"name"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	Files      []string          `yaml:"files,omitempty"`
}

type Config struct {
	NodeID      string            `yaml:"node_id"`
	Log         LogConfig         `yaml:"log"`
	Mount       MountConfig       `yaml:"mount"`
	Remote      RemoteConfig      `yaml:"remote"`
	Content     ContentConfig     `yaml:"content"`
	Directories []DirectoryConfig `yaml:"directories,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		NodeID: "sizefs",
		Log: LogConfig{
			Backend: LogBackendZap,
			Level:   log_service.InfoLevel,
		},
		Remote: RemoteConfig{
			Listen:       "127.0.0.1:7070",
			Communicator: CommunicatorGRPC,
		},
		Content: ContentConfig{
			DefaultMaxRandom:   cs.DefaultMaxRandom,
			StableContentCache: 1024,
		},
	}
}

// LoadConfig reads path, writing the default config there first if the
// file does not exist yet.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		defaultConfig := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}

		data, err := yaml.Marshal(defaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}

		return defaultConfig, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults, so omitted keys keep their
// default values.
func Parse(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.Log.Backend {
	case LogBackendZap:
	case LogBackendLocalDisc:
		if c.Log.Dir == "" {
			return fmt.Errorf("%w: log.dir is required for the %s backend", ErrInvalidConfig, LogBackendLocalDisc)
		}
	default:
		return fmt.Errorf("%w: unknown log backend %q", ErrInvalidConfig, c.Log.Backend)
	}

	c.Remote.Communicator = strings.ToLower(c.Remote.Communicator)
	switch c.Remote.Communicator {
	case CommunicatorGRPC, CommunicatorHTTP:
	default:
		return fmt.Errorf("%w: unknown communicator %q", ErrInvalidConfig, c.Remote.Communicator)
	}

	if c.Content.DefaultMaxRandom < 0 || c.Content.DefaultMaxRandom > cs.MaxRandomLimit {
		return fmt.Errorf("%w: default_max_random %d outside 0..%d", ErrInvalidConfig, c.Content.DefaultMaxRandom, cs.MaxRandomLimit)
	}
	if c.Content.StableContentCache < 0 {
		return fmt.Errorf("%w: stable_content_cache is negative", ErrInvalidConfig)
	}
	if c.Mount.AttrTimeout < 0 {
		return fmt.Errorf("%w: mount.attr_timeout is negative", ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Directories))
	for _, d := range c.Directories {
		if d.Name == "" || strings.Contains(d.Name, "/") {
			return fmt.Errorf("%w: bad directory name %q", ErrInvalidConfig, d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: directory %q listed twice", ErrInvalidConfig, d.Name)
		}
		seen[d.Name] = true
		attrs := map[string]string{cs.AttrMaxRandom: strconv.Itoa(c.Content.DefaultMaxRandom)}
		for name, value := range d.Attributes {
			if err := cs.ValidateAttribute(name, value); err != nil {
				return fmt.Errorf("%w: directory %q: %w", ErrInvalidConfig, d.Name, err)
			}
			attrs[cs.NormalizeAttributeName(name)] = value
		}
		if _, err := cs.PatternSetFromAttributes(attrs); err != nil {
			return fmt.Errorf("%w: directory %q: %w", ErrInvalidConfig, d.Name, err)
		}
	}
	return nil
}

// MetadataDirectories converts the configured directories for the
// metadata service.
func (c *Config) MetadataDirectories() []pms.DirectoryConfig {
	out := make([]pms.DirectoryConfig, 0, len(c.Directories))
	for _, d := range c.Directories {
		attrs := make(map[string]string, len(d.Attributes))
		for name, value := range d.Attributes {
			attrs[cs.NormalizeAttributeName(name)] = value
		}
		out = append(out, pms.DirectoryConfig{
			Name:       d.Name,
			Attributes: attrs,
			Files:      append([]string(nil), d.Files...),
		})
	}
	return out
}
