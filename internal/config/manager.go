package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
// Nesting uses a double underscore: SQLOBJECTS_DATABASE__HOST sets database.host.
const EnvPrefix = "SQLOBJECTS_"

// Manager holds the configuration while it is assembled from its sources.
type Manager struct {
	config *Config
}

// NewManager creates a new configuration manager with default configuration.
func NewManager() *Manager {
	return &Manager{config: Default()}
}

// Load returns the defaults overlaid with the file at path (skipped when
// path is empty) and then the environment, validated once at the end.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := decodeEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Config returns the current configuration.
func (m *Manager) Config() *Config {
	return m.config
}

// LoadFromFile overlays a YAML or JSON file onto the current configuration.
// The format is chosen by extension (.yaml, .yml or .json).
func (m *Manager) LoadFromFile(path string) error {
	next := *m.config
	if err := decodeFile(path, &next); err != nil {
		return err
	}
	return m.apply(&next)
}

// LoadFromYAML overlays YAML data onto the current configuration.
func (m *Manager) LoadFromYAML(data []byte) error {
	next := *m.config
	if err := yaml.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return m.apply(&next)
}

// LoadFromJSON overlays JSON data onto the current configuration.
// Durations are given in nanoseconds.
func (m *Manager) LoadFromJSON(data []byte) error {
	next := *m.config
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("failed to parse JSON config: %w", err)
	}
	return m.apply(&next)
}

// LoadFromEnv overlays SQLOBJECTS_ environment variables onto the current
// configuration.
func (m *Manager) LoadFromEnv() error {
	next := *m.config
	if err := decodeEnv(&next); err != nil {
		return err
	}
	return m.apply(&next)
}

func (m *Manager) apply(next *Config) error {
	if err := Validate(next); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	m.config = next
	return nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
	return nil
}

func decodeEnv(cfg *Config) error {
	k := koanf.New(".")
	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		if strings.HasSuffix(key, ".brokers") {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil)
	if err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed to decode environment: %w", err)
	}
	return nil
}

var validate = validator.New()

// feedValidators check the settings each feed type needs beyond struct tags.
var feedValidators = map[string]func(*FeedConfig) error{
	"redis": func(f *FeedConfig) error {
		if f.Redis.Addr == "" {
			return errors.New("feed.redis.addr is required when feed.type is 'redis'")
		}
		return nil
	},
	"kafka": func(f *FeedConfig) error {
		if len(f.Kafka.Brokers) == 0 {
			return errors.New("feed.kafka.brokers is required when feed.type is 'kafka'")
		}
		if f.Kafka.Topic == "" {
			return errors.New("feed.kafka.topic is required when feed.type is 'kafka'")
		}
		if f.Kafka.GroupID == "" {
			return errors.New("feed.kafka.group_id is required when feed.type is 'kafka'")
		}
		return nil
	},
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	db := cfg.Database
	if db.MaxOpenConns > 0 && db.MaxIdleConns > db.MaxOpenConns {
		return errors.New("database.max_idle_conns must be <= database.max_open_conns")
	}
	if db.Type != "sqlite" && db.Port == 0 {
		return fmt.Errorf("database.port is required for %s", db.Type)
	}

	if check, ok := feedValidators[cfg.Feed.Type]; ok {
		if err := check(&cfg.Feed); err != nil {
			return err
		}
	}
	return nil
}
