// Package config loads the client configuration from defaults, an optional
// YAML or JSON file and SQLOBJECTS_ environment variables, in that order.
package config

import "time"

// Config is the complete client configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" json:"database" koanf:"database" validate:"required"`
	Feed     FeedConfig     `yaml:"feed" json:"feed" koanf:"feed"`
	Log      LogConfig      `yaml:"log" json:"log" koanf:"log"`
}

// DatabaseConfig selects and configures the database connection.
type DatabaseConfig struct {
	// Type is one of postgres, mysql or sqlite.
	Type string `yaml:"type" json:"type" koanf:"type" validate:"required,oneof=postgres mysql sqlite"`

	Host     string `yaml:"host" json:"host" koanf:"host" validate:"required_unless=Type sqlite"`
	Port     int    `yaml:"port" json:"port" koanf:"port" validate:"gte=0,lte=65535"`
	Name     string `yaml:"name" json:"name" koanf:"name" validate:"required_unless=Type sqlite"`
	User     string `yaml:"user" json:"user" koanf:"user"`
	Password string `yaml:"password" json:"password" koanf:"password"`
	SSLMode  string `yaml:"ssl_mode" json:"ssl_mode" koanf:"ssl_mode"`

	// Path is the SQLite database file, or ":memory:".
	Path string `yaml:"path" json:"path" koanf:"path" validate:"required_if=Type sqlite"`

	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time" koanf:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" json:"connect_timeout" koanf:"connect_timeout" validate:"gt=0"`
}

// FeedConfig configures the change feed used for cross-process cache
// invalidation.
type FeedConfig struct {
	// Type is one of none, memory, redis or kafka.
	Type string `yaml:"type" json:"type" koanf:"type" validate:"oneof=none memory redis kafka"`

	// BufferSize bounds the memory feed.
	BufferSize int `yaml:"buffer_size" json:"buffer_size" koanf:"buffer_size" validate:"gte=1"`

	// ApplyRate is the maximum number of change events applied per second.
	ApplyRate float64 `yaml:"apply_rate" json:"apply_rate" koanf:"apply_rate" validate:"gt=0"`

	// BatchSize is the maximum number of events received per poll.
	BatchSize int `yaml:"batch_size" json:"batch_size" koanf:"batch_size" validate:"gte=1"`

	// PollInterval is how long the consumer sleeps when the feed is empty.
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval" koanf:"poll_interval" validate:"gt=0"`

	Redis RedisConfig `yaml:"redis" json:"redis" koanf:"redis"`
	Kafka KafkaConfig `yaml:"kafka" json:"kafka" koanf:"kafka"`
}

// RedisConfig configures the Redis list feed.
type RedisConfig struct {
	Addr         string        `yaml:"addr" json:"addr" koanf:"addr"`
	Password     string        `yaml:"password" json:"password" koanf:"password"`
	DB           int           `yaml:"db" json:"db" koanf:"db" validate:"gte=0"`
	Prefix       string        `yaml:"prefix" json:"prefix" koanf:"prefix"`
	PoolSize     int           `yaml:"pool_size" json:"pool_size" koanf:"pool_size" validate:"gte=0"`
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout" koanf:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" koanf:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" koanf:"write_timeout"`
}

// KafkaConfig configures the Kafka topic feed.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers" json:"brokers" koanf:"brokers"`
	Topic        string        `yaml:"topic" json:"topic" koanf:"topic"`
	GroupID      string        `yaml:"group_id" json:"group_id" koanf:"group_id"`
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout" koanf:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" koanf:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout" koanf:"read_timeout"`
	RequiredAcks int           `yaml:"required_acks" json:"required_acks" koanf:"required_acks" validate:"oneof=-1 0 1"`
	MinBytes     int           `yaml:"min_bytes" json:"min_bytes" koanf:"min_bytes" validate:"gte=0"`
	MaxBytes     int           `yaml:"max_bytes" json:"max_bytes" koanf:"max_bytes" validate:"gte=0"`
	MaxWait      time.Duration `yaml:"max_wait" json:"max_wait" koanf:"max_wait"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zerolog level name.
	Level string `yaml:"level" json:"level" koanf:"level" validate:"oneof=trace debug info warn error"`

	// Pretty selects the console writer instead of JSON output.
	Pretty bool `yaml:"pretty" json:"pretty" koanf:"pretty"`

	// SQL traces every Postgres statement through pgx tracelog.
	SQL bool `yaml:"sql" json:"sql" koanf:"sql"`
}

// Default returns a configuration with sensible defaults: a local Postgres
// database and no change feed.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:            "postgres",
			Host:            "localhost",
			Port:            5432,
			Name:            "sqlobjects",
			User:            "postgres",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
			ConnectTimeout:  10 * time.Second,
		},
		Feed: FeedConfig{
			Type:         "none",
			BufferSize:   10000,
			ApplyRate:    500,
			BatchSize:    100,
			PollInterval: 100 * time.Millisecond,
			Redis: RedisConfig{
				Addr:         "localhost:6379",
				Prefix:       "sqlobjects",
				PoolSize:     10,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
			Kafka: KafkaConfig{
				Brokers:      []string{"localhost:9092"},
				Topic:        "sqlobjects-changes",
				GroupID:      "sqlobjects",
				BatchTimeout: 10 * time.Millisecond,
				WriteTimeout: 10 * time.Second,
				ReadTimeout:  10 * time.Second,
				RequiredAcks: -1,
				MinBytes:     1,
				MaxBytes:     10 * 1024 * 1024,
				MaxWait:      100 * time.Millisecond,
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
