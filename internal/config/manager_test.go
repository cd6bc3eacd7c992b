package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) error = %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	m := NewManager()
	err := m.LoadFromYAML([]byte(`
database:
  type: sqlite
  path: ":memory:"
feed:
  type: memory
  poll_interval: 250ms
log:
  level: debug
`))
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}

	cfg := m.Config()
	if cfg.Database.Type != "sqlite" || cfg.Database.Path != ":memory:" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Feed.PollInterval != 250*time.Millisecond {
		t.Errorf("feed.poll_interval = %v, want 250ms", cfg.Feed.PollInterval)
	}
	if cfg.Feed.BatchSize != 100 {
		t.Errorf("feed.batch_size = %d, want default 100", cfg.Feed.BatchSize)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadFromYAMLRejectsInvalid(t *testing.T) {
	m := NewManager()
	if err := m.LoadFromYAML([]byte("database:\n  type: oracle\n")); err == nil {
		t.Fatal("LoadFromYAML() with unknown database type should fail")
	}
	if m.Config().Database.Type != "postgres" {
		t.Errorf("failed load changed config to %q", m.Config().Database.Type)
	}

	if err := m.LoadFromYAML([]byte("database:\n  type: sqlite\n")); err == nil {
		t.Error("sqlite without path should fail")
	}
}

func TestLoadFromJSON(t *testing.T) {
	m := NewManager()
	err := m.LoadFromJSON([]byte(`{"database":{"type":"mysql","host":"db","port":3306,"name":"app"}}`))
	if err != nil {
		t.Fatalf("LoadFromJSON() error = %v", err)
	}
	if got := m.Config().Database; got.Host != "db" || got.Port != 3306 || got.Name != "app" {
		t.Errorf("database = %+v", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SQLOBJECTS_DATABASE__HOST", "pg.internal")
	t.Setenv("SQLOBJECTS_DATABASE__PORT", "6432")
	t.Setenv("SQLOBJECTS_DATABASE__CONNECT_TIMEOUT", "3s")
	t.Setenv("SQLOBJECTS_FEED__TYPE", "kafka")
	t.Setenv("SQLOBJECTS_FEED__KAFKA__BROKERS", "k1:9092,k2:9092")
	t.Setenv("SQLOBJECTS_LOG__SQL", "true")

	m := NewManager()
	if err := m.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	cfg := m.Config()
	if cfg.Database.Host != "pg.internal" || cfg.Database.Port != 6432 {
		t.Errorf("database = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.ConnectTimeout != 3*time.Second {
		t.Errorf("connect_timeout = %v, want 3s", cfg.Database.ConnectTimeout)
	}
	if cfg.Database.Name != "sqlobjects" {
		t.Errorf("unset database.name = %q, want default", cfg.Database.Name)
	}
	if len(cfg.Feed.Kafka.Brokers) != 2 || cfg.Feed.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("kafka brokers = %v", cfg.Feed.Kafka.Brokers)
	}
	if !cfg.Log.SQL {
		t.Error("log.sql = false, want true")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("database:\n  type: postgres\n  host: from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SQLOBJECTS_DATABASE__HOST", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Host != "from-env" {
		t.Errorf("host = %q, want environment to win", cfg.Database.Host)
	}
}

func TestValidateFeedStrategies(t *testing.T) {
	cfg := Default()
	cfg.Feed.Type = "redis"
	cfg.Feed.Redis.Addr = ""
	if err := Validate(cfg); err == nil {
		t.Error("redis feed without addr should fail")
	}

	cfg = Default()
	cfg.Feed.Type = "kafka"
	cfg.Feed.Kafka.Topic = ""
	if err := Validate(cfg); err == nil {
		t.Error("kafka feed without topic should fail")
	}

	cfg = Default()
	cfg.Database.MaxIdleConns = 50
	if err := Validate(cfg); err == nil {
		t.Error("max_idle_conns above max_open_conns should fail")
	}
}

func TestLoadFromFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := NewManager().LoadFromFile(path); err == nil {
		t.Error("LoadFromFile(.toml) should fail")
	}
}
