package config

import (
	"testing"
	"time"
)

func TestLoadUsesDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("PROFILE_SOURCE", "")
	t.Setenv("PROFILE_CACHE_TTL", "")

	cfg := Load()
	if cfg.ServerPort != "8090" {
		t.Fatalf("expected default port 8090, got %s", cfg.ServerPort)
	}
	if cfg.ProfileSource != ProfileSourcePostgres {
		t.Fatalf("expected postgres profile source, got %s", cfg.ProfileSource)
	}
	if cfg.ProfileCacheTTL != 10*time.Minute {
		t.Fatalf("expected 10m cache ttl, got %s", cfg.ProfileCacheTTL)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("PROFILE_SOURCE", "REMOTE")
	t.Setenv("PERSIST_ASSESSMENTS", "false")
	t.Setenv("READ_TIMEOUT", "5s")

	cfg := Load()
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.ProfileSource != ProfileSourceRemote {
		t.Fatalf("expected remote profile source, got %s", cfg.ProfileSource)
	}
	if cfg.PersistAssessments {
		t.Fatal("expected persistence disabled")
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Fatalf("expected 5s read timeout, got %s", cfg.ReadTimeout)
	}
}
