package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Matching.StartRadiusMeters != 1000 || cfg.Matching.StepMeters != 1000 || cfg.Matching.MaxRadiusMeters != 5000 {
		t.Fatalf("unexpected radius defaults: %+v", cfg.Matching)
	}
	if cfg.Matching.ReserveWorkers {
		t.Fatal("worker reservation must be off by default")
	}
	if cfg.Pricing.CacheTTL != time.Hour {
		t.Fatalf("expected 1h pricing cache ttl, got %s", cfg.Pricing.CacheTTL)
	}
	if cfg.Dispatch.IdempotencyPendingTTL != 30*time.Second {
		t.Fatalf("expected 30s pending idempotency ttl, got %s", cfg.Dispatch.IdempotencyPendingTTL)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Fatalf("kafka should be disabled by default, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DISPATCH_MATCH_MAX_RADIUS_M", "8000")
	t.Setenv("DISPATCH_RESERVE_WORKERS", "true")
	t.Setenv("DISPATCH_KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DISPATCH_ADVISORY_TIMEOUT", "750ms")
	t.Setenv("DISPATCH_RATE_LIMIT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Matching.MaxRadiusMeters != 8000 {
		t.Errorf("max radius = %v, want 8000", cfg.Matching.MaxRadiusMeters)
	}
	if !cfg.Matching.ReserveWorkers {
		t.Error("expected reservation enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Dispatch.AdvisoryTimeout != 750*time.Millisecond {
		t.Errorf("advisory timeout = %s", cfg.Dispatch.AdvisoryTimeout)
	}
	// malformed values fall back to the default
	if cfg.RateLimit.Limit != 20 {
		t.Errorf("rate limit = %d, want 20", cfg.RateLimit.Limit)
	}
}
