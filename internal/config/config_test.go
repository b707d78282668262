package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "TAX_RATE", "WAITER_CALL_WINDOW", "RECEIPT_TOKEN_SECRET", "ORDER_ETA"} {
		t.Setenv(key, "")
	}
	t.Setenv("JWT_SECRET", "jwt-secret")

	cfg := Load()
	if cfg.HTTPAddr != ":8086" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.TaxRate != 0.10 || cfg.WaiterCallWindow != 300*time.Second || cfg.OrderETA != 30*time.Minute {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ReceiptTokenSecret != "jwt-secret" {
		t.Fatalf("receipt secret must fall back to the jwt secret")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TAX_RATE", "0.18")
	t.Setenv("SESSION_IDLE_TTL", "45m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("JWT_EXPIRY", "not-a-number")
	t.Setenv("OBJECT_STORE_ENDPOINT", "")
	t.Setenv("R2_S3_ENDPOINT", "")
	t.Setenv("R2_ACCOUNT_ID", "acc")

	cfg := Load()
	if cfg.TaxRate != 0.18 || cfg.SessionIdleTTL != 45*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CorsAllowedOrigins) != 2 {
		t.Fatalf("unexpected origins %v", cfg.CorsAllowedOrigins)
	}
	if cfg.JWTExpiry() != 4*time.Hour {
		t.Fatalf("invalid expiry must fall back, got %s", cfg.JWTExpiry())
	}
	if cfg.ObjectStoreEndpoint != "https://acc.r2.cloudflarestorage.com" {
		t.Fatalf("unexpected endpoint %q", cfg.ObjectStoreEndpoint)
	}
}

func TestTaxRateOutOfRange(t *testing.T) {
	t.Setenv("TAX_RATE", "1.5")
	if got := Load().TaxRate; got != 0.10 {
		t.Fatalf("expected fallback tax rate, got %v", got)
	}
}

func TestDatabaseSettings(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("OBJECT_STORE_ENDPOINT", "minio:9000")
	t.Setenv("OBJECT_STORE_BUCKET", "receipts")

	cfg := Load()
	if cfg.DatabaseMaxConns != 25 || !cfg.DatabaseAutoMigrate {
		t.Fatalf("unexpected database settings %+v", cfg)
	}
	if !cfg.ObjectStore().Enabled() {
		t.Fatalf("object store should be enabled")
	}
}
