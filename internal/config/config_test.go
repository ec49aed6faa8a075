package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "STORE_DRIVER", "ACCESS_TTL", "REFRESH_TTL", "CORS_ORIGIN", "TRUSTED_PROXIES", "WRITE_RATE_LIMIT", "JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.StoreDriver != DriverMongo {
		t.Fatalf("expected mongo driver, got %q", cfg.StoreDriver)
	}
	if cfg.AccessTTL != 5*time.Minute || cfg.RefreshTTL != 24*time.Hour {
		t.Fatalf("unexpected ttls: %v %v", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("no proxy should be trusted by default, got %v", cfg.TrustedProxies)
	}
	if cfg.WriteRateLimit != 60 || cfg.WriteRateWindow != time.Minute {
		t.Fatalf("unexpected write limit: %d per %v", cfg.WriteRateLimit, cfg.WriteRateWindow)
	}
}

func TestLoadParsesLists(t *testing.T) {
	t.Setenv("CORS_ORIGIN", "http://a.test, ,http://b.test")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.StoreDriver)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.0/8" {
		t.Fatalf("unexpected trusted proxies: %v", cfg.TrustedProxies)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "prod with dev secrets", env: map[string]string{"APP_ENV": "prod", "STORE_DRIVER": "mongo"}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "sqlite"}},
		{name: "bad ttl", env: map[string]string{"ACCESS_TTL": "soon"}},
		{name: "same secrets", env: map[string]string{"JWT_ACCESS_SECRET": "x", "JWT_REFRESH_SECRET": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"APP_ENV", "STORE_DRIVER", "ACCESS_TTL", "JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
