package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected HTTPAddr=:8080, got %s", cfg.HTTPAddr)
	}
	if cfg.StoreBackend != "memory" {
		t.Errorf("expected StoreBackend=memory, got %s", cfg.StoreBackend)
	}
	if cfg.QueueBackend != "memory" {
		t.Errorf("expected QueueBackend=memory, got %s", cfg.QueueBackend)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected WorkerCount=4, got %d", cfg.WorkerCount)
	}
	if cfg.QueueCapacity != 64 {
		t.Errorf("expected QueueCapacity=64, got %d", cfg.QueueCapacity)
	}
	if cfg.RenderTimeout != 10*time.Minute {
		t.Errorf("expected RenderTimeout=10m, got %s", cfg.RenderTimeout)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Errorf("expected SweepInterval=5m, got %s", cfg.SweepInterval)
	}
	if cfg.RetentionMaxAge != 15*time.Minute {
		t.Errorf("expected RetentionMaxAge=15m, got %s", cfg.RetentionMaxAge)
	}
	if cfg.QuotaGenerate.Limit != 3 || cfg.QuotaGenerate.Window != time.Hour {
		t.Errorf("expected generate quota 3/1h, got %d/%s", cfg.QuotaGenerate.Limit, cfg.QuotaGenerate.Window)
	}
	if cfg.RedisQueueKey != "seiza:jobs" {
		t.Errorf("expected RedisQueueKey=seiza:jobs, got %s", cfg.RedisQueueKey)
	}
	if !cfg.Embedded() {
		t.Error("expected default topology to be embedded")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("QUOTA_PREVIEW", "25/30s")
	t.Setenv("RENDER_TIMEOUT", "2m")
	t.Setenv("TRUSTED_PROXY", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("expected HTTPAddr=:9090, got %s", cfg.HTTPAddr)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("expected WorkerCount=8, got %d", cfg.WorkerCount)
	}
	if cfg.QuotaPreview.Limit != 25 || cfg.QuotaPreview.Window != 30*time.Second {
		t.Errorf("expected preview quota 25/30s, got %d/%s", cfg.QuotaPreview.Limit, cfg.QuotaPreview.Window)
	}
	if cfg.RenderTimeout != 2*time.Minute {
		t.Errorf("expected RenderTimeout=2m, got %s", cfg.RenderTimeout)
	}
	if !cfg.TrustedProxy {
		t.Error("expected TrustedProxy=true")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "https://a.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestFromEnvParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad int", "WORKER_COUNT", "many"},
		{"bad duration", "RENDER_TIMEOUT", "fast"},
		{"bad quota shape", "QUOTA_GENERATE", "3per-hour"},
		{"bad quota window", "QUOTA_GENERATE", "3/soon"},
		{"bad bool", "TRUSTED_PROXY", "yep"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestValidateTopology(t *testing.T) {
	base := func() *Config {
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return cfg
	}

	t.Run("redis queue requires postgres store", func(t *testing.T) {
		cfg := base()
		cfg.QueueBackend = "redis"
		cfg.StoreBackend = "memory"
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected validation error")
		}
		if !strings.Contains(err.Error(), "STORE_BACKEND=postgres") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("postgres store requires dsn", func(t *testing.T) {
		cfg := base()
		cfg.StoreBackend = "postgres"
		cfg.DatabaseURL = ""
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("redis queue with postgres store is coherent", func(t *testing.T) {
		cfg := base()
		cfg.QueueBackend = "redis"
		cfg.StoreBackend = "postgres"
		cfg.DatabaseURL = "postgres://localhost/seiza"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if cfg.Embedded() {
			t.Error("expected distributed topology")
		}
	})

	t.Run("gdrive requires credentials", func(t *testing.T) {
		cfg := base()
		cfg.StorageProvider = "gdrive"
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("http renderer requires url", func(t *testing.T) {
		cfg := base()
		cfg.RendererMode = "http"
		cfg.RendererURL = ""
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("unknown backend rejected", func(t *testing.T) {
		cfg := base()
		cfg.StoreBackend = "sqlite"
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("zero worker count rejected", func(t *testing.T) {
		cfg := base()
		cfg.WorkerCount = 0
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected validation error")
		}
	})
}
