// Package config loads service configuration from the environment, with
// optional .env files for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Quota is one fixed-window limit.
type Quota struct {
	Limit  int
	Window time.Duration
}

// GDrive holds Google Drive storage credentials.
type GDrive struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	FolderID     string
}

// Config is the full service configuration shared by the api and worker
// binaries. Fields not used by a given binary are simply ignored.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	StoreBackend    string // memory | postgres
	QueueBackend    string // memory | redis
	QuotaBackend    string // memory | redis
	StorageProvider string // local | gdrive

	LocalStoragePath string
	DatabaseURL      string
	RedisAddr        string
	RedisQueueKey    string

	WorkerCount   int
	QueueCapacity int
	RenderTimeout time.Duration

	RendererMode  string // ffmpeg | http
	FFmpegBin     string
	TemplateVideo string
	FontFile      string
	RendererURL   string

	SweepInterval   time.Duration
	RetentionMaxAge time.Duration

	QuotaPreview  Quota
	QuotaGenerate Quota
	QuotaCleanup  Quota
	GlobalHourly  int
	GlobalDaily   int

	ThrottleRPS   float64
	ThrottleBurst int

	TrustedProxy       bool
	CORSAllowedOrigins []string

	GDrive GDrive

	// MetricsAddr exposes metrics from the worker binary, which has no API
	// listener. Empty disables it. The api serves /metrics on its router.
	MetricsAddr string
}

// Load reads .env.local and .env (when present), then the environment, and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StoreBackend:    getEnv("STORE_BACKEND", "memory"),
		QueueBackend:    getEnv("QUEUE_BACKEND", "memory"),
		QuotaBackend:    getEnv("QUOTA_BACKEND", "memory"),
		StorageProvider: getEnv("STORAGE_PROVIDER", "local"),

		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./data/artifacts"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisQueueKey:    getEnv("REDIS_QUEUE_KEY", "seiza:jobs"),

		RendererMode:  getEnv("RENDERER_MODE", "ffmpeg"),
		FFmpegBin:     getEnv("FFMPEG_BIN", "ffmpeg"),
		TemplateVideo: getEnv("TEMPLATE_VIDEO", "./assets/template.mp4"),
		FontFile:      os.Getenv("FONT_FILE"),
		RendererURL:   os.Getenv("RENDERER_URL"),

		GDrive: GDrive{
			ClientID:     os.Getenv("GDRIVE_CLIENT_ID"),
			ClientSecret: os.Getenv("GDRIVE_CLIENT_SECRET"),
			RefreshToken: os.Getenv("GDRIVE_REFRESH_TOKEN"),
			FolderID:     os.Getenv("GDRIVE_FOLDER_ID"),
		},

		MetricsAddr: os.Getenv("METRICS_ADDR"),
	}

	var err error
	if cfg.WorkerCount, err = getInt("WORKER_COUNT", 4); err != nil {
		return nil, err
	}
	if cfg.QueueCapacity, err = getInt("QUEUE_CAPACITY", 64); err != nil {
		return nil, err
	}
	if cfg.RenderTimeout, err = getDuration("RENDER_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RetentionMaxAge, err = getDuration("RETENTION_MAX_AGE", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.QuotaPreview, err = getQuota("QUOTA_PREVIEW", Quota{10, time.Minute}); err != nil {
		return nil, err
	}
	if cfg.QuotaGenerate, err = getQuota("QUOTA_GENERATE", Quota{3, time.Hour}); err != nil {
		return nil, err
	}
	if cfg.QuotaCleanup, err = getQuota("QUOTA_CLEANUP", Quota{20, time.Minute}); err != nil {
		return nil, err
	}
	if cfg.GlobalHourly, err = getInt("GLOBAL_HOURLY_LIMIT", 1000); err != nil {
		return nil, err
	}
	if cfg.GlobalDaily, err = getInt("GLOBAL_DAILY_LIMIT", 2000); err != nil {
		return nil, err
	}
	if cfg.ThrottleRPS, err = getFloat("THROTTLE_RPS", 25); err != nil {
		return nil, err
	}
	if cfg.ThrottleBurst, err = getInt("THROTTLE_BURST", 50); err != nil {
		return nil, err
	}
	if cfg.TrustedProxy, err = getBool("TRUSTED_PROXY", false); err != nil {
		return nil, err
	}
	cfg.CORSAllowedOrigins = getCSV("CORS_ALLOWED_ORIGINS",
		[]string{"http://localhost:3000", "http://localhost:5173"})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field topology coherence.
func (c *Config) Validate() error {
	if err := oneOf("STORE_BACKEND", c.StoreBackend, "memory", "postgres"); err != nil {
		return err
	}
	if err := oneOf("QUEUE_BACKEND", c.QueueBackend, "memory", "redis"); err != nil {
		return err
	}
	if err := oneOf("QUOTA_BACKEND", c.QuotaBackend, "memory", "redis"); err != nil {
		return err
	}
	if err := oneOf("STORAGE_PROVIDER", c.StorageProvider, "local", "gdrive"); err != nil {
		return err
	}
	if err := oneOf("RENDERER_MODE", c.RendererMode, "ffmpeg", "http"); err != nil {
		return err
	}

	// A cross-process queue needs a store every process can see.
	if c.QueueBackend == "redis" && c.StoreBackend != "postgres" {
		return fmt.Errorf("config: QUEUE_BACKEND=redis requires STORE_BACKEND=postgres")
	}
	if c.StoreBackend == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("config: STORE_BACKEND=postgres requires DATABASE_URL")
	}
	if (c.QueueBackend == "redis" || c.QuotaBackend == "redis") && c.RedisAddr == "" {
		return fmt.Errorf("config: redis backends require REDIS_ADDR")
	}
	if c.StorageProvider == "gdrive" {
		if c.GDrive.ClientID == "" || c.GDrive.ClientSecret == "" || c.GDrive.RefreshToken == "" || c.GDrive.FolderID == "" {
			return fmt.Errorf("config: STORAGE_PROVIDER=gdrive requires GDRIVE_CLIENT_ID, GDRIVE_CLIENT_SECRET, GDRIVE_REFRESH_TOKEN and GDRIVE_FOLDER_ID")
		}
	}
	if c.RendererMode == "http" && c.RendererURL == "" {
		return fmt.Errorf("config: RENDERER_MODE=http requires RENDERER_URL")
	}

	if c.WorkerCount < 1 {
		return fmt.Errorf("config: WORKER_COUNT must be at least 1, got %d", c.WorkerCount)
	}
	if c.QueueCapacity < 1 {
		return fmt.Errorf("config: QUEUE_CAPACITY must be at least 1, got %d", c.QueueCapacity)
	}
	if c.RenderTimeout <= 0 {
		return fmt.Errorf("config: RENDER_TIMEOUT must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("config: SWEEP_INTERVAL must be positive")
	}
	if c.RetentionMaxAge <= 0 {
		return fmt.Errorf("config: RETENTION_MAX_AGE must be positive")
	}
	for _, q := range []struct {
		name  string
		quota Quota
	}{
		{"QUOTA_PREVIEW", c.QuotaPreview},
		{"QUOTA_GENERATE", c.QuotaGenerate},
		{"QUOTA_CLEANUP", c.QuotaCleanup},
	} {
		if q.quota.Limit < 1 || q.quota.Window <= 0 {
			return fmt.Errorf("config: %s must have a positive limit and window", q.name)
		}
	}
	if c.GlobalHourly < 1 || c.GlobalDaily < 1 {
		return fmt.Errorf("config: global limits must be at least 1")
	}
	if c.ThrottleRPS <= 0 || c.ThrottleBurst < 1 {
		return fmt.Errorf("config: throttle rate and burst must be positive")
	}
	return nil
}

// Embedded reports whether everything runs in the api process.
func (c *Config) Embedded() bool {
	return c.QueueBackend == "memory"
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("config: %s must be one of %s, got %q", key, strings.Join(allowed, "|"), value)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

// getQuota parses "limit/window", e.g. "10/1m" or "3/1h".
func getQuota(key string, def Quota) (Quota, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	limitStr, windowStr, ok := strings.Cut(v, "/")
	if !ok {
		return Quota{}, fmt.Errorf("config: %s must be limit/window, got %q", key, v)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(limitStr))
	if err != nil {
		return Quota{}, fmt.Errorf("config: %s limit: %w", key, err)
	}
	window, err := time.ParseDuration(strings.TrimSpace(windowStr))
	if err != nil {
		return Quota{}, fmt.Errorf("config: %s window: %w", key, err)
	}
	return Quota{Limit: limit, Window: window}, nil
}

func getCSV(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
