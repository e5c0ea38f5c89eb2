package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var defaultPageSizeOptions = []int{10, 25, 50, 100, 500}

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Gateway     GatewayConfig
	Table       TableConfig
	Sessions    SessionConfig
	Suggestions SuggestionConfig
	Charts      ChartsConfig
	Redis       RedisConfig
	Exports     ExportsConfig
	CORS        CORSConfig
	Log         LogConfig
}

// GatewayConfig points at the remote change-record API.
type GatewayConfig struct {
	BaseURL         string
	Timeout         time.Duration
	ProbeEnabled    bool
	ProbeMaxElapsed time.Duration
}

// TableConfig tunes the result-set controller defaults.
type TableConfig struct {
	DefaultPageSize int
	PageSizeOptions []int
}

// SessionConfig controls per-browser controller lifetime.
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// SuggestionConfig configures debounced search suggestions.
type SuggestionConfig struct {
	Debounce time.Duration
	Limit    int
}

// ChartsConfig governs aggregate caching for chart endpoints.
type ChartsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ExportsConfig configures where downloaded spreadsheets are kept.
type ExportsConfig struct {
	StorageDir string
	Persist    bool
	Retention  time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Gateway = GatewayConfig{
		BaseURL:         strings.TrimRight(v.GetString("GATEWAY_BASE_URL"), "/"),
		Timeout:         parseDuration(v.GetString("GATEWAY_TIMEOUT"), 30*time.Second),
		ProbeEnabled:    v.GetBool("GATEWAY_PROBE_ENABLED"),
		ProbeMaxElapsed: parseDuration(v.GetString("GATEWAY_PROBE_MAX_ELAPSED"), 30*time.Second),
	}

	options := splitInts(v.GetString("PAGE_SIZE_OPTIONS"))
	if len(options) == 0 {
		options = append([]int(nil), defaultPageSizeOptions...)
	}
	pageSize := v.GetInt("DEFAULT_PAGE_SIZE")
	if !containsInt(options, pageSize) {
		pageSize = options[0]
	}
	cfg.Table = TableConfig{
		DefaultPageSize: pageSize,
		PageSizeOptions: options,
	}

	cfg.Sessions = SessionConfig{
		IdleTTL:       parseDuration(v.GetString("SESSION_IDLE_TTL"), 30*time.Minute),
		SweepInterval: parseDuration(v.GetString("SESSION_SWEEP_INTERVAL"), 5*time.Minute),
	}

	limit := v.GetInt("SUGGEST_LIMIT")
	if limit <= 0 {
		limit = 10
	}
	cfg.Suggestions = SuggestionConfig{
		Debounce: parseDuration(v.GetString("SUGGEST_DEBOUNCE"), 300*time.Millisecond),
		Limit:    limit,
	}

	cfg.Charts = ChartsConfig{
		CacheEnabled: v.GetBool("ENABLE_CHART_CACHE"),
		CacheTTL:     parseDuration(v.GetString("CHART_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir: v.GetString("EXPORTS_STORAGE_DIR"),
		Persist:    v.GetBool("EXPORTS_PERSIST"),
		Retention:  parseDuration(v.GetString("EXPORTS_RETENTION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("GATEWAY_BASE_URL", "http://127.0.0.1:8000/api")
	v.SetDefault("GATEWAY_TIMEOUT", "30s")
	v.SetDefault("GATEWAY_PROBE_ENABLED", false)
	v.SetDefault("GATEWAY_PROBE_MAX_ELAPSED", "30s")

	v.SetDefault("DEFAULT_PAGE_SIZE", 100)
	v.SetDefault("PAGE_SIZE_OPTIONS", "10,25,50,100,500")

	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "5m")

	v.SetDefault("SUGGEST_DEBOUNCE", "300ms")
	v.SetDefault("SUGGEST_LIMIT", 10)

	v.SetDefault("ENABLE_CHART_CACHE", false)
	v.SetDefault("CHART_CACHE_TTL", "5m")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_PERSIST", false)
	v.SetDefault("EXPORTS_RETENTION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func splitInts(raw string) []int {
	parts := splitAndTrim(raw)
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 || containsInt(result, n) {
			continue
		}
		result = append(result, n)
	}
	return result
}

func containsInt(values []int, n int) bool {
	for _, v := range values {
		if v == n {
			return true
		}
	}
	return false
}
