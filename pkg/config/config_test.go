package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestViper(overrides map[string]interface{}) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg := fromViper(newTestViper(nil))

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.Gateway.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, []int{10, 25, 50, 100, 500}, cfg.Table.PageSizeOptions)
	assert.Equal(t, 100, cfg.Table.DefaultPageSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Suggestions.Debounce)
	assert.Equal(t, 10, cfg.Suggestions.Limit)
	assert.False(t, cfg.Charts.CacheEnabled)
}

func TestFromViperPageSizeFallsBackToFirstOption(t *testing.T) {
	cfg := fromViper(newTestViper(map[string]interface{}{
		"PAGE_SIZE_OPTIONS": "20, 40,abc,40",
		"DEFAULT_PAGE_SIZE": 33,
	}))

	assert.Equal(t, []int{20, 40}, cfg.Table.PageSizeOptions)
	assert.Equal(t, 20, cfg.Table.DefaultPageSize)
}

func TestFromViperTrimsGatewayURLAndParsesDurations(t *testing.T) {
	cfg := fromViper(newTestViper(map[string]interface{}{
		"GATEWAY_BASE_URL": "http://gateway.local/api/",
		"GATEWAY_TIMEOUT":  "bogus",
		"CHART_CACHE_TTL":  "90s",
		"ALLOWED_ORIGINS":  "http://a.test, ,http://b.test",
	}))

	assert.Equal(t, "http://gateway.local/api", cfg.Gateway.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Charts.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
