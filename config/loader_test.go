package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Processors.Text.Enabled)
	assert.Equal(t, "late", cfg.Fusion.DefaultMode)
	assert.Equal(t, "round_robin", cfg.Routing.LoadBalancing)
	assert.Equal(t, 30*time.Second, cfg.Routing.CheckInterval)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modalflow.yaml")
	raw := `
fusion:
  default_mode: hybrid
  learning_enabled: true
  weight_decay: 0.05
routing:
  load_balancing: least_loaded
  check_interval: 10s
cache:
  enabled: true
  addr: redis:6379
  ttl: 1m
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "hybrid", cfg.Fusion.DefaultMode)
	assert.True(t, cfg.Fusion.LearningEnabled)
	assert.InDelta(t, 0.05, cfg.Fusion.WeightDecay, 1e-9)
	assert.Equal(t, "least_loaded", cfg.Routing.LoadBalancing)
	assert.Equal(t, 10*time.Second, cfg.Routing.CheckInterval)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Addr)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched sections keep their defaults.
	assert.True(t, cfg.Processors.Video.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().WithConfigPath("/does/not/exist.yaml").Load()
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MODALFLOW_ROUTING_CHECK_INTERVAL", "5s")
	t.Setenv("MODALFLOW_ROUTING_LOAD_BALANCING", "random")
	t.Setenv("MODALFLOW_CACHE_ENABLED", "true")
	t.Setenv("MODALFLOW_CACHE_DB", "3")
	t.Setenv("MODALFLOW_FUSION_WEIGHT_DECAY", "0.2")
	t.Setenv("MODALFLOW_PROCESSORS_TEXT_MODEL_PATH", "/opt/models/llm")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Routing.CheckInterval)
	assert.Equal(t, "random", cfg.Routing.LoadBalancing)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 3, cfg.Cache.DB)
	assert.InDelta(t, 0.2, cfg.Fusion.WeightDecay, 1e-9)
	assert.Equal(t, "/opt/models/llm", cfg.Processors.Text.ModelPath)
}

func TestEnvInvalidValue(t *testing.T) {
	t.Setenv("MODALFLOW_ROUTING_CHECK_INTERVAL", "not-a-duration")

	_, err := NewLoader().Load()
	assert.ErrorContains(t, err, "MODALFLOW_ROUTING_CHECK_INTERVAL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Routing.LoadBalancing = "fastest" },
			wantErr: "load balancing",
		},
		{
			name: "health check without interval",
			mutate: func(c *Config) {
				c.Routing.HealthCheck = true
				c.Routing.CheckInterval = 0
			},
			wantErr: "check_interval",
		},
		{
			name:    "unknown fusion mode",
			mutate:  func(c *Config) { c.Fusion.DefaultMode = "median" },
			wantErr: "fusion mode",
		},
		{
			name: "cache without addr",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Addr = ""
			},
			wantErr: "addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
