package config

import "time"

// DefaultConfig returns the engine defaults. The loader starts from these
// values before applying the YAML file and environment overrides.
func DefaultConfig() *Config {
	return &Config{
		Processors: ProcessorsConfig{
			Text:  defaultProcessor("/models/text", 4, 30*time.Second),
			Image: defaultProcessor("/models/image", 2, 60*time.Second),
			Audio: defaultProcessor("/models/audio", 1, 45*time.Second),
			Video: defaultProcessor("/models/video", 1, 120*time.Second),
		},
		Fusion: FusionConfig{
			DefaultMode:     "late",
			LearningEnabled: false,
			WeightDecay:     0.01,
			UpdateInterval:  time.Hour,
		},
		Routing: RoutingConfig{
			LoadBalancing:  "round_robin",
			HealthCheck:    true,
			CheckInterval:  30 * time.Second,
			Timeout:        10 * time.Second,
			ProbeRateLimit: 0,
		},
		Cache: CacheConfig{
			Enabled:      false,
			Addr:         "localhost:6379",
			TTL:          5 * time.Minute,
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "modalflow",
		},
	}
}

func defaultProcessor(modelPath string, batchSize int, timeout time.Duration) ProcessorConfig {
	return ProcessorConfig{
		Enabled:    true,
		ModelPath:  modelPath,
		BatchSize:  batchSize,
		Timeout:    timeout,
		MaxWorkers: 1,
	}
}
