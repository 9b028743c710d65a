package config

import "time"

// Config is the complete engine configuration.
type Config struct {
	// Processors holds per-modality processor settings.
	Processors ProcessorsConfig `yaml:"processors" env:"PROCESSORS"`

	// Fusion controls the fusion engine.
	Fusion FusionConfig `yaml:"fusion" env:"FUSION"`

	// Routing controls the endpoint registry, health checker and balancer.
	Routing RoutingConfig `yaml:"routing" env:"ROUTING"`

	// Cache controls the optional response cache.
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Log controls logging output.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry controls the OpenTelemetry SDK.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ProcessorsConfig groups the per-modality processor settings.
type ProcessorsConfig struct {
	Text  ProcessorConfig `yaml:"text" env:"TEXT"`
	Image ProcessorConfig `yaml:"image" env:"IMAGE"`
	Audio ProcessorConfig `yaml:"audio" env:"AUDIO"`
	Video ProcessorConfig `yaml:"video" env:"VIDEO"`
}

// ProcessorConfig configures a single modality processor.
type ProcessorConfig struct {
	// Enabled controls whether the modality is served at all.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// ModelPath points at the model location for the wrapped backend.
	ModelPath string `yaml:"model_path" env:"MODEL_PATH"`
	// BatchSize is the backend batch size.
	BatchSize int `yaml:"batch_size" env:"BATCH_SIZE"`
	// Timeout bounds a single backend call.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// MaxWorkers bounds backend concurrency.
	MaxWorkers int `yaml:"max_workers" env:"MAX_WORKERS"`
}

// FusionConfig configures the fusion engine.
type FusionConfig struct {
	// DefaultMode is applied when a request leaves the fusion mode empty.
	DefaultMode string `yaml:"default_mode" env:"DEFAULT_MODE"`
	// LearningEnabled turns on the fusion weight learner.
	LearningEnabled bool `yaml:"learning_enabled" env:"LEARNING_ENABLED"`
	// WeightDecay is the learner's decay factor per update.
	WeightDecay float64 `yaml:"weight_decay" env:"WEIGHT_DECAY"`
	// UpdateInterval is the learner's update cadence.
	UpdateInterval time.Duration `yaml:"update_interval" env:"UPDATE_INTERVAL"`
}

// RoutingConfig configures endpoint routing.
type RoutingConfig struct {
	// LoadBalancing names the selection strategy: round_robin, least_loaded
	// or random.
	LoadBalancing string `yaml:"load_balancing" env:"LOAD_BALANCING"`
	// HealthCheck enables the periodic health sweep.
	HealthCheck bool `yaml:"health_check" env:"HEALTH_CHECK"`
	// CheckInterval is the health sweep cadence.
	CheckInterval time.Duration `yaml:"check_interval" env:"CHECK_INTERVAL"`
	// Timeout bounds a single endpoint probe.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// ProbeRateLimit caps probes per second across the fleet; 0 disables
	// pacing.
	ProbeRateLimit float64 `yaml:"probe_rate_limit" env:"PROBE_RATE_LIMIT"`
}

// CacheConfig configures the optional redis-backed response cache.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	Addr         string        `yaml:"addr" env:"ADDR"`
	Password     string        `yaml:"password" env:"PASSWORD"`
	DB           int           `yaml:"db" env:"DB"`
	TTL          time.Duration `yaml:"ttl" env:"TTL"`
	PoolSize     int           `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
}

// TelemetryConfig configures the OpenTelemetry SDK.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled" env:"ENABLED"`
	ServiceName  string `yaml:"service_name" env:"SERVICE_NAME"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	Insecure     bool   `yaml:"insecure" env:"INSECURE"`
}
