package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration with the precedence
// defaults → YAML file → environment variables.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("modalflow.yaml").
//	    WithEnvPrefix("MODALFLOW").
//	    Load()
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a loader with the default env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "MODALFLOW"}
}

// WithConfigPath sets the YAML file path. An empty path skips the file stage.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load produces the merged configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.configPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", l.configPath, err)
		}
	}

	if err := applyEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv walks the config struct and overrides fields whose env tag,
// joined with the accumulated prefix, names a set environment variable.
// MODALFLOW_ROUTING_CHECK_INTERVAL=10s overrides Routing.CheckInterval.
func applyEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("env")
		if tag == "" {
			continue
		}
		key := prefix + "_" + tag

		fv := v.Field(i)
		if fv.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Duration(0)) {
			if err := applyEnv(fv, key); err != nil {
				return err
			}
			continue
		}

		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := setField(fv, raw); err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}
	return nil
}

func setField(fv reflect.Value, raw string) error {
	switch fv.Interface().(type) {
	case time.Duration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}

// Validate checks the configuration for obviously broken values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Routing.LoadBalancing) {
	case "round_robin", "least_loaded", "random", "":
	default:
		return fmt.Errorf("unknown load balancing strategy %q", c.Routing.LoadBalancing)
	}
	switch strings.ToLower(c.Fusion.DefaultMode) {
	case "none", "early", "late", "hybrid", "":
	default:
		return fmt.Errorf("unknown default fusion mode %q", c.Fusion.DefaultMode)
	}
	if c.Routing.HealthCheck && c.Routing.CheckInterval <= 0 {
		return fmt.Errorf("health check enabled but check_interval is %s", c.Routing.CheckInterval)
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache enabled but addr is empty")
	}
	return nil
}
