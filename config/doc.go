// Package config defines the engine configuration surface and a loader that
// merges defaults, an optional YAML file, and environment variable overrides,
// in that order. Configuration is supplied at construction and is not
// reloadable at runtime.
package config
