// Package config loads the core's runtime tuning parameters: thread pool
// size, default grid resolution, and correlation defaults. The schema
// mirrors the host CLI's startup JSON so the same file doubles as a
// settings snapshot.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultConfigPath is the canonical defaults file for a fresh context.
const DefaultConfigPath = "config/core.defaults.json"

// CoreConfig is the root configuration for one VLBI core instance.
// Fields are pointers so a partial JSON document leaves the rest at
// their documented defaults; use the Get* accessors rather than reading
// fields directly.
type CoreConfig struct {
	// Scheduler params
	MaxThreads    *int    `json:"max_threads,omitempty"`
	WorkerTimeout *string `json:"worker_timeout,omitempty"` // duration string like "30s"

	// Default grid params
	DefaultGridU *int `json:"default_grid_u,omitempty"`
	DefaultGridV *int `json:"default_grid_v,omitempty"`

	// Observation defaults
	DefaultFreqHz       *float64 `json:"default_freq_hz,omitempty"`
	DefaultSampleRateHz *float64 `json:"default_sample_rate_hz,omitempty"`
	NoDelayDefault      *bool    `json:"nodelay_default,omitempty"`

	// Projection
	ReferenceModeRelative *bool `json:"reference_mode_relative,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyCoreConfig returns a CoreConfig with all fields nil.
func EmptyCoreConfig() *CoreConfig {
	return &CoreConfig{}
}

// LoadCoreConfig loads a CoreConfig from a JSON file. Fields omitted
// from the file retain their documented defaults via the Get* methods.
func LoadCoreConfig(path string) (*CoreConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCoreConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects out-of-range or unparseable values set in the JSON.
func (c *CoreConfig) Validate() error {
	if c.MaxThreads != nil && *c.MaxThreads < 1 {
		return fmt.Errorf("max_threads must be at least 1, got %d", *c.MaxThreads)
	}
	if c.WorkerTimeout != nil && *c.WorkerTimeout != "" {
		if _, err := time.ParseDuration(*c.WorkerTimeout); err != nil {
			return fmt.Errorf("invalid worker_timeout %q: %w", *c.WorkerTimeout, err)
		}
	}
	if c.DefaultGridU != nil && *c.DefaultGridU < 1 {
		return fmt.Errorf("default_grid_u must be at least 1, got %d", *c.DefaultGridU)
	}
	if c.DefaultGridV != nil && *c.DefaultGridV < 1 {
		return fmt.Errorf("default_grid_v must be at least 1, got %d", *c.DefaultGridV)
	}
	if c.DefaultFreqHz != nil && *c.DefaultFreqHz <= 0 {
		return fmt.Errorf("default_freq_hz must be positive, got %f", *c.DefaultFreqHz)
	}
	if c.DefaultSampleRateHz != nil && *c.DefaultSampleRateHz <= 0 {
		return fmt.Errorf("default_sample_rate_hz must be positive, got %f", *c.DefaultSampleRateHz)
	}
	return nil
}

// GetMaxThreads returns the configured worker cap, or the hardware
// concurrency (runtime.GOMAXPROCS(0)) if unset.
func (c *CoreConfig) GetMaxThreads() int {
	if c.MaxThreads == nil {
		return runtime.GOMAXPROCS(0)
	}
	return *c.MaxThreads
}

// GetWorkerTimeout parses and returns WorkerTimeout, or 30s if unset.
func (c *CoreConfig) GetWorkerTimeout() time.Duration {
	if c.WorkerTimeout == nil || *c.WorkerTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(*c.WorkerTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetDefaultGridU returns the configured default grid width, or 256.
func (c *CoreConfig) GetDefaultGridU() int {
	if c.DefaultGridU == nil {
		return 256
	}
	return *c.DefaultGridU
}

// GetDefaultGridV returns the configured default grid height, or 256.
func (c *CoreConfig) GetDefaultGridV() int {
	if c.DefaultGridV == nil {
		return 256
	}
	return *c.DefaultGridV
}

// GetDefaultFreqHz returns the configured default observing frequency,
// or 1.4205 GHz (the hydrogen line) if unset.
func (c *CoreConfig) GetDefaultFreqHz() float64 {
	if c.DefaultFreqHz == nil {
		return 1.4205e9
	}
	return *c.DefaultFreqHz
}

// GetDefaultSampleRateHz returns the configured default correlator
// sample rate, or 1 Hz if unset.
func (c *CoreConfig) GetDefaultSampleRateHz() float64 {
	if c.DefaultSampleRateHz == nil {
		return 1.0
	}
	return *c.DefaultSampleRateHz
}

// GetNoDelayDefault returns the configured default for the nodelay flag,
// or false (delay-compensated correlation) if unset.
func (c *CoreConfig) GetNoDelayDefault() bool {
	if c.NoDelayDefault == nil {
		return false
	}
	return *c.NoDelayDefault
}

// GetReferenceModeRelative returns whether baselines should default to
// relative (midpoint) projection mode before any SetLocation call, or
// true if unset.
func (c *CoreConfig) GetReferenceModeRelative() bool {
	if c.ReferenceModeRelative == nil {
		return true
	}
	return *c.ReferenceModeRelative
}
