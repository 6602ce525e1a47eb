// Package config defines the service configuration and its loading contract.
package config

import "time"

// Config represents the top-level configuration for the load list service.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Sync      SyncConfig      `yaml:"sync"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DatabaseConfig holds the connection settings for the remote store.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	MinConns int32  `yaml:"min_conns,omitempty"`
	MaxConns int32  `yaml:"max_conns,omitempty"`
}

// SyncConfig tunes the synchronization engine.
type SyncConfig struct {
	// DrainInterval is how often the outbox is drained and stock merged.
	DrainInterval time.Duration `yaml:"drain_interval,omitempty"`

	// PullInterval is how often tracked orders are pulled and rebuilt.
	PullInterval time.Duration `yaml:"pull_interval,omitempty"`

	// PushRateLimit caps remote pushes per second. Zero means the default.
	PushRateLimit float64 `yaml:"push_rate_limit,omitempty"`
	PushBurst     int     `yaml:"push_burst,omitempty"`

	// Retry bounds the outbox backoff behavior.
	Retry RetryConfig `yaml:"retry,omitempty"`

	// TrackedOrders lists order ids the periodic pull keeps fresh.
	TrackedOrders []string `yaml:"tracked_orders,omitempty"`
}

// RetryConfig defines outbox retry behavior for failed pushes.
type RetryConfig struct {
	// MaxAttempts is how many times to retry before dead-lettering.
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// InitialWait is the initial backoff duration (e.g., 2s).
	InitialWait time.Duration `yaml:"initial_wait,omitempty"`

	// MaxWait is the upper bound for the backoff (e.g., 5m).
	MaxWait time.Duration `yaml:"max_wait,omitempty"`
}

// TelemetryConfig configures the OTLP exporters.
type TelemetryConfig struct {
	ExporterEndpoint string  `yaml:"exporter_endpoint,omitempty"`
	Probability      float64 `yaml:"probability,omitempty"`
	Insecure         bool    `yaml:"insecure,omitempty"`
}

// Defaults applied when the file omits a value.
const (
	DefaultDrainInterval = 5 * time.Second
	DefaultPullInterval  = time.Minute
	DefaultPushRate      = 10.0
	DefaultPushBurst     = 20
	DefaultMaxAttempts   = 8
	DefaultInitialWait   = 2 * time.Second
	DefaultMaxWait       = 5 * time.Minute
)

// ApplyDefaults fills unset fields with the default tuning.
func (c *Config) ApplyDefaults() {
	if c.Sync.DrainInterval <= 0 {
		c.Sync.DrainInterval = DefaultDrainInterval
	}
	if c.Sync.PullInterval <= 0 {
		c.Sync.PullInterval = DefaultPullInterval
	}
	if c.Sync.PushRateLimit <= 0 {
		c.Sync.PushRateLimit = DefaultPushRate
	}
	if c.Sync.PushBurst <= 0 {
		c.Sync.PushBurst = DefaultPushBurst
	}
	if c.Sync.Retry.MaxAttempts <= 0 {
		c.Sync.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Sync.Retry.InitialWait <= 0 {
		c.Sync.Retry.InitialWait = DefaultInitialWait
	}
	if c.Sync.Retry.MaxWait <= 0 {
		c.Sync.Retry.MaxWait = DefaultMaxWait
	}
}
