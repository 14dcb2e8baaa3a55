package qdrant

import "time"

// Config holds connection and behaviour settings for the Qdrant adapter.
type Config struct {
	// Hostname of the Qdrant server, e.g. "localhost".
	Endpoint string `yaml:"endpoint" env:"QDRANT_ENDPOINT"`

	// gRPC port of the Qdrant server. Defaults to 6334.
	Port int `yaml:"port" env:"QDRANT_PORT"`

	// Optional authentication token for secured deployments.
	ApiKey string `yaml:"api_key" env:"QDRANT_API_KEY"`

	// Whether to verify client/server version compatibility on connect.
	CheckCompatibility bool `yaml:"check_compatibility" env:"QDRANT_CHECK_COMPATIBILITY"`

	// BatchSize is the chunk size for batch inserts.
	BatchSize int `yaml:"batch_size" env:"QDRANT_BATCH_SIZE"`

	// BatchParallelism bounds concurrent chunk dispatch.
	BatchParallelism int `yaml:"batch_parallelism" env:"QDRANT_BATCH_PARALLELISM"`

	// Timeout is the per-call deadline applied when the caller's context
	// carries none.
	Timeout time.Duration `yaml:"timeout" env:"QDRANT_TIMEOUT"`
}

// Qdrant serves at most this many results per request; it doubles as the
// default limit when a query sets none.
const maxFetchSize = 1000

// DefaultConfig provides sensible defaults for a local deployment.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:         "localhost",
		Port:             6334,
		BatchSize:        200,
		BatchParallelism: 4,
		Timeout:          10 * time.Second,
	}
}

// FromEndpoint returns a default config pre-filled with an endpoint.
func FromEndpoint(endpoint string) *Config {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	return cfg
}

func (c *Config) WithPort(port int) *Config {
	c.Port = port
	return c
}

func (c *Config) WithApiKey(key string) *Config {
	c.ApiKey = key
	return c
}

func (c *Config) WithBatchSize(n int) *Config {
	c.BatchSize = n
	return c
}

func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}
