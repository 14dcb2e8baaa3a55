package milvus

import "time"

// ConsistencyLevel selects the read consistency Milvus applies to search
// and query calls. Stronger levels trade latency for freshness.
type ConsistencyLevel string

const (
	ConsistencyStrong     ConsistencyLevel = "strong"
	ConsistencyBounded    ConsistencyLevel = "bounded"
	ConsistencySession    ConsistencyLevel = "session"
	ConsistencyEventually ConsistencyLevel = "eventually"
)

// Config holds connection and behaviour settings for the Milvus adapter.
type Config struct {
	// Address of the Milvus proxy, e.g. "localhost:19530".
	Address string `yaml:"address" env:"MILVUS_ADDRESS"`

	// Optional credentials for secured deployments.
	Username string `yaml:"username" env:"MILVUS_USERNAME"`
	Password string `yaml:"password" env:"MILVUS_PASSWORD"`

	// Database name; empty uses the server default.
	Database string `yaml:"database" env:"MILVUS_DATABASE"`

	// Consistency applied to search/query calls. Defaults to session.
	Consistency ConsistencyLevel `yaml:"consistency" env:"MILVUS_CONSISTENCY"`

	// BatchSize is the chunk size for batch inserts.
	BatchSize int `yaml:"batch_size" env:"MILVUS_BATCH_SIZE"`

	// BatchParallelism bounds concurrent chunk dispatch.
	BatchParallelism int `yaml:"batch_parallelism" env:"MILVUS_BATCH_PARALLELISM"`

	// Timeout is the per-call deadline applied when the caller's context
	// carries none.
	Timeout time.Duration `yaml:"timeout" env:"MILVUS_TIMEOUT"`
}

// Milvus rejects fetches beyond this window; it doubles as the default
// limit when a query sets none.
const maxFetchSize = 16384

// DefaultConfig provides sensible defaults for a local deployment.
func DefaultConfig() *Config {
	return &Config{
		Address:          "localhost:19530",
		Consistency:      ConsistencySession,
		BatchSize:        500,
		BatchParallelism: 4,
		Timeout:          30 * time.Second,
	}
}

// FromAddress returns a default config pre-filled with an address.
func FromAddress(addr string) *Config {
	cfg := DefaultConfig()
	cfg.Address = addr
	return cfg
}

func (c *Config) WithCredentials(user, pass string) *Config {
	c.Username = user
	c.Password = pass
	return c
}

func (c *Config) WithConsistency(level ConsistencyLevel) *Config {
	c.Consistency = level
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
