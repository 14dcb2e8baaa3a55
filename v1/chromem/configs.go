package chromem

// Config holds storage and behaviour settings for the chromem adapter.
type Config struct {
	// Path of the persistence directory. Empty runs fully in-memory.
	Path string `yaml:"path" env:"CHROMEM_PATH"`

	// Compress gzips persisted collection files. Ignored in-memory.
	Compress bool `yaml:"compress" env:"CHROMEM_COMPRESS"`

	// BatchSize is the chunk size for batch inserts.
	BatchSize int `yaml:"batch_size" env:"CHROMEM_BATCH_SIZE"`

	// BatchParallelism bounds concurrent chunk dispatch.
	BatchParallelism int `yaml:"batch_parallelism" env:"CHROMEM_BATCH_PARALLELISM"`
}

// DefaultConfig provides sensible defaults for an in-memory store.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:        100,
		BatchParallelism: 4,
	}
}

// FromPath returns a default config persisting to the given directory.
func FromPath(path string) *Config {
	cfg := DefaultConfig()
	cfg.Path = path
	return cfg
}

func (c *Config) WithCompress(compress bool) *Config {
	c.Compress = compress
	return c
}

func (c *Config) WithBatchSize(n int) *Config {
	c.BatchSize = n
	return c
}
