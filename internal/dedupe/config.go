package dedupe

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds configuration for the duplicate detection engine
type Config struct {
	// Threshold is the minimum combined score (0.0-1.0) to treat a pair as
	// duplicates. Exact-hash matches always qualify regardless of threshold.
	// Higher values = more conservative (fewer false positives)
	// Default: 0.85
	Threshold float64 `yaml:"threshold"`

	// MaxBatchSize is the upper bound on files processed in one call.
	// Pairwise comparison is O(n²); batches over the limit are rejected
	// outright rather than silently truncated.
	// Default: 1000
	MaxBatchSize int `yaml:"max_batch_size"`

	// MaxSampleBytes bounds how much content is read per file for sampling
	// (embedding inputs). Exact hashing always streams the whole file.
	// Default: 1 MiB
	MaxSampleBytes int `yaml:"max_sample_bytes"`

	// EmbedBatchSize is the number of inputs per embedding collaborator call
	// Default: 32 (the model server's processing limit)
	EmbedBatchSize int `yaml:"embed_batch_size"`

	// Parallelism caps concurrent per-file fingerprint workers and pair
	// scoring workers
	// Default: GOMAXPROCS
	Parallelism int `yaml:"parallelism"`

	// EmbedTimeout is the timeout for one embedding collaborator call
	// Default: 30 seconds
	EmbedTimeout time.Duration `yaml:"-"`
}

// DefaultConfig returns the default engine configuration
//
// These defaults are chosen to:
// - Prefer recall over precision at the default threshold (observable product
//   behavior)
// - Keep O(n²) pair scoring tractable (bounded batch size)
// - Degrade gracefully when the embedding collaborator is slow or down
func DefaultConfig() Config {
	return Config{
		Threshold:      0.85,
		MaxBatchSize:   1000,
		MaxSampleBytes: 1 << 20,
		EmbedBatchSize: 32,
		Parallelism:    runtime.GOMAXPROCS(0),
		EmbedTimeout:   30 * time.Second,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.Threshold < 0.0 || c.Threshold > 1.0 {
		return fmt.Errorf("threshold must be between 0.0 and 1.0 (got %.2f)", c.Threshold)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive (got %d)", c.MaxBatchSize)
	}
	if c.MaxBatchSize > 100000 {
		return fmt.Errorf("max_batch_size too large (got %d, max 100000)", c.MaxBatchSize)
	}
	if c.MaxSampleBytes <= 0 {
		return fmt.Errorf("max_sample_bytes must be positive (got %d)", c.MaxSampleBytes)
	}
	if c.EmbedBatchSize <= 0 {
		return fmt.Errorf("embed_batch_size must be positive (got %d)", c.EmbedBatchSize)
	}
	if c.EmbedBatchSize > 256 {
		return fmt.Errorf("embed_batch_size too large (got %d, max 256)", c.EmbedBatchSize)
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive (got %d)", c.Parallelism)
	}
	if c.EmbedTimeout <= 0 {
		return fmt.Errorf("embed_timeout must be positive (got %v)", c.EmbedTimeout)
	}
	if c.EmbedTimeout > 5*time.Minute {
		return fmt.Errorf("embed_timeout too large (got %v, max 5 minutes)", c.EmbedTimeout)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{Threshold: %.2f, MaxBatch: %d, MaxSample: %d, EmbedBatch: %d, "+
			"Parallelism: %d, EmbedTimeout: %v}",
		c.Threshold, c.MaxBatchSize, c.MaxSampleBytes, c.EmbedBatchSize,
		c.Parallelism, c.EmbedTimeout,
	)
}

// ConfigFromEnv creates a Config from environment variables, falling back to defaults
//
// Environment variables:
//   - FILESWEEP_THRESHOLD: Minimum combined score (0.0-1.0) to group a pair (default: 0.85)
//   - FILESWEEP_MAX_BATCH: Maximum files per batch (default: 1000)
//   - FILESWEEP_SAMPLE_BYTES: Content sample bound in bytes (default: 1048576)
//   - FILESWEEP_EMBED_BATCH: Inputs per embedding call (default: 32)
//   - FILESWEEP_PARALLELISM: Concurrent fingerprint/scoring workers (default: GOMAXPROCS)
//   - FILESWEEP_EMBED_TIMEOUT_SECS: Embedding call timeout in seconds (default: 30)
//
// Returns an error if any environment variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvFloat("FILESWEEP_THRESHOLD", &cfg.Threshold); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("FILESWEEP_MAX_BATCH", &cfg.MaxBatchSize); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("FILESWEEP_SAMPLE_BYTES", &cfg.MaxSampleBytes); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("FILESWEEP_EMBED_BATCH", &cfg.EmbedBatchSize); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("FILESWEEP_PARALLELISM", &cfg.Parallelism); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("FILESWEEP_EMBED_TIMEOUT_SECS", &cfg.EmbedTimeout, time.Second); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration from an environment variable
// The multiplier converts the numeric value to a duration
// (e.g., for seconds: multiplier = time.Second)
func parseEnvDuration(key string, dest *time.Duration, multiplier time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * multiplier
	return nil
}
