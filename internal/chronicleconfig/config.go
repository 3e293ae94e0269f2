// Package chronicleconfig loads Chronicle's single load-once JSON
// configuration blob. There is no reload and no environment-variable
// override: every tunable Chronicle needs comes from this one file,
// read once at process startup.
package chronicleconfig

import (
	"encoding/json"
	"fmt"
	"os"
)

// FlushPolicy mirrors the flush_log tunable: how hard a file-backed sink
// pushes a write toward durable storage.
type FlushPolicy int

const (
	// FlushBuffered applies no flush or sync after a write.
	FlushBuffered FlushPolicy = 0
	// FlushToKernel hands every write to the kernel, without a disk sync.
	FlushToKernel FlushPolicy = 1
	// FlushToDisk flushes to the kernel and fsyncs to disk after every write.
	FlushToDisk FlushPolicy = 2
)

func (p FlushPolicy) valid() bool {
	return p == FlushBuffered || p == FlushToKernel || p == FlushToDisk
}

// Config is the complete set of tunables Chronicle reads at startup.
// Field names match the JSON keys from §6 of the spec exactly.
type Config struct {
	BufferSize    int         `json:"buffer_size"`
	Threshold     int         `json:"threshold"`
	LinearGrowth  int         `json:"linear_growth"`
	FlushLog      FlushPolicy `json:"flush_log"`
	BackupAddr    string      `json:"backup_addr"`
	BackupPort    int         `json:"backup_port"`
	ThreadCount   int         `json:"thread_count"`
}

var requiredKeys = []string{
	"buffer_size", "threshold", "linear_growth",
	"flush_log", "backup_addr", "backup_port", "thread_count",
}

// Load reads and validates the JSON config file at path. Any required
// key missing from the blob, or present with the wrong JSON type, is a
// startup failure — Chronicle never falls back to an implicit default
// for a tunable the operator didn't specify.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chronicleconfig: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates and decodes a JSON config blob already in memory.
func Parse(data []byte) (*Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("chronicleconfig: invalid JSON: %w", err)
	}

	for _, key := range requiredKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("chronicleconfig: missing required key %q", key)
		}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("chronicleconfig: decode: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("chronicleconfig: buffer_size must be positive, got %d", c.BufferSize)
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("chronicleconfig: threshold must be positive, got %d", c.Threshold)
	}
	if c.LinearGrowth <= 0 {
		return fmt.Errorf("chronicleconfig: linear_growth must be positive, got %d", c.LinearGrowth)
	}
	if !c.FlushLog.valid() {
		return fmt.Errorf("chronicleconfig: flush_log must be 0, 1, or 2, got %d", c.FlushLog)
	}
	if c.BackupAddr == "" {
		return fmt.Errorf("chronicleconfig: backup_addr must not be empty")
	}
	if c.BackupPort <= 0 || c.BackupPort > 65535 {
		return fmt.Errorf("chronicleconfig: backup_port out of range: %d", c.BackupPort)
	}
	if c.ThreadCount <= 0 {
		return fmt.Errorf("chronicleconfig: thread_count must be positive, got %d", c.ThreadCount)
	}
	return nil
}

// MustLoad loads path and terminates the process on failure, matching
// the fail-fast startup idiom of Chronicle's command-line entry points.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}
