package db

import (
	"fmt"
	"path/filepath"
)

// Backend represents the type of data source implementation
type Backend string

const (
	// MemoryBackend uses the in-process copy-on-write implementation
	MemoryBackend Backend = "memory"

	// BoltBackend uses the bbolt implementation
	BoltBackend Backend = "bolt"

	// LevelDBBackend uses the LevelDB implementation
	LevelDBBackend Backend = "leveldb"

	// PostgresBackend uses the PostgreSQL implementation
	PostgresBackend Backend = "postgres"
)

// Config holds configuration for creating data sources
type Config struct {
	// Backend specifies which data source implementation to use
	Backend Backend `json:"backend" yaml:"backend" ini:"backend"`

	// Directory is the database directory path (for file-based backends)
	Directory string `json:"directory" yaml:"directory" ini:"directory"`

	// DSN is the connection string (for the postgres backend)
	DSN string `json:"dsn" yaml:"dsn" ini:"dsn"`
}

// Validate validates the data source configuration
func (c *Config) Validate() error {
	switch c.Backend {
	case MemoryBackend:
		return nil
	case BoltBackend, LevelDBBackend:
		if c.Directory == "" {
			return fmt.Errorf("directory cannot be empty for backend %s", c.Backend)
		}
		return nil
	case PostgresBackend:
		if c.DSN == "" {
			return fmt.Errorf("dsn cannot be empty for backend %s", c.Backend)
		}
		return nil
	case "":
		return fmt.Errorf("backend cannot be empty")
	default:
		return fmt.Errorf("unsupported backend: %s", c.Backend)
	}
}

// Open creates a data source based on the configuration
func Open(config *Config) (DataSource, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch config.Backend {
	case MemoryBackend:
		return NewMemorySource(), nil

	case BoltBackend:
		return NewBoltSource(filepath.Join(config.Directory, "chainquery.db"))

	case LevelDBBackend:
		return NewLevelDBSource(config.Directory)

	case PostgresBackend:
		return NewPGSource(config.DSN)

	default:
		return nil, fmt.Errorf("unsupported backend: %s", config.Backend)
	}
}
