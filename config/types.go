package config

import (
	"fmt"

	"github.com/openfinality/chainquery/db"
)

// GenesisConfig holds the configuration from genesis.yml. It pins the
// chain identity and the parameters needed to synthesize the genesis
// dispersal locally.
type GenesisConfig struct {
	ChainID           string `yaml:"chain_id"`
	Timestamp         uint64 `yaml:"timestamp"`
	PayloadCommitment string `yaml:"payload_commitment"`
	DispersalWidth    int    `yaml:"dispersal_width"`
}

// Validate checks the genesis configuration and applies defaults.
func (g *GenesisConfig) Validate() error {
	if g.ChainID == "" {
		return fmt.Errorf("chain_id cannot be empty")
	}
	if len(g.PayloadCommitment) != 64 {
		return fmt.Errorf("payload_commitment must be 64 hex characters, got %d", len(g.PayloadCommitment))
	}
	if g.DispersalWidth == 0 {
		g.DispersalWidth = DefaultGenesisWidth
	}
	if g.DispersalWidth < 1 {
		return fmt.Errorf("dispersal_width must be positive, got %d", g.DispersalWidth)
	}
	return nil
}

// ConfigFile is the top-level structure for genesis.yml
type ConfigFile struct {
	Genesis GenesisConfig `yaml:"genesis"`
}

// LogConfig is the [log] section of the node config.
type LogConfig struct {
	File       string `ini:"file"`
	MaxSizeMB  int    `ini:"max_size_mb"`
	MaxAgeDays int    `ini:"max_age_days"`
}

// IngestConfig is the [ingest] section of the node config.
type IngestConfig struct {
	EventBuffer      int    `ini:"event_buffer"`
	DispersalBackend string `ini:"dispersal_backend"`
	TrustedSetup     string `ini:"trusted_setup"`
}

// GenesisRef is the [genesis] section of the node config: where the
// genesis file lives and the minisign key that must have signed it.
type GenesisRef struct {
	Path      string `ini:"path"`
	SigPath   string `ini:"sig_path"`
	PublicKey string `ini:"public_key"`
}

// NodeConfig aggregates the node.ini sections.
type NodeConfig struct {
	Storage db.Config
	Log     LogConfig
	Ingest  IngestConfig
	Genesis GenesisRef
}
