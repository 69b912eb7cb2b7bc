package config

import (
	"fmt"
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/holiman/uint256"
	"github.com/openfinality/chainquery/block"
	"github.com/openfinality/chainquery/db"
	"github.com/openfinality/chainquery/logx"
	"github.com/openfinality/chainquery/utils"
)

// LoadGenesisConfig reads and parses the genesis.yml file
func LoadGenesisConfig(path string) (*GenesisConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open genesis file: %w", err)
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		return nil, fmt.Errorf("failed to decode genesis file: %w", err)
	}
	if err := cfgFile.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid genesis config: %w", err)
	}

	logx.Info("CONFIG", fmt.Sprintf("Loaded genesis config | chain_id=%s | dispersal_width=%d", cfgFile.Genesis.ChainID, cfgFile.Genesis.DispersalWidth))
	return &cfgFile.Genesis, nil
}

// LoadNodeConfig reads the node .ini file: [storage], [log], [ingest] and
// [genesis] sections.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load node config: %w", err)
	}

	nodeCfg := &NodeConfig{}
	if err := cfg.Section("storage").MapTo(&nodeCfg.Storage); err != nil {
		return nil, fmt.Errorf("failed to map storage section: %w", err)
	}
	if err := cfg.Section("log").MapTo(&nodeCfg.Log); err != nil {
		return nil, fmt.Errorf("failed to map log section: %w", err)
	}
	if err := cfg.Section("ingest").MapTo(&nodeCfg.Ingest); err != nil {
		return nil, fmt.Errorf("failed to map ingest section: %w", err)
	}
	if err := cfg.Section("genesis").MapTo(&nodeCfg.Genesis); err != nil {
		return nil, fmt.Errorf("failed to map genesis section: %w", err)
	}

	if err := nodeCfg.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}
	return nodeCfg, nil
}

// Apply rewires the process logger from the [log] section.
func (l *LogConfig) Apply() {
	logx.Configure(l.File, l.MaxSizeMB, l.MaxAgeDays)
}

// OpenStorage opens the configured data source.
func (n *NodeConfig) OpenStorage() (db.DataSource, error) {
	return db.Open(&n.Storage)
}

// GenesisHeader builds the header of the genesis block from the genesis
// config. View and height are zero and the parent hash is empty.
func GenesisHeader(g *GenesisConfig) (block.Header, error) {
	commitment, err := utils.HexToHash32(g.PayloadCommitment)
	if err != nil {
		return block.Header{}, fmt.Errorf("invalid genesis payload commitment: %w", err)
	}
	return block.Header{
		Height:            0,
		Timestamp:         g.Timestamp,
		ParentHash:        [32]byte{},
		PayloadCommitment: commitment,
		FeeTotal:          uint256.NewInt(0),
	}, nil
}
