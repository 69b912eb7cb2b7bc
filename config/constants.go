package config

const (
	// DefaultGenesisWidth is the share count for the locally synthesized
	// genesis dispersal when genesis.yml does not set one.
	DefaultGenesisWidth = 8

	// DefaultEventBuffer is the consensus event channel depth.
	DefaultEventBuffer = 50
)
