package config

import (
	"fmt"
	"os"

	"github.com/jedisct1/go-minisign"
)

// VerifyGenesisFile checks the minisign signature over the genesis file.
// Nodes refuse to bootstrap from an unsigned or tampered genesis.
func VerifyGenesisFile(path, sigPath, publicKey string) error {
	pub, err := minisign.NewPublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("invalid genesis public key: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read genesis file: %w", err)
	}

	sig, err := minisign.NewSignatureFromFile(sigPath)
	if err != nil {
		return fmt.Errorf("failed to read genesis signature: %w", err)
	}

	valid, err := pub.Verify(data, sig)
	if err != nil {
		return fmt.Errorf("failed to verify genesis file: %w", err)
	}
	if !valid {
		return fmt.Errorf("genesis file signature is invalid")
	}
	return nil
}
