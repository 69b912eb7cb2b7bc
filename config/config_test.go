package config

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfinality/chainquery/db"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func testCommitmentHex() string {
	sum := sha256.Sum256([]byte("genesis"))
	return hex.EncodeToString(sum[:])
}

func TestLoadGenesisConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "genesis.yml", `
genesis:
  chain_id: chainquery-test
  timestamp: 1700000000
  payload_commitment: `+testCommitmentHex()+`
  dispersal_width: 4
`)

	cfg, err := LoadGenesisConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "chainquery-test", cfg.ChainID)
	assert.Equal(t, uint64(1700000000), cfg.Timestamp)
	assert.Equal(t, testCommitmentHex(), cfg.PayloadCommitment)
	assert.Equal(t, 4, cfg.DispersalWidth)
}

func TestLoadGenesisConfigDefaultWidth(t *testing.T) {
	path := writeFile(t, t.TempDir(), "genesis.yml", `
genesis:
  chain_id: chainquery-test
  timestamp: 1700000000
  payload_commitment: `+testCommitmentHex()+`
`)

	cfg, err := LoadGenesisConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultGenesisWidth, cfg.DispersalWidth)
}

func TestLoadGenesisConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"missing chain id": `
genesis:
  timestamp: 1700000000
  payload_commitment: ` + testCommitmentHex() + `
`,
		"short commitment": `
genesis:
  chain_id: chainquery-test
  payload_commitment: abcdef
`,
		"negative width": `
genesis:
  chain_id: chainquery-test
  payload_commitment: ` + testCommitmentHex() + `
  dispersal_width: -2
`,
	}

	for name, content := range cases {
		path := writeFile(t, dir, strings.ReplaceAll(name, " ", "_")+".yml", content)
		_, err := LoadGenesisConfig(path)
		assert.Error(t, err, name)
	}

	_, err := LoadGenesisConfig(filepath.Join(dir, "does-not-exist.yml"))
	assert.Error(t, err)
}

func TestGenesisHeader(t *testing.T) {
	cfg := &GenesisConfig{
		ChainID:           "chainquery-test",
		Timestamp:         1700000000,
		PayloadCommitment: testCommitmentHex(),
		DispersalWidth:    8,
	}

	header, err := GenesisHeader(cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), header.Height)
	assert.Equal(t, uint64(1700000000), header.Timestamp)
	assert.Equal(t, [32]byte{}, header.ParentHash)
	assert.Equal(t, testCommitmentHex(), hex.EncodeToString(header.PayloadCommitment[:]))
	require.NotNil(t, header.FeeTotal)
	assert.True(t, header.FeeTotal.IsZero())

	cfg.PayloadCommitment = strings.Repeat("zz", 32)
	_, err = GenesisHeader(cfg)
	assert.Error(t, err)
}

func TestLoadNodeConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "node.ini", `
[storage]
backend = leveldb
directory = `+filepath.Join(dir, "data")+`

[log]
file = `+filepath.Join(dir, "node.log")+`
max_size_mb = 10
max_age_days = 3

[ingest]
event_buffer = 100
dispersal_backend = kzg
trusted_setup = `+filepath.Join(dir, "setup.txt")+`

[genesis]
path = genesis.yml
sig_path = genesis.yml.minisig
public_key = RWTest
`)

	cfg, err := LoadNodeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, db.LevelDBBackend, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.Directory)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, 3, cfg.Log.MaxAgeDays)
	assert.Equal(t, 100, cfg.Ingest.EventBuffer)
	assert.Equal(t, "kzg", cfg.Ingest.DispersalBackend)
	assert.Equal(t, "genesis.yml", cfg.Genesis.Path)
	assert.Equal(t, "RWTest", cfg.Genesis.PublicKey)
}

func TestLoadNodeConfigRejectsInvalidStorage(t *testing.T) {
	path := writeFile(t, t.TempDir(), "node.ini", `
[storage]
backend = bolt
`)

	_, err := LoadNodeConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid storage config")
}

func TestVerifyGenesisFileErrors(t *testing.T) {
	dir := t.TempDir()
	genesisPath := writeFile(t, dir, "genesis.yml", "genesis:\n  chain_id: x\n")

	// a structurally valid minisign key: "Ed" + 8-byte key id + 32-byte key
	validKey := base64.StdEncoding.EncodeToString(append([]byte("Ed"), make([]byte, 40)...))

	err := VerifyGenesisFile(genesisPath, filepath.Join(dir, "missing.minisig"), "not-a-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid genesis public key")

	err = VerifyGenesisFile(filepath.Join(dir, "missing.yml"), filepath.Join(dir, "missing.minisig"), validKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read genesis file")

	err = VerifyGenesisFile(genesisPath, filepath.Join(dir, "missing.minisig"), validKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read genesis signature")
}
