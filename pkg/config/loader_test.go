package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Gates.HumanityThreshold, cfg.Gates.HumanityThreshold)
	assert.Contains(t, cfg.LLMProviders, "local:default")
}

func TestLoadMergesUserFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gates:
  humanity_threshold: 0.75
system:
  data_dir: ./custom-data
  credential_file: ./custom-data/creds.json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.Gates.HumanityThreshold)
	assert.Equal(t, "./custom-data", cfg.System.DataDir)
	// Untouched defaults remain.
	assert.Equal(t, Defaults().Gates.OversightThreshold, cfg.Gates.OversightThreshold)
	assert.Equal(t, Defaults().Queue.WorkerCount, cfg.Queue.WorkerCount)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("PARTNER_DATA_DIR", "/tmp/partner-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "partner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
system:
  data_dir: ${PARTNER_DATA_DIR}
  credential_file: ${PARTNER_DATA_DIR}/creds.json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/partner-env", cfg.System.DataDir)
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gates:
  humanity_threshold: 1.5
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "humanity_threshold")
}

func TestModelRegistryGetAndAll(t *testing.T) {
	reg := NewModelRegistry(Defaults().LLMProviders)
	d, err := reg.Get("local:default")
	require.NoError(t, err)
	assert.True(t, d.LocalExecution)
	assert.Len(t, reg.All(), 1)

	_, err = reg.Get("missing:provider")
	assert.ErrorIs(t, err, ErrModelProviderNotFound)
}
