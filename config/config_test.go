package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshkeep"
	"freshkeep/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("FRESHKEEP_DB", "")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	def := config.Default()
	assert.Equal(t, def.Database, cfg.Database)
	assert.Equal(t, "development", cfg.Log.Mode)
	assert.Equal(t, "127.0.0.1:7420", cfg.RPC.Addr)
}

func TestLoad_PartialKeysKeepDefaults(t *testing.T) {
	t.Setenv("FRESHKEEP_DB", "")
	path := writeConfig(t, "log:\n  level: warn\nrpc:\n  addr: \":9000\"\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Log.Mode)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, ":9000", cfg.RPC.Addr)
	assert.Equal(t, config.Default().Database, cfg.Database)
}

func TestLoad_EnvOverridesDatabase(t *testing.T) {
	path := writeConfig(t, "database: /tmp/from-file.db\n")
	t.Setenv("FRESHKEEP_DB", "/tmp/from-env.db")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.Database)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "database: [unterminated\n")
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestPath(t *testing.T) {
	t.Setenv("FRESHKEEP_CONFIG", "/etc/freshkeep.yaml")
	assert.Equal(t, "/explicit.yaml", config.Path("/explicit.yaml"))
	assert.Equal(t, "/etc/freshkeep.yaml", config.Path(""))
}

func TestCustomUnits(t *testing.T) {
	path := writeConfig(t, `
units:
  - abbreviation: stick
    name: stick of butter
    factor: 113.4
    family: mass
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	units, err := cfg.CustomUnits()
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, freshkeep.UnitID("stick"), units[0].ID)
	assert.Equal(t, freshkeep.FamilyMass, units[0].Family)
	assert.InDelta(t, 113.4, units[0].Factor, 1e-12)
}

func TestCustomUnits_RejectsBadFactor(t *testing.T) {
	path := writeConfig(t, `
units:
  - abbreviation: pinch
    factor: 0
    family: volume
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	_, err = cfg.CustomUnits()
	assert.True(t, errors.Is(err, freshkeep.ErrInvalidUnit))
}
