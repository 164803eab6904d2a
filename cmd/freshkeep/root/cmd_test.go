package rootcmd_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshkeep"
	rootcmd "freshkeep/cmd/freshkeep/root"
)

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
database: `+filepath.Join(dir, "freshkeep.db")+`
log:
  mode: production
  level: error
units:
  - abbreviation: stick
    name: butter stick
    factor: 113.4
    family: mass
`), 0o600))
	return cfg
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	root := rootcmd.New()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConvert(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, cfg, "convert", "1500", "mL", "L")
	require.NoError(t, err)
	assert.Equal(t, "1500 mL = 1.5 L\n", out)

	out, err = run(t, cfg, "convert", "2", "STICK", "g")
	require.NoError(t, err)
	assert.Equal(t, "2 stick = 226.8 g\n", out)

	_, err = run(t, cfg, "convert", "1", "g", "mL")
	assert.ErrorIs(t, err, freshkeep.ErrIncompatibleUnitFamily)

	_, err = run(t, cfg, "convert", "--", "-1", "g", "kg")
	assert.ErrorIs(t, err, freshkeep.ErrInvalidQuantity)

	_, err = run(t, cfg, "convert", "1", "furlong", "g")
	assert.ErrorIs(t, err, freshkeep.ErrUnitNotFound)
}

func TestStockAcrossAreas(t *testing.T) {
	cfg := setup(t)

	for _, args := range [][]string{
		{"area", "add", "home", "--name", "Home"},
		{"area", "add", "fridge", "--name", "Fridge", "--parent", "home"},
		{"item", "add", "home", "Butter", "g", "--id", "butter"},
		{"item", "add", "fridge", "Butter", "g", "--id", "butter"},
	} {
		_, err := run(t, cfg, args...)
		require.NoError(t, err, args)
	}

	out, err := run(t, cfg, "stock", "add", "home", "butter", "1", "stick")
	require.NoError(t, err)
	assert.Equal(t, "Butter: 113.4000 g\n", out)

	out, err = run(t, cfg, "stock", "add", "fridge", "Butter", "8", "oz")
	require.NoError(t, err)
	assert.Equal(t, "Butter: 226.7960 g\n", out)

	_, err = run(t, cfg, "stock", "remove", "home", "butter", "1", "kg")
	assert.ErrorIs(t, err, freshkeep.ErrInsufficientStock)

	out, err = run(t, cfg, "stock", "balance", "home", "butter")
	require.NoError(t, err)
	assert.Equal(t, "Butter: 113.4 g\n", out)

	out, err = run(t, cfg, "stock", "balance", "home", "butter", "g", "--total")
	require.NoError(t, err)
	assert.Equal(t, "Butter: 340.196 g\n", out)

	out, err = run(t, cfg, "area", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "fridge")
	assert.Contains(t, out, "home")
}

func TestUnknownAreaIsNotCreated(t *testing.T) {
	cfg := setup(t)
	_, err := run(t, cfg, "area", "add", "pantry")
	require.NoError(t, err)
	_, err = run(t, cfg, "item", "add", "pantry", "Flour", "g", "--id", "flour")
	require.NoError(t, err)

	_, err = run(t, cfg, "stock", "add", "pantyr", "flour", "1")
	assert.ErrorIs(t, err, freshkeep.ErrUnknownArea)
	_, err = run(t, cfg, "item", "add", "pantyr", "Sugar", "g")
	assert.ErrorIs(t, err, freshkeep.ErrUnknownArea)
	_, err = run(t, cfg, "item", "list", "pantyr")
	assert.ErrorIs(t, err, freshkeep.ErrUnknownArea)
	_, err = run(t, cfg, "stock", "balance", "pantyr", "flour")
	assert.ErrorIs(t, err, freshkeep.ErrUnknownArea)

	out, err := run(t, cfg, "area", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "pantry")
	assert.NotContains(t, out, "pantyr")
}

func TestAreaParentValidation(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, cfg, "area", "add", "loop", "--parent", "loop")
	assert.ErrorIs(t, err, freshkeep.ErrUnknownArea)
	_, err = run(t, cfg, "area", "add", "home")
	require.NoError(t, err)
	_, err = run(t, cfg, "area", "add", "home", "--parent", "home")
	assert.ErrorIs(t, err, freshkeep.ErrAreaCycle)
	_, err = run(t, cfg, "area", "add", "kitchen", "--parent", "home")
	require.NoError(t, err)
	_, err = run(t, cfg, "area", "add", "fridge", "--parent", "kitchen")
	require.NoError(t, err)
	_, err = run(t, cfg, "area", "add", "home", "--parent", "fridge")
	assert.ErrorIs(t, err, freshkeep.ErrAreaCycle)
	_, err = run(t, cfg, "area", "add", "shed", "--parent", "garage")
	assert.ErrorIs(t, err, freshkeep.ErrUnknownArea)

	// Only the fridge tracks milk; the total from home still finds its unit.
	_, err = run(t, cfg, "item", "add", "fridge", "Milk", "mL", "--id", "milk")
	require.NoError(t, err)
	_, err = run(t, cfg, "stock", "add", "fridge", "milk", "1", "L")
	require.NoError(t, err)

	out, err := run(t, cfg, "stock", "balance", "home", "milk", "--total")
	require.NoError(t, err)
	assert.Equal(t, "Milk: 1000 mL\n", out)
	_, err = run(t, cfg, "stock", "balance", "home", "milk")
	assert.ErrorIs(t, err, freshkeep.ErrUnknownItem)
}

func TestStockHistory(t *testing.T) {
	cfg := setup(t)
	for _, args := range [][]string{
		{"area", "add", "pantry"},
		{"item", "add", "pantry", "Flour", "g", "--id", "flour"},
		{"stock", "add", "pantry", "flour", "2", "lb", "--at", "2026-01-02T10:00:00Z", "--note", "market"},
		{"stock", "remove", "pantry", "Flour", "250", "--at", "2026-01-03T10:00:00Z", "--note", "bread"},
		{"stock", "add", "pantry", "flour", "32", "oz", "--at", "2026-01-01T10:00:00Z"},
	} {
		_, err := run(t, cfg, args...)
		require.NoError(t, err, args)
	}

	out, err := run(t, cfg, "stock", "history", "pantry", "flour")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "BALANCE (g)")
	assert.Contains(t, lines[1], "2026-01-01T10:00:00Z")
	assert.Contains(t, lines[1], "32 oz")
	assert.Contains(t, lines[1], "907.1840")
	assert.Contains(t, lines[2], "2 lb")
	assert.Contains(t, lines[2], "1814.3680")
	assert.Contains(t, lines[2], "market")
	assert.Contains(t, lines[3], "remove")
	assert.Contains(t, lines[3], "1564.3680")
	assert.Contains(t, lines[3], "bread")
}
