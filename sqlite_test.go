package freshkeep

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "freshkeep.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SeedAndLookupUnits(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	n, err := s.SeedUnits(ctx, DefaultUnits()...)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultUnits()), n)

	n, err = s.SeedUnits(ctx, DefaultUnits()...)
	require.NoError(t, err)
	assert.Zero(t, n)

	u, err := s.Unit(ctx, UnitID("lb"))
	require.NoError(t, err)
	assert.Equal(t, 453.592, u.Factor)
	assert.Equal(t, FamilyMass, u.Family)

	_, err = s.Unit(ctx, "missing")
	assert.True(t, errors.Is(err, ErrUnitNotFound))

	u, err = s.UnitByAbbreviation(ctx, "ml")
	require.NoError(t, err)
	assert.Equal(t, "mL", u.Abbreviation)

	units, err := s.ListUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, len(DefaultUnits()))
	assert.Equal(t, "pcs", units[0].Abbreviation)
}

func TestStore_SaveUnitRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	stick, err := NewUnit("stick", "stick of butter", 113.4, FamilyMass)
	require.NoError(t, err)
	require.NoError(t, s.SaveUnit(ctx, stick))

	again, err := NewUnit("stick", "", 100, FamilyMass)
	require.NoError(t, err)
	assert.True(t, errors.Is(s.SaveUnit(ctx, again), ErrDuplicateUnit))

	assert.True(t, errors.Is(s.SaveUnit(ctx, Unit{ID: "x", Abbreviation: "x", Factor: -1, Family: FamilyMass}), ErrInvalidUnit))
}

func TestStore_CorruptUnitSurfacesAsInvalidUnit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.SeedUnits(ctx, DefaultUnits()...)
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE units SET factor = 0 WHERE abbreviation = 'oz'`)
	require.NoError(t, err)

	conv := NewConverter(s, zap.NewNop())
	_, err = conv.ConvertByID(ctx, UnitID("lb"), 1, UnitID("oz"))
	assert.True(t, errors.Is(err, ErrInvalidUnit))
}

func TestInventory_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "freshkeep.db")
	t0 := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.SeedUnits(ctx, DefaultUnits()...)
	require.NoError(t, err)

	inv := NewInventory("pantry", "Pantry", NewConverter(s, nil))
	require.NoError(t, inv.WithStore(ctx, s))
	rice, err := inv.RegisterItem(ctx, Item{Name: "Rice", UnitID: UnitID("kg")})
	require.NoError(t, err)
	_, err = inv.AddItems(ctx, []TransactionItem{{ItemID: rice.ID, Quantity: 5, UnitID: UnitID("lb")}}, "", t0)
	require.NoError(t, err)
	_, err = inv.RemoveItems(ctx, []TransactionItem{{ItemID: rice.ID, Quantity: 500, UnitID: UnitID("g")}}, "dinner", t0.Add(48*time.Hour))
	require.NoError(t, err)
	_, err = inv.AddItems(ctx, []TransactionItem{{ItemID: rice.ID, Quantity: 1}}, "late entry", t0.Add(24*time.Hour))
	require.NoError(t, err)
	want := inv.Balance(rice.ID)
	require.Equal(t, "2.7680", want.String())
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	reopened := NewInventory("pantry", "Pantry", NewConverter(s, nil))
	require.NoError(t, reopened.WithStore(ctx, s))

	got, ok := reopened.Item(rice.ID)
	require.True(t, ok)
	assert.Equal(t, "Rice", got.Name)
	assert.Equal(t, want, reopened.Balance(rice.ID))

	txs := reopened.TransactionsForItems([]string{rice.ID})
	require.Len(t, txs, 3)
	assert.Equal(t, "late entry", txs[1].Note)
	assert.Equal(t, "3.2680", txs[1].Items[0].Balance.String())
	assert.Equal(t, 5.0, txs[0].Items[0].Quantity)
	assert.Equal(t, UnitID("lb"), txs[0].Items[0].UnitID)
	assert.True(t, txs[2].Timestamp.Equal(t0.Add(48*time.Hour)))
}

func TestCheckParent(t *testing.T) {
	areas := []InventoryInfo{
		{ID: "home"},
		{ID: "kitchen", ParentID: "home"},
		{ID: "fridge", ParentID: "kitchen"},
		// Stored before parent checks existed.
		{ID: "a", ParentID: "b"},
		{ID: "b", ParentID: "a"},
	}
	tests := []struct {
		id, parent string
		want       error
	}{
		{"shelf", "", nil},
		{"shelf", "kitchen", nil},
		{"fridge", "home", nil},
		{"shelf", "garage", ErrUnknownArea},
		{"home", "home", ErrAreaCycle},
		{"home", "fridge", ErrAreaCycle},
		{"kitchen", "fridge", ErrAreaCycle},
		{"shelf", "a", ErrAreaCycle},
	}
	for _, tt := range tests {
		err := CheckParent(areas, tt.id, tt.parent)
		if tt.want == nil {
			assert.NoError(t, err, "%s under %s", tt.id, tt.parent)
		} else {
			assert.ErrorIs(t, err, tt.want, "%s under %s", tt.id, tt.parent)
		}
	}
}
