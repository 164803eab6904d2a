package freshkeep

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type Family string

const (
	FamilyMass   Family = "mass"   // base: gram
	FamilyVolume Family = "volume" // base: millilitre
	FamilyCount  Family = "count"  // base: piece
)

func (f Family) Valid() bool {
	switch f {
	case FamilyMass, FamilyVolume, FamilyCount:
		return true
	}
	return false
}

// Unit is immutable reference data. Factor is how many base units of the
// family one of this unit equals, e.g. lb = 453.592 (grams).
type Unit struct {
	ID           string
	Abbreviation string
	Name         string
	Factor       float64
	Family       Family
}

func (u Unit) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidUnit)
	}
	if math.IsNaN(u.Factor) || math.IsInf(u.Factor, 0) || u.Factor <= 0 {
		return fmt.Errorf("%w: %s has factor %g", ErrInvalidUnit, u.label(), u.Factor)
	}
	if !u.Family.Valid() {
		return fmt.Errorf("%w: %s has unknown family %q", ErrInvalidUnit, u.label(), u.Family)
	}
	return nil
}

func (u Unit) label() string {
	if u.Abbreviation != "" {
		return u.Abbreviation
	}
	return u.ID
}

var unitNamespace = uuid.MustParse("5b0f8c3e-7a41-4d0e-9a7c-2f6d1e0b9c11")

// UnitID returns the stable identifier used for catalog units.
func UnitID(abbreviation string) string {
	return uuid.NewSHA1(unitNamespace, []byte(abbreviation)).String()
}

// NewUnit creates a custom unit with a random ID.
func NewUnit(abbreviation, name string, factor float64, family Family) (Unit, error) {
	u := Unit{
		ID:           uuid.NewString(),
		Abbreviation: abbreviation,
		Name:         name,
		Factor:       factor,
		Family:       family,
	}
	if err := u.Validate(); err != nil {
		return Unit{}, err
	}
	return u, nil
}

func catalogUnit(abbr, name string, factor float64, family Family) Unit {
	return Unit{ID: UnitID(abbr), Abbreviation: abbr, Name: name, Factor: factor, Family: family}
}

// DefaultUnits is the seed catalog.
func DefaultUnits() []Unit {
	return []Unit{
		catalogUnit("mg", "milligram", 0.001, FamilyMass),
		catalogUnit("g", "gram", 1, FamilyMass),
		catalogUnit("kg", "kilogram", 1000, FamilyMass),
		catalogUnit("oz", "ounce", 28.3495, FamilyMass),
		catalogUnit("lb", "pound", 453.592, FamilyMass),

		catalogUnit("mL", "millilitre", 1, FamilyVolume),
		catalogUnit("L", "litre", 1000, FamilyVolume),
		catalogUnit("tsp", "teaspoon", 4.92892, FamilyVolume),
		catalogUnit("tbsp", "tablespoon", 14.7868, FamilyVolume),
		catalogUnit("fl oz", "fluid ounce", 29.5735, FamilyVolume),
		catalogUnit("cup", "cup", 236.588, FamilyVolume),
		catalogUnit("gal", "gallon", 3785.41, FamilyVolume),

		catalogUnit("pcs", "piece", 1, FamilyCount),
		catalogUnit("dozen", "dozen", 12, FamilyCount),
	}
}

// UnitLookup supplies unit reference data by identifier.
type UnitLookup interface {
	Unit(ctx context.Context, id string) (Unit, error)
}

// Registry is an in-memory UnitLookup.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]Unit
	byAbbr map[string]string // abbreviation -> id
}

func NewRegistry(units ...Unit) (*Registry, error) {
	r := &Registry{
		byID:   make(map[string]Unit),
		byAbbr: make(map[string]string),
	}
	for _, u := range units {
		if err := r.Add(u); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Add(u Unit) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; ok {
		return fmt.Errorf("%w: id %s", ErrDuplicateUnit, u.ID)
	}
	if u.Abbreviation != "" {
		if _, ok := r.byAbbr[u.Abbreviation]; ok {
			return fmt.Errorf("%w: abbreviation %q", ErrDuplicateUnit, u.Abbreviation)
		}
		r.byAbbr[u.Abbreviation] = u.ID
	}
	r.byID[u.ID] = u
	return nil
}

func (r *Registry) Unit(_ context.Context, id string) (Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	return u, nil
}

// ByAbbreviation matches exactly first ("mL" vs "ml"), then case-insensitively.
func (r *Registry) ByAbbreviation(abbr string) (Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byAbbr[abbr]; ok {
		return r.byID[id], nil
	}
	for a, id := range r.byAbbr {
		if strings.EqualFold(a, abbr) {
			return r.byID[id], nil
		}
	}
	return Unit{}, fmt.Errorf("%w: %q", ErrUnitNotFound, abbr)
}

func (r *Registry) List() []Unit {
	r.mu.RLock()
	units := make([]Unit, 0, len(r.byID))
	for _, u := range r.byID {
		units = append(units, u)
	}
	r.mu.RUnlock()
	SortUnits(units)
	return units
}

func (r *Registry) ListUnits(context.Context) ([]Unit, error) {
	return r.List(), nil
}

// SortUnits orders units by family, then factor, then abbreviation.
func SortUnits(units []Unit) {
	sort.Slice(units, func(i, j int) bool {
		if units[i].Family != units[j].Family {
			return units[i].Family < units[j].Family
		}
		if units[i].Factor != units[j].Factor {
			return units[i].Factor < units[j].Factor
		}
		return units[i].Abbreviation < units[j].Abbreviation
	})
}
