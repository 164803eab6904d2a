package freshkeep

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
)

// Convert returns quantity, expressed in from, as an amount of to.
// Both units must belong to the same family.
func Convert(from Unit, quantity float64, to Unit) (float64, error) {
	fail := func(err error) (float64, error) {
		return 0, &ConversionError{From: from.label(), To: to.label(), Quantity: quantity, Err: err}
	}
	if err := checkQuantity(quantity); err != nil {
		return fail(err)
	}
	if err := from.Validate(); err != nil {
		return fail(err)
	}
	if err := to.Validate(); err != nil {
		return fail(err)
	}
	if from.Family != to.Family {
		return fail(ErrIncompatibleUnitFamily)
	}
	if from.ID == to.ID {
		return quantity, nil
	}
	out := quantity * (from.Factor / to.Factor)
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return fail(ErrNumericOverflow)
	}
	return out, nil
}

// ToBase expresses quantity of u in its family's base unit.
func ToBase(u Unit, quantity float64) (float64, error) {
	return scale(u, quantity, u.Factor, "base")
}

// FromBase expresses a base-unit quantity as an amount of u.
func FromBase(u Unit, quantity float64) (float64, error) {
	if err := u.Validate(); err != nil {
		return 0, &ConversionError{From: "base", To: u.label(), Quantity: quantity, Err: err}
	}
	return scale(u, quantity, 1/u.Factor, u.label())
}

func scale(u Unit, quantity, factor float64, to string) (float64, error) {
	fail := func(err error) (float64, error) {
		return 0, &ConversionError{From: u.label(), To: to, Quantity: quantity, Err: err}
	}
	if err := checkQuantity(quantity); err != nil {
		return fail(err)
	}
	if err := u.Validate(); err != nil {
		return fail(err)
	}
	out := quantity * factor
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return fail(ErrNumericOverflow)
	}
	return out, nil
}

func checkQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Converter resolves units through a UnitLookup and converts between them.
type Converter struct {
	units UnitLookup
	log   *zap.Logger
}

func NewConverter(units UnitLookup, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{units: units, log: log}
}

func (c *Converter) Units() UnitLookup {
	return c.units
}

func (c *Converter) ConvertByID(ctx context.Context, fromID string, quantity float64, toID string) (float64, error) {
	from, err := c.units.Unit(ctx, fromID)
	if err != nil {
		return 0, err
	}
	to, err := c.units.Unit(ctx, toID)
	if err != nil {
		return 0, err
	}
	out, err := Convert(from, quantity, to)
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidUnit):
		c.log.Warn("unit reference data is corrupt",
			zap.String("from", fromID),
			zap.String("to", toID),
			zap.Error(err))
	case errors.Is(err, ErrIncompatibleUnitFamily):
		c.log.Debug("rejected cross-family conversion",
			zap.String("from", from.Abbreviation),
			zap.String("to", to.Abbreviation),
			zap.String("from_family", string(from.Family)),
			zap.String("to_family", string(to.Family)))
	}
	return out, err
}
