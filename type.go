package freshkeep

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DecimalPrecision = 4
	decimalScale     = 10000
)

// Decimal is a fixed-point quantity with DecimalPrecision fractional digits.
// Data holds the value scaled by 10^DecimalPrecision.
type Decimal struct {
	Data int64
}

func NewDecimal(raw int64) Decimal {
	return Decimal{Data: raw}
}

func NewDecimalFromIntFrac(intPart, fracPart int64) Decimal {
	if intPart < 0 {
		return NewDecimal(intPart*decimalScale - fracPart)
	}
	return NewDecimal(intPart*decimalScale + fracPart)
}

// NewDecimalFromFloat rounds f half away from zero. Values outside the
// fixed-point range fail with ErrNumericOverflow.
func NewDecimalFromFloat(f float64) (Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Decimal{}, fmt.Errorf("decimal from %v: %w", f, ErrNumericOverflow)
	}
	d, err := fromShop(decimal.NewFromFloat(f))
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal from %v: %w", f, err)
	}
	return d, nil
}

// ParseDecimal parses "12", "-0.25" or "3.14159"; digits past the fourth
// fractional place are rounded.
func ParseDecimal(s string) (Decimal, error) {
	str := strings.TrimSpace(s)
	if strings.Contains(str, ".-") || strings.Contains(str, ".+") {
		return Decimal{}, fmt.Errorf("parse decimal %q: bad fraction", s)
	}
	d, err := decimal.NewFromString(str)
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	out, err := fromShop(d)
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return out, nil
}

func fromShop(d decimal.Decimal) (Decimal, error) {
	scaled := d.Round(DecimalPrecision).Shift(DecimalPrecision)
	if !scaled.BigInt().IsInt64() {
		return Decimal{}, ErrNumericOverflow
	}
	return NewDecimal(scaled.IntPart()), nil
}

func (d Decimal) Float64() float64 {
	return float64(d.Data) / decimalScale
}

func (d Decimal) IntFrac() (int64, int64) {
	return d.Data / decimalScale, d.Data % decimalScale
}

func (d Decimal) String() string {
	return decimal.New(d.Data, -DecimalPrecision).StringFixed(DecimalPrecision)
}

// Add fails with ErrNumericOverflow instead of wrapping.
func (d Decimal) Add(o Decimal) (Decimal, error) {
	sum := d.Data + o.Data
	if (o.Data > 0 && sum < d.Data) || (o.Data < 0 && sum > d.Data) {
		return Decimal{}, fmt.Errorf("%s + %s: %w", d, o, ErrNumericOverflow)
	}
	return NewDecimal(sum), nil
}

// Sub fails with ErrNumericOverflow instead of wrapping.
func (d Decimal) Sub(o Decimal) (Decimal, error) {
	diff := d.Data - o.Data
	if (o.Data > 0 && diff > d.Data) || (o.Data < 0 && diff < d.Data) {
		return Decimal{}, fmt.Errorf("%s - %s: %w", d, o, ErrNumericOverflow)
	}
	return NewDecimal(diff), nil
}

func (d Decimal) Sign() int {
	switch {
	case d.Data < 0:
		return -1
	case d.Data > 0:
		return 1
	}
	return 0
}

func (d Decimal) Cmp(o Decimal) int {
	switch {
	case d.Data < o.Data:
		return -1
	case d.Data > o.Data:
		return 1
	}
	return 0
}

func (d *Decimal) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*d = NewDecimal(v)
	case nil:
		*d = Decimal{}
	default:
		return errors.New("decimal: src must be int64")
	}
	return nil
}

func (d Decimal) Value() (driver.Value, error) {
	return d.Data, nil
}
