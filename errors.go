package freshkeep

import (
	"errors"
	"fmt"
)

var (
	ErrIncompatibleUnitFamily = errors.New("incompatible unit family")
	ErrInvalidUnit            = errors.New("invalid unit")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrNumericOverflow        = errors.New("numeric overflow")

	ErrUnitNotFound      = errors.New("unit not found")
	ErrDuplicateUnit     = errors.New("duplicate unit")
	ErrUnknownItem       = errors.New("unknown item")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownArea       = errors.New("unknown storage area")
	ErrAreaCycle         = errors.New("storage area cycle")
)

// ConversionError describes a failed conversion. It unwraps to one of the
// conversion sentinels so callers can match with errors.Is.
type ConversionError struct {
	From     string
	To       string
	Quantity float64
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %g %s to %s: %v", e.Quantity, e.From, e.To, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
