package rpc

import (
	"errors"
	"fmt"

	"freshkeep"
)

var (
	ErrReqHasNoFunc     = errors.New("request has no function")
	ErrNoSuchFunc       = errors.New("no such function")
	ErrBadArg           = errors.New("bad argument")
	ErrUnknownInventory = errors.New("unknown inventory")
)

const (
	CodeOK                int32 = 0
	CodeNoFunc            int32 = -201
	CodeUnknownFunc       int32 = -202
	CodeBadArg            int32 = -203
	CodeIncompatible      int32 = -210
	CodeInvalidUnit       int32 = -211
	CodeInvalidQuantity   int32 = -212
	CodeOverflow          int32 = -213
	CodeUnitNotFound      int32 = -214
	CodeUnknownItem       int32 = -215
	CodeUnknownInventory  int32 = -216
	CodeInsufficientStock int32 = -217
	CodeAreaCycle         int32 = -218
	CodeInternal          int32 = -299
)

var codeErrors = []struct {
	code int32
	err  error
}{
	{CodeNoFunc, ErrReqHasNoFunc},
	{CodeUnknownFunc, ErrNoSuchFunc},
	{CodeBadArg, ErrBadArg},
	{CodeIncompatible, freshkeep.ErrIncompatibleUnitFamily},
	{CodeInvalidUnit, freshkeep.ErrInvalidUnit},
	{CodeInvalidQuantity, freshkeep.ErrInvalidQuantity},
	{CodeOverflow, freshkeep.ErrNumericOverflow},
	{CodeUnitNotFound, freshkeep.ErrUnitNotFound},
	{CodeUnknownItem, freshkeep.ErrUnknownItem},
	{CodeUnknownInventory, ErrUnknownInventory},
	{CodeInsufficientStock, freshkeep.ErrInsufficientStock},
	{CodeAreaCycle, freshkeep.ErrAreaCycle},
}

func codeFor(err error) int32 {
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return ce.code
		}
	}
	return CodeInternal
}

// RemoteError is a failure reported by the server. It unwraps to the
// sentinel matching Code, if any.
type RemoteError struct {
	Code    int32
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error {
	for _, ce := range codeErrors {
		if ce.code == e.Code {
			return ce.err
		}
	}
	return nil
}
