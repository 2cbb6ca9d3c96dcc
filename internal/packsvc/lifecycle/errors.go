package lifecycle

import "errors"

var (
	ErrInvalidStateTransition = errors.New("pack is not in a state that allows this transition")
	ErrBinOccupied            = errors.New("bin already holds an active pack")
	ErrDuplicatePack          = errors.New("pack number already exists for this store")
	ErrInvalidSerialRange     = errors.New("serial start must not exceed serial end")
	ErrReturnReasonRequired   = errors.New("return reason is required")
)
