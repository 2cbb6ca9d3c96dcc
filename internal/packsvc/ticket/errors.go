package ticket

import "errors"

var (
	ErrInvalidGameCode      = errors.New("game code must be exactly 4 digits")
	ErrInvalidPackNumber    = errors.New("pack number must be 1 to 7 digits")
	ErrInvalidTicketCount   = errors.New("ticket count must be between 1 and 999")
	ErrInvalidBarcodeLength = errors.New("scan barcode must be exactly 24 characters")
	ErrInvalidBarcodeFormat = errors.New("scan barcode must be numeric digits only")
)
