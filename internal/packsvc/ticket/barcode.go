package ticket

import (
	"fmt"
	"strconv"
)

// ScanBarcodeLength is the length of the 24-digit barcode scanned at
// day-close: game code (4), pack number (7), serial position (3),
// reserved (10).
const ScanBarcodeLength = 24

// ScanBarcode is the decoded form of a day-close scan barcode. The
// reserved tail digits are carried through but not interpreted.
type ScanBarcode struct {
	GameCode       string `json:"game_code"`
	PackNumber     string `json:"pack_number"`
	SerialPosition int    `json:"serial_position"`
	Reserved       string `json:"reserved"`
}

// ParseScanBarcode decodes a 24-digit scan barcode. The input must be
// exactly 24 numeric digits.
func ParseScanBarcode(s string) (ScanBarcode, error) {
	if len(s) != ScanBarcodeLength {
		return ScanBarcode{}, fmt.Errorf("%w: got %d", ErrInvalidBarcodeLength, len(s))
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ScanBarcode{}, ErrInvalidBarcodeFormat
		}
	}

	pos, err := strconv.Atoi(s[11:14])
	if err != nil {
		return ScanBarcode{}, ErrInvalidBarcodeFormat
	}

	return ScanBarcode{
		GameCode:       s[0:4],
		PackNumber:     s[4:11],
		SerialPosition: pos,
		Reserved:       s[14:24],
	}, nil
}
