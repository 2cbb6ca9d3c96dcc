package ticket

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	// UPCLength is the length of the per-ticket identifier printed on
	// each ticket: 2 game prefix digits, 7 pack number digits, 3
	// position digits.
	UPCLength = 12

	// MaxTicketCount bounds the 3-digit position segment.
	MaxTicketCount = 999

	packNumberWidth = 7
	positionWidth   = 3
)

var (
	gameCodeRe   = regexp.MustCompile(`^\d{4}$`)
	packNumberRe = regexp.MustCompile(`^\d{1,7}$`)
	upcRe        = regexp.MustCompile(`^\d{12}$`)
)

// UPC is the decoded form of a 12-digit per-ticket identifier.
type UPC struct {
	GamePrefix string `json:"game_prefix"` // first 2 digits of the game code
	PackNumber string `json:"pack_number"` // zero-padded to 7 digits
	Position   int    `json:"position"`    // ticket index within the pack
}

// String re-encodes the UPC to its 12-digit wire form.
func (u UPC) String() string {
	return fmt.Sprintf("%s%s%0*d", u.GamePrefix, u.PackNumber, positionWidth, u.Position)
}

// ValidGameCode reports whether s is a well-formed 4-digit game code.
func ValidGameCode(s string) bool {
	return gameCodeRe.MatchString(s)
}

// ValidPackNumber reports whether s is a well-formed 1-7 digit pack number.
func ValidPackNumber(s string) bool {
	return packNumberRe.MatchString(s)
}

// PadPackNumber left-zero-pads a pack number to its encoded 7-digit width.
func PadPackNumber(s string) string {
	return fmt.Sprintf("%0*s", packNumberWidth, s)
}

// GenerateUPCs produces one UPC string per ticket in the pack, strictly
// increasing. The pack number is left-zero-padded to 7 digits and only the
// first two digits of the game code appear in the UPC.
func GenerateUPCs(gameCode, packNumber string, ticketCount int) ([]string, error) {
	if !ValidGameCode(gameCode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameCode, gameCode)
	}
	if !ValidPackNumber(packNumber) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPackNumber, packNumber)
	}
	if ticketCount < 1 || ticketCount > MaxTicketCount {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTicketCount, ticketCount)
	}

	// The UPC game segment is the first two digits of the numeric game
	// code rendered three wide: game 0033 prints as 033, so its tickets
	// carry the 03 prefix.
	codeNum, err := strconv.Atoi(gameCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameCode, gameCode)
	}
	prefix := fmt.Sprintf("%03d", codeNum)[:2]
	padded := PadPackNumber(packNumber)

	upcs := make([]string, 0, ticketCount)
	for i := 0; i < ticketCount; i++ {
		upcs = append(upcs, fmt.Sprintf("%s%s%0*d", prefix, padded, positionWidth, i))
	}
	return upcs, nil
}

// ParseUPC decodes a 12-digit UPC string. Malformed input returns nil
// rather than an error: callers use this as a lookup query, not a
// validation step.
func ParseUPC(s string) *UPC {
	if !upcRe.MatchString(s) {
		return nil
	}
	pos, err := strconv.Atoi(s[9:12])
	if err != nil {
		return nil
	}
	return &UPC{
		GamePrefix: s[0:2],
		PackNumber: s[2:9],
		Position:   pos,
	}
}
