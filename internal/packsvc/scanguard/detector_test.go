package scanguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed pushes barcode characters with the given gaps between keystrokes,
// returning the first rejection if one fires mid-stream.
func feed(d *Detector, input string, gaps []int64) error {
	ts := int64(1000)
	for i, ch := range input {
		if i > 0 {
			ts += gaps[(i-1)%len(gaps)]
		}
		if err := d.Keystroke(ch, ts); err != nil {
			return err
		}
	}
	return nil
}

func TestDetectorScanner(t *testing.T) {
	d := NewDetector(DefaultPolicy())

	err := feed(d, "003356330050291234567890", []int64{5, 8, 12, 3})
	require.NoError(t, err)

	value, class, err := d.Complete()
	require.NoError(t, err)
	assert.Equal(t, Scanner, class)
	assert.Equal(t, "003356330050291234567890", value)
	assert.True(t, d.ScannerSpeed())
}

func TestDetectorManualRejectsEarly(t *testing.T) {
	d := NewDetector(DefaultPolicy())

	// Human typing: rejection must fire on the second slow gap, long
	// before the 24th character.
	ts := int64(0)
	typed := 0
	var err error
	for _, ch := range "003356330050291234567890" {
		ts += 150
		typed++
		if err = d.Keystroke(ch, ts); err != nil {
			break
		}
	}
	require.ErrorIs(t, err, ErrManualEntryRejected)
	assert.Equal(t, 3, typed, "rejection should fire on the second slow delta")
	assert.Equal(t, Manual, d.Classify())
	assert.True(t, d.Rejected())
}

func TestDetectorSingleSlowGapTolerated(t *testing.T) {
	d := NewDetector(DefaultPolicy())

	// One hiccup in an otherwise fast burst stays accepted, but the
	// stream no longer counts as scanner speed.
	err := feed(d, "0033563300502912", []int64{5, 5, 120, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5})
	require.NoError(t, err)

	_, class, err := d.Complete()
	require.NoError(t, err)
	assert.Equal(t, Manual, class)
	assert.False(t, d.ScannerSpeed())
}

func TestDetectorMidSpeedTypingClassifiedManual(t *testing.T) {
	d := NewDetector(DefaultPolicy())

	// Steady 50ms gaps sit between the thresholds: too slow for a
	// scanner, not slow enough to reject. The input is accepted but the
	// audit trail records it as manual.
	err := feed(d, "003356330050291234567890", []int64{50})
	require.NoError(t, err)

	value, class, err := d.Complete()
	require.NoError(t, err)
	assert.Equal(t, Manual, class)
	assert.Equal(t, "003356330050291234567890", value)
	assert.False(t, d.ScannerSpeed())
}

func TestDetectorPasteBlocked(t *testing.T) {
	d := NewDetector(DefaultPolicy())

	err := d.PasteEvent("003356330050291234567890")
	require.ErrorIs(t, err, ErrPasteNotAllowed)
	assert.Equal(t, Paste, d.Classify())

	_, _, err = d.Complete()
	require.ErrorIs(t, err, ErrPasteNotAllowed)
}

func TestDetectorPasteAfterFastKeystrokes(t *testing.T) {
	d := NewDetector(DefaultPolicy())

	require.NoError(t, feed(d, "00335633", []int64{5}))
	err := d.PasteEvent("0050291234567890")
	require.ErrorIs(t, err, ErrPasteNotAllowed, "paste rejects regardless of timing")
}

func TestDetectorEnforcementDisabled(t *testing.T) {
	policy := DefaultPolicy()
	policy.Enforced = false
	d := NewDetector(policy)

	ts := int64(0)
	for _, ch := range "00335633005" {
		ts += 200
		require.NoError(t, d.Keystroke(ch, ts), "disabled enforcement never blocks")
	}
	require.NoError(t, d.PasteEvent("029"))

	value, class, err := d.Complete()
	require.NoError(t, err)
	assert.Equal(t, Paste, class, "classification still computed")
	assert.Equal(t, "00335633005029", value)
}

func TestDetectorResetClearsRejectedAttempt(t *testing.T) {
	d := NewDetector(DefaultPolicy())

	ts := int64(0)
	for _, ch := range "0033" {
		ts += 150
		if err := d.Keystroke(ch, ts); err != nil {
			break
		}
	}
	require.True(t, d.Rejected())

	d.Reset()
	require.False(t, d.Rejected())

	err := feed(d, "003356330050291234567890", []int64{4})
	require.NoError(t, err)

	value, class, err := d.Complete()
	require.NoError(t, err)
	assert.Equal(t, Scanner, class)
	assert.Equal(t, "003356330050291234567890", value, "no keystrokes leak from the rejected attempt")
}

func TestDetectorRejectedSessionStaysRejected(t *testing.T) {
	d := NewDetector(DefaultPolicy())

	ts := int64(0)
	var err error
	for _, ch := range "00335" {
		ts += 150
		if err = d.Keystroke(ch, ts); err != nil {
			break
		}
	}
	require.ErrorIs(t, err, ErrManualEntryRejected)

	// Further keystrokes without a Reset keep failing.
	err = d.Keystroke('9', ts+5)
	require.ErrorIs(t, err, ErrManualEntryRejected)
}
