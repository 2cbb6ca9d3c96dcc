package scanguard

import (
	"errors"
	"strings"
)

var (
	ErrManualEntryRejected = errors.New("manual entry detected, use the barcode scanner")
	ErrPasteNotAllowed     = errors.New("paste is not allowed, use the barcode scanner")
)

// Classification is the verdict on a completed input stream.
type Classification string

const (
	Scanner Classification = "SCANNER"
	Manual  Classification = "MANUAL"
	Paste   Classification = "PASTE"
)

// Policy holds the timing thresholds for telling scanner input from human
// typing. The values were tuned empirically, they are configuration, not
// business rules.
type Policy struct {
	// FastThresholdMs is the inter-keystroke gap a hardware scanner
	// stays under.
	FastThresholdMs int64
	// SlowThresholdMs is the gap that marks a human keystroke.
	SlowThresholdMs int64
	// SlowDeltaLimit is how many slow gaps are tolerated before the
	// stream is rejected as manual entry. Gaps between the two
	// thresholds cost the Scanner classification but never count
	// toward rejection.
	SlowDeltaLimit int
	// Enforced gates rejection. When false the detector still
	// classifies but never blocks.
	Enforced bool
}

// DefaultPolicy returns the thresholds used in stores: scanners burst
// below 15ms per character, humans type above 80ms.
func DefaultPolicy() Policy {
	return Policy{
		FastThresholdMs: 15,
		SlowThresholdMs: 80,
		SlowDeltaLimit:  2,
		Enforced:        true,
	}
}

// Detector classifies one logical input field. It is stateful per scan
// session: construct one per field, discard after the field resolves.
// Not safe for concurrent use.
type Detector struct {
	policy Policy

	buf        strings.Builder
	lastTS     int64
	hasLast    bool
	slowDeltas int
	sawFastGap bool // at least one delta above the fast threshold
	pasted     bool
	rejected   bool
}

func NewDetector(policy Policy) *Detector {
	return &Detector{policy: policy}
}

// Keystroke records one character with its timestamp in milliseconds.
// Under enforcement it returns ErrManualEntryRejected the moment the slow
// delta limit is crossed, without waiting for the rest of the string, so
// the operator gets immediate feedback. After a rejection the caller must
// Reset before the next attempt.
func (d *Detector) Keystroke(ch rune, tsMs int64) error {
	if d.rejected {
		return ErrManualEntryRejected
	}

	if d.hasLast {
		delta := tsMs - d.lastTS
		if delta > d.policy.SlowThresholdMs {
			d.slowDeltas++
		}
		if delta > d.policy.FastThresholdMs {
			d.sawFastGap = true
		}
	}
	d.lastTS = tsMs
	d.hasLast = true
	d.buf.WriteRune(ch)

	if d.slowDeltas >= d.policy.SlowDeltaLimit && d.policy.Enforced {
		d.rejected = true
		return ErrManualEntryRejected
	}
	return nil
}

// PasteEvent records a paste into the field. Scanners never paste, so
// under enforcement this rejects immediately regardless of timing.
func (d *Detector) PasteEvent(text string) error {
	d.pasted = true
	if d.policy.Enforced {
		d.rejected = true
		return ErrPasteNotAllowed
	}
	d.buf.WriteString(text)
	return nil
}

// Classify returns the verdict for the stream accumulated so far.
// Scanner means every inter-keystroke gap stayed at or below the fast
// threshold; anything slower is human typing. Rejection is a separate
// question: a stream classified Manual is only refused once it crosses
// the slow delta limit.
func (d *Detector) Classify() Classification {
	switch {
	case d.pasted:
		return Paste
	case d.ScannerSpeed():
		return Scanner
	default:
		return Manual
	}
}

// ScannerSpeed reports whether every observed delta stayed at or below
// the fast threshold.
func (d *Detector) ScannerSpeed() bool {
	return !d.sawFastGap && !d.pasted
}

// Complete finishes the session and returns the accepted input. Under
// enforcement a rejected stream returns its rejection error and an empty
// value so nothing from the bad attempt leaks to the caller.
func (d *Detector) Complete() (string, Classification, error) {
	c := d.Classify()
	if d.policy.Enforced {
		switch {
		case d.pasted:
			return "", c, ErrPasteNotAllowed
		case d.slowDeltas >= d.policy.SlowDeltaLimit:
			return "", c, ErrManualEntryRejected
		}
	}
	return d.buf.String(), c, nil
}

// Value returns the raw accumulated input, including input from a
// rejected attempt. Used for audit trails only.
func (d *Detector) Value() string {
	return d.buf.String()
}

// Rejected reports whether this session has already been refused.
func (d *Detector) Rejected() bool {
	return d.rejected
}

// Reset clears all per-session state so a fresh scan can be attempted.
// Keystrokes from a rejected attempt never carry into the next one.
func (d *Detector) Reset() {
	d.buf.Reset()
	d.lastTS = 0
	d.hasLast = false
	d.slowDeltas = 0
	d.sawFastGap = false
	d.pasted = false
	d.rejected = false
}
