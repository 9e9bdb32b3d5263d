// Package pipeline defines the stage interfaces, inline marker stream, and
// message-port plumbing shared by every stage (spec.md §6), plus the error
// kinds stages surface (spec.md §7). It does not implement any stage
// itself; internal/detector, internal/router, internal/fgb, internal/sgb
// and internal/decoder all import it.
package pipeline

import (
	"errors"
	"fmt"
)

// ErrCalibrationIncomplete names the transient state of a detector that is
// still accumulating its calibration window. The detector does not return
// it: Feed simply produces no bursts until calibration completes
// (spec.md §7).
var ErrCalibrationIncomplete = errors.New("pipeline: calibration incomplete")

// BurstTooShortError describes a closed burst that was shorter than the
// configured minimum (spec.md §7). The detector does not return it: it
// discards such a burst, counts it and logs it at debug level.
type BurstTooShortError struct {
	Observed int
	Min      int
}

func (e *BurstTooShortError) Error() string {
	return fmt.Sprintf("pipeline: burst too short: %d samples, minimum %d", e.Observed, e.Min)
}

// SyncLostError is returned when a demodulator aborts acquisition because
// too many consecutive bits were ambiguous (spec.md §4.3.6, §7).
type SyncLostError struct {
	State                string
	ConsecutiveAmbiguous int
}

func (e *SyncLostError) Error() string {
	return fmt.Sprintf("pipeline: sync lost in state %s after %d consecutive ambiguous bits", e.State, e.ConsecutiveAmbiguous)
}

// IntegrityCheck names which integrity check failed.
type IntegrityCheck string

const (
	IntegrityCRC1 IntegrityCheck = "crc1"
	IntegrityCRC2 IntegrityCheck = "crc2"
	IntegrityBCH  IntegrityCheck = "bch"
)

// IntegrityError names the CRC/BCH checks that failed on a frame. The
// decoder uses it internally for its failure counters; the record itself
// carries the outcome in BeaconRecord.Integrity, and decoding still
// completes and returns the record (spec.md §4.4, §7).
type IntegrityError struct {
	Checks []IntegrityCheck
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("pipeline: integrity check(s) failed: %v", e.Checks)
}

// MalformedFrameError is returned when a frame's bit length is neither 112
// nor 144 and cannot be decoded at all (spec.md §7).
type MalformedFrameError struct {
	Length int
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("pipeline: malformed frame: length %d is neither 112 nor 144", e.Length)
}
