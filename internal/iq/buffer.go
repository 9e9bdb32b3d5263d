package iq

import (
	"time"

	"github.com/google/uuid"
)

// BurstBuffer is an ordered sequence of samples captured between a detector
// state transition into IN_BURST and the following BURST_COMPLETE. It is
// owned by exactly one pipeline stage at a time: the detector creates it,
// the router classifies and forwards it, a demodulator consumes it and then
// discards it. Nothing downstream ever holds two references to it.
type BurstBuffer struct {
	// ID correlates log lines and message-port deliveries for this burst
	// across stages; it is stamped once, when the detector closes the
	// burst, and never changes.
	ID uuid.UUID

	// CaptureOffset is the sample index into the original stream at which
	// Samples[0] was captured.
	CaptureOffset uint64

	// Samples is the full captured envelope, including the trailing
	// silence run that triggered BURST_COMPLETE. It is never trimmed;
	// downstream demodulators rely on the envelope shape.
	Samples []Sample

	// CapturedAt is wall-clock time at which the burst was closed, used
	// only for logging and optional station-fix correlation.
	CapturedAt time.Time
}

// Len returns the number of samples in the buffer.
func (b *BurstBuffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Samples)
}

// NewBurstBuffer allocates a buffer with a fresh correlation ID.
func NewBurstBuffer(offset uint64, samples []Sample, capturedAt time.Time) *BurstBuffer {
	return &BurstBuffer{
		ID:            uuid.New(),
		CaptureOffset: offset,
		Samples:       samples,
		CapturedAt:    capturedAt,
	}
}
