// Package telemetry describes the optional receiving-station position fix
// that can be attached to a captured burst for later correlation. It does
// not decode anything transmitted by the beacon; it is a property of the
// receiver, supplied by an external collaborator (e.g. a GPS daemon).
package telemetry

import (
	"time"
)

// Provider supplies the most recent known fix of the receiving station.
// Implementations must be safe for concurrent use: the beacon-decode
// Runner calls Get once per decoded record, from whichever demodulator
// consumer goroutine produced it.
type Provider interface {
	Get() *StationFix
}

// StationFix is the receiving station's position and attitude at the time a
// burst was captured. All fields are optional because not every deployment
// has every sensor; a nil pointer means "unknown", not "zero".
type StationFix struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Heading   *float64  `json:"heading,omitempty"`
}
