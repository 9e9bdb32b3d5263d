package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cospas-sarsat/beacon-core/internal/decoder"
	"github.com/cospas-sarsat/beacon-core/internal/telemetry"
)

// DecodedEvent pairs a BeaconRecord with the context the core itself does
// not retain (spec.md §3 Lifecycles: "the core does not retain it"): which
// burst produced it and, optionally, where the receiving station was at
// the time, mirroring the way the teacher's Orchestrator attaches
// telemetry to a sweep result only at the storage boundary, never inside
// the sampling path itself.
type DecodedEvent struct {
	BurstID       string               `json:"burstId"`
	CaptureOffset uint64               `json:"captureOffset"`
	Record        *decoder.BeaconRecord `json:"record"`
	StationFix    *telemetry.StationFix `json:"stationFix,omitempty"`
}

// Sink writes decoded events out. Implementations must be safe to call
// from a single goroutine only; the Runner serializes all writes.
type Sink interface {
	Write(ev DecodedEvent) error
	Close() error
}

// jsonLineSink writes one JSON object per line, the ndjson convention
// used by cmd/beacon-stream's websocket frames too so both front ends
// agree on wire shape.
type jsonLineSink struct {
	w      io.Writer
	closer io.Closer
	enc    *json.Encoder
}

// OpenSink opens path (or stdout, for "-"/"") as a newline-delimited JSON
// sink.
func OpenSink(path string) (Sink, error) {
	if path == "" || path == "-" {
		return &jsonLineSink{w: os.Stdout, enc: json.NewEncoder(os.Stdout)}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output file %q: %w", path, err)
	}
	return &jsonLineSink{w: f, closer: f, enc: json.NewEncoder(f)}, nil
}

func (s *jsonLineSink) Write(ev DecodedEvent) error {
	return s.enc.Encode(ev)
}

func (s *jsonLineSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
