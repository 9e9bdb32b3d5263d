package fgb

import (
	"errors"
	"testing"
	"time"

	"github.com/cospas-sarsat/beacon-core/internal/iq"
	"github.com/cospas-sarsat/beacon-core/internal/pipeline"
)

func TestDemodulator_RoundTripShortFrame(t *testing.T) {
	cfg := testFGBConfig()
	header := headerBits(FrameSyncNormal)
	message := fixedMessageBits(ShortMsgLen, 0)
	bits := append(append([]byte{}, header...), message...)

	samples := synthFGBBurst(cfg, bits)
	b := iq.NewBurstBuffer(0, samples, time.Now())

	d := New(cfg)
	frame, err := d.Demodulate(b)
	if err != nil {
		t.Fatalf("unexpected demodulation error: %v", err)
	}
	if frame.Len() != ShortFrameLen {
		t.Fatalf("expected a %d-bit frame, got %d", ShortFrameLen, frame.Len())
	}
	if frame.IsLong() {
		t.Errorf("expected a short frame")
	}
	if frame.SyncWarn {
		t.Errorf("expected no sync warning for a known frame-sync pattern")
	}
	for i, want := range bits {
		if frame.Bits[i] != want {
			t.Fatalf("bit %d: got %d, want %d", i, frame.Bits[i], want)
		}
	}
}

func TestDemodulator_RoundTripLongFrame(t *testing.T) {
	cfg := testFGBConfig()
	header := headerBits(FrameSyncNormal)
	message := fixedMessageBits(LongMsgLen, 1)
	bits := append(append([]byte{}, header...), message...)

	samples := synthFGBBurst(cfg, bits)
	b := iq.NewBurstBuffer(0, samples, time.Now())

	d := New(cfg)
	frame, err := d.Demodulate(b)
	if err != nil {
		t.Fatalf("unexpected demodulation error: %v", err)
	}
	if !frame.IsLong() {
		t.Fatalf("expected a long frame, got length %d", frame.Len())
	}
	for i, want := range bits {
		if frame.Bits[i] != want {
			t.Fatalf("bit %d: got %d, want %d", i, frame.Bits[i], want)
		}
	}
}

func TestDemodulator_UnknownFrameSyncSetsWarn(t *testing.T) {
	cfg := testFGBConfig()
	bitSync := make([]byte, BitSyncLen)
	for i := range bitSync {
		bitSync[i] = 1
	}
	bogus := patternBits("111111111") // not in KnownFrameSyncPatterns
	message := fixedMessageBits(ShortMsgLen, 0)
	bits := append(append(append([]byte{}, bitSync...), bogus...), message...)

	samples := synthFGBBurst(cfg, bits)
	b := iq.NewBurstBuffer(0, samples, time.Now())

	d := New(cfg)
	frame, err := d.Demodulate(b)
	if err != nil {
		t.Fatalf("unexpected demodulation error: %v", err)
	}
	if !frame.SyncWarn {
		t.Errorf("expected a sync warning for an unrecognized frame-sync pattern")
	}
}

func TestDemodulator_NoCarrierFailsToAcquire(t *testing.T) {
	cfg := testFGBConfig()
	// Pure noise-floor silence: never reaches CARRIER_TRACKING.
	samples := make([]iq.Sample, 2000)
	for i := range samples {
		samples[i] = iq.Sample(complex(0, 0))
	}
	b := iq.NewBurstBuffer(0, samples, time.Now())

	d := New(cfg)
	_, err := d.Demodulate(b)
	var syncErr *pipeline.SyncLostError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected a SyncLostError, got %v", err)
	}
}

func TestDecodeBitHalves(t *testing.T) {
	// +1.1rad -> -1.1rad is the nominal '1' transition (spec.md §4.3.4).
	bit, ambiguous := decodeBitHalves(1.25, -1.25, 1.0, 1.5)
	if ambiguous || bit != 1 {
		t.Errorf("expected unambiguous bit=1, got bit=%d ambiguous=%v", bit, ambiguous)
	}
	// -1.1rad -> +1.1rad is the nominal '0' transition.
	bit, ambiguous = decodeBitHalves(-1.25, 1.25, 1.0, 1.5)
	if ambiguous || bit != 0 {
		t.Errorf("expected unambiguous bit=0, got bit=%d ambiguous=%v", bit, ambiguous)
	}
	bit, ambiguous = decodeBitHalves(0.01, 0.02, 1.0, 1.5)
	if !ambiguous {
		t.Errorf("expected a sub-threshold phase step to be flagged ambiguous")
	}
	if bit != 0 {
		t.Errorf("expected sub-threshold fallback to follow the sign of diff, got bit=%d", bit)
	}
}
