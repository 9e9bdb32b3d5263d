package decoder

import (
	"math"
	"testing"
)

// TestDecode_ShortUserProtocol is scenario 2 of spec.md §8: a short FGB
// frame, protocol 1 (ELT-Aviation, a short-frame user protocol), country
// 226 (France), with a clean CRC-1.
func TestDecode_ShortUserProtocol(t *testing.T) {
	b := newShortFrameBuilder()
	b.set(25, 1) // protocol flag: user protocol
	b.setUint(26, 10, 226)
	b.setUint(36, 4, 1)
	frame := b.finish()

	rec, err := New().Decode(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.FrameKind != FrameShort {
		t.Errorf("frame_kind = %v, want short", rec.FrameKind)
	}
	if rec.CountryCode != 226 {
		t.Errorf("country_code = %d, want 226", rec.CountryCode)
	}
	if rec.ProtocolCode != 1 {
		t.Errorf("protocol_code = %d, want 1", rec.ProtocolCode)
	}
	if rec.Protocol != ProtoUserProtocol {
		t.Errorf("protocol = %v, want UserProtocol", rec.Protocol)
	}
	if !rec.Integrity.OK {
		t.Errorf("integrity = %+v, want ok", rec.Integrity)
	}
}

// TestDecode_LongStandardLocationAddress is scenario 3: a long FGB frame,
// protocol 3 (Standard Location, 24-bit aircraft address), country 227,
// address 0x3C6589, position 48.5N 2.25E with no offset.
func TestDecode_LongStandardLocationAddress(t *testing.T) {
	b := newLongFrameBuilder()
	b.setUint(26, 10, 227)
	b.setUint(36, 4, 3)
	b.setUint(40, 24, 0x3C6589)
	b.set(64, 0)          // lat sign: N
	b.setUint(65, 9, 194) // 48.5 / 0.25
	b.set(74, 0)          // lon sign: E
	b.setUint(75, 10, 9)  // 2.25 / 0.25
	frame := b.finish()

	rec, err := New().Decode(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.FrameKind != FrameLong {
		t.Fatalf("frame_kind = %v, want long", rec.FrameKind)
	}
	if rec.Protocol != ProtoStandardLocation {
		t.Errorf("protocol = %v, want StandardLocation", rec.Protocol)
	}
	if rec.CountryCode != 227 {
		t.Errorf("country_code = %d, want 227", rec.CountryCode)
	}
	if rec.Identification != "Aircraft Address: 3C6589" {
		t.Errorf("identification = %q, want %q", rec.Identification, "Aircraft Address: 3C6589")
	}
	if rec.BasePosition == nil {
		t.Fatalf("base_position is nil")
	}
	if !closeEnough(rec.BasePosition.Latitude, 48.5) || !closeEnough(rec.BasePosition.Longitude, 2.25) {
		t.Errorf("base_position = %+v, want (48.5, 2.25)", rec.BasePosition)
	}
	if rec.CompositePosition == nil {
		t.Fatalf("composite_position is nil")
	}
	if !closeEnough(rec.CompositePosition.Latitude, 48.5) || !closeEnough(rec.CompositePosition.Longitude, 2.25) {
		t.Errorf("composite_position = %+v, want (48.5, 2.25)", rec.CompositePosition)
	}
	if !rec.Integrity.OK {
		t.Errorf("integrity = %+v, want ok", rec.Integrity)
	}
}

// TestDecode_LongEltDtWithOffset is scenario 4: ELT-DT (protocol 9) with
// base 45.0N 1.5W (0.5° grid), lat offset +3'20", lon offset -2'40",
// freshness=3. The base position and PDF-2 offset layouts follow
// dec406_v1g.c's decode_elt_dt_location.
func TestDecode_LongEltDtWithOffset(t *testing.T) {
	b := newLongFrameBuilder()
	b.setUint(26, 10, 300)
	b.setUint(36, 4, 9)
	b.setUint(40, 2, 0) // ID type: aircraft address present

	b.set(66, 0)         // lat sign: N
	b.setUint(67, 8, 90) // 45.0 / 0.5
	b.set(75, 1)         // lon sign: W
	b.setUint(76, 9, 3)  // 1.5 / 0.5

	b.setUint(112, 2, 3) // location freshness
	b.set(114, 1)         // lat offset sign: +
	b.setUint(115, 4, 3)  // lat offset minutes
	b.setUint(119, 4, 5)  // lat offset seconds/4 -> 20s
	b.set(123, 0)         // lon offset sign: -
	b.setUint(124, 4, 2)  // lon offset minutes
	b.setUint(128, 4, 10) // lon offset seconds/4 -> 40s
	frame := b.finish()

	rec, err := New().Decode(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Protocol != ProtoEltDt {
		t.Errorf("protocol = %v, want EltDt", rec.Protocol)
	}
	if rec.Flags.LocationFreshness != 3 {
		t.Errorf("location_freshness = %d, want 3", rec.Flags.LocationFreshness)
	}
	if rec.CompositePosition == nil {
		t.Fatalf("composite_position is nil")
	}
	wantLat := 45.0 + 3.0/60 + 20.0/3600
	wantLon := -(1.5 + 2.0/60 + 40.0/3600)
	if !closeEnough(rec.CompositePosition.Latitude, wantLat) {
		t.Errorf("composite latitude = %v, want %v", rec.CompositePosition.Latitude, wantLat)
	}
	if !closeEnough(rec.CompositePosition.Longitude, wantLon) {
		t.Errorf("composite longitude = %v, want %v", rec.CompositePosition.Longitude, wantLon)
	}
}

// TestDecode_CorruptedCRC1 is scenario 6: scenario 3's frame with bit 100
// (frame.Bits[99], inside the CRC-1 remainder) flipped. Every other field
// must decode exactly as in scenario 3, with integrity.crc1_fail set.
func TestDecode_CorruptedCRC1(t *testing.T) {
	b := newLongFrameBuilder()
	b.setUint(26, 10, 227)
	b.setUint(36, 4, 3)
	b.setUint(40, 24, 0x3C6589)
	b.set(64, 0)
	b.setUint(65, 9, 194)
	b.set(74, 0)
	b.setUint(75, 10, 9)
	frame := b.finish()
	frame.Bits[99] ^= 1

	rec, err := New().Decode(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Integrity.OK || !rec.Integrity.CRC1Fail {
		t.Errorf("integrity = %+v, want crc1_fail", rec.Integrity)
	}
	if rec.Integrity.CRC2Fail {
		t.Errorf("integrity.CRC2Fail should remain false, got %+v", rec.Integrity)
	}
	if rec.CountryCode != 227 {
		t.Errorf("country_code = %d, want 227 (unaffected by the CRC-1 corruption)", rec.CountryCode)
	}
	if rec.Identification != "Aircraft Address: 3C6589" {
		t.Errorf("identification = %q, unaffected field changed", rec.Identification)
	}
	if !closeEnough(rec.BasePosition.Latitude, 48.5) || !closeEnough(rec.BasePosition.Longitude, 2.25) {
		t.Errorf("base_position changed by the CRC-1 corruption: %+v", rec.BasePosition)
	}
}

// TestDecode_MalformedFrame rejects any FGB frame whose length is
// neither 112 nor 144 (spec.md §7).
func TestDecode_MalformedFrame(t *testing.T) {
	b := newShortFrameBuilder()
	frame := b.finish()
	frame.Bits = frame.Bits[:100]

	if _, err := New().Decode(frame); err == nil {
		t.Fatalf("expected a MalformedFrameError")
	}
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
