package decoder

import (
	"github.com/cospas-sarsat/beacon-core/internal/fgb"
	"github.com/cospas-sarsat/beacon-core/internal/iq"
)

// frameBuilder assembles a valid-by-construction FGB frame bit-by-bit, so
// that tests can flip individual bits afterward and still know exactly
// which field they hit.
type frameBuilder struct {
	bits []byte
}

func newLongFrameBuilder() *frameBuilder {
	b := &frameBuilder{bits: make([]byte, fgb.LongFrameLen)}
	b.setBitSync()
	b.set(24, 1) // format flag: long
	return b
}

func newShortFrameBuilder() *frameBuilder {
	b := &frameBuilder{bits: make([]byte, fgb.ShortFrameLen)}
	b.setBitSync()
	b.set(24, 0) // format flag: short
	return b
}

func (b *frameBuilder) setBitSync() {
	for i := 0; i < fgb.BitSyncLen; i++ {
		b.bits[i] = 1
	}
	copy(b.bits[fgb.BitSyncLen:fgb.BitSyncLen+fgb.FrameSyncLen], patternBits(string(fgb.FrameSyncNormal)))
}

func (b *frameBuilder) set(index int, bit byte) { b.bits[index] = bit }

func (b *frameBuilder) setRange(start int, bits []byte) { copy(b.bits[start:start+len(bits)], bits) }

func (b *frameBuilder) setUint(start, width int, v uint64) { b.setRange(start, uintToBits(v, width)) }

// finish computes CRC-1 (and CRC-2 for long frames) over the fields
// already written and returns the assembled DemodulatedFrame.
func (b *frameBuilder) finish() *fgb.DemodulatedFrame {
	crc1 := crcRemainder(b.bits[24:85], crc1Generator)
	b.setRange(85, crc1)

	if len(b.bits) == fgb.LongFrameLen {
		crc2 := crcRemainder(b.bits[106:132], crc2Generator)
		b.setRange(132, crc2)
	}

	return &fgb.DemodulatedFrame{
		Bits:      b.bits,
		Class:     iq.ClassFGB,
		FrameSync: fgb.FrameSyncNormal,
	}
}

// patternBits converts a "0101..." string into a bit slice, mirroring
// internal/fgb's test helper of the same name.
func patternBits(pattern string) []byte {
	bits := make([]byte, len(pattern))
	for i, c := range pattern {
		if c == '1' {
			bits[i] = 1
		}
	}
	return bits
}
