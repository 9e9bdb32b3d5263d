package decoder

import "github.com/cospas-sarsat/beacon-core/internal/pipeline"

// Integrity mirrors spec.md §3's integrity block: every check that was
// actually run, and whether it passed. A failed check never aborts
// decoding (spec.md §4.4, §7); it only gets recorded here.
type Integrity struct {
	OK       bool
	CRC1Fail bool
	CRC2Fail bool
	BCHFail  bool
}

// checkCRC1 validates the bit-sync/frame-sync-protected data field (spec
// bits 25-85, frame.Bits[24:85]) against its 21-bit remainder (spec bits
// 86-106, frame.Bits[85:106]). A CRC region that is entirely zero is
// treated as a failure rather than a degenerate pass (spec.md §4.4).
func checkCRC1(bits []byte) bool {
	if len(bits) < 106 {
		return false
	}
	data := bits[24:85]
	want := bits[85:106]
	if allZero(want) {
		return false
	}
	got := crcRemainder(data, crc1Generator)
	return equalBits(got, want)
}

// checkCRC2 validates the long-frame-only protected field (spec bits
// 107-132, frame.Bits[106:132]) against its 12-bit remainder (spec bits
// 133-144, frame.Bits[132:144]). Unlike CRC-1, an all-zero field is not
// special-cased: zero data with a zero remainder passes.
func checkCRC2(bits []byte) bool {
	if len(bits) < 144 {
		return false
	}
	data := bits[106:132]
	want := bits[132:144]
	got := crcRemainder(data, crc2Generator)
	return equalBits(got, want)
}

func equalBits(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// evaluateIntegrity runs every CRC check that applies to a frame of this
// length and reports the aggregate integrity block plus a
// *pipeline.IntegrityError naming the checks that failed, or nil if all
// passed.
func evaluateIntegrity(bits []byte, isLong bool) (Integrity, error) {
	var integ Integrity
	var failed []pipeline.IntegrityCheck

	if !checkCRC1(bits) {
		integ.CRC1Fail = true
		failed = append(failed, pipeline.IntegrityCRC1)
	}
	if isLong {
		if !checkCRC2(bits) {
			integ.CRC2Fail = true
			failed = append(failed, pipeline.IntegrityCRC2)
		}
	}

	integ.OK = len(failed) == 0
	if len(failed) == 0 {
		return integ, nil
	}
	return integ, &pipeline.IntegrityError{Checks: failed}
}
