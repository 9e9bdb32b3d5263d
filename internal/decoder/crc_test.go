package decoder

import "testing"

func TestCrcRemainder_Length(t *testing.T) {
	data := make([]byte, 61)
	for i := range data {
		data[i] = byte((i * 13) % 2)
	}
	if rem := crcRemainder(data, crc1Generator); len(rem) != 21 {
		t.Fatalf("crc1 remainder length = %d, want 21", len(rem))
	}

	data2 := make([]byte, 26)
	for i := range data2 {
		data2[i] = byte((i * 7) % 2)
	}
	if rem := crcRemainder(data2, crc2Generator); len(rem) != 12 {
		t.Fatalf("crc2 remainder length = %d, want 12", len(rem))
	}
}

func TestCrcRemainder_AllZeroDataGivesAllZeroRemainder(t *testing.T) {
	data := make([]byte, 61)
	rem := crcRemainder(data, crc1Generator)
	if !allZero(rem) {
		t.Errorf("all-zero data should XOR to an all-zero remainder, got %v", rem)
	}
}

// TestCheckCRC1_AllZeroRegionFails verifies the spec.md §4.4 special case:
// a frame whose entire CRC-1 region (data and remainder) is zero is
// treated as a failure, not a degenerate pass.
func TestCheckCRC1_AllZeroRegionFails(t *testing.T) {
	bits := make([]byte, 144)
	if checkCRC1(bits) {
		t.Errorf("an all-zero CRC-1 region should fail the check")
	}
}
