package decoder

// crc1Generator and crc2Generator are the two generator polynomials of
// spec.md §4.4, expressed MSB-first as 0/1 bit strings. The remainder of
// dividing a protected data field by a generator is always
// (len(generator)-1) bits, which is how the CRC-1/CRC-2 bit ranges in
// spec.md §4.4 were chosen over the inconsistent ranges given in §6: a
// 22-bit generator can only leave a 21-bit remainder, and a 13-bit
// generator only a 12-bit one.
const (
	crc1Generator = "1001101101100111100011" // 22 bits -> 21-bit remainder
	crc2Generator = "1010100111001"          // 13 bits -> 12-bit remainder
)

// crcRemainder computes the mod-2 polynomial-division remainder of data
// against generator using the standard XOR long-division shift register:
// data is conceptually padded with len(generator)-1 zero bits, and every
// data position whose running register bit is 1 XORs the generator into
// the following len(generator) positions.
func crcRemainder(data []byte, generator string) []byte {
	gen := make([]byte, len(generator))
	for i, c := range generator {
		if c == '1' {
			gen[i] = 1
		}
	}

	k := len(gen) - 1
	work := make([]byte, len(data)+k)
	copy(work, data)
	for i := 0; i < len(data); i++ {
		if work[i] == 1 {
			for j, g := range gen {
				work[i+j] ^= g
			}
		}
	}
	return work[len(data):]
}

// allZero reports whether every bit in the slice is 0.
func allZero(bits []byte) bool {
	for _, b := range bits {
		if b != 0 {
			return false
		}
	}
	return true
}
