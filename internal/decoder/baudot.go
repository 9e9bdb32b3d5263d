package decoder

// baudotLetters is the ITA2/Baudot letters-shift table, grounded on the
// US-TTY table (NUL/LF/CR map to control positions that carry no text
// meaning here). Figure-shift is never used for beacon call signs, so
// spec.md's fallback character set (A-Z, space, dash, slash, '_') is
// reached by repurposing the two otherwise-unused shift codes (0x1B,
// 0x1F) as dash and slash; every other non-letter code falls back to
// '_'. Digits are not representable in letters-shift and are never
// produced by baudotDecode.
var baudotLetters = [32]byte{
	0: '_', 1: 'E', 2: '_', 3: 'A', 4: ' ', 5: 'S', 6: 'I', 7: 'U',
	8: '_', 9: 'D', 10: 'R', 11: 'J', 12: 'N', 13: 'F', 14: 'C', 15: 'K',
	16: 'T', 17: 'Z', 18: 'L', 19: 'W', 20: 'H', 21: 'Y', 22: 'P', 23: 'Q',
	24: 'O', 25: 'B', 26: 'G', 27: '-', 28: 'M', 29: 'X', 30: 'V', 31: '/',
}

// baudotDecode decodes a call sign from consecutive 5-bit ITA2 groups.
// Trailing bits that don't fill a full group are discarded.
func baudotDecode(bits []byte) string {
	n := len(bits) / 5
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		code := bitsToUint(bits[i*5 : i*5+5])
		out[i] = baudotLetters[code]
	}
	return string(out)
}
