package app

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestSampleSource_InterleavedFloat32(t *testing.T) {
	var buf bytes.Buffer
	for _, v := range []float32{1, -1, 0.5, -0.5} {
		binary.Write(&buf, binary.LittleEndian, v)
	}

	path := writeTempFile(t, buf.Bytes())
	src, err := OpenSampleSource(path, InputInterleavedFloat32)
	if err != nil {
		t.Fatalf("OpenSampleSource: %v", err)
	}
	defer src.Close()

	samples, err := src.Next(10)
	if err != nil && err != io.EOF {
		t.Fatalf("Next: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if real(complex128(samples[0])) != 1 || imag(complex128(samples[0])) != -1 {
		t.Errorf("sample 0 = %v, want (1,-1)", samples[0])
	}
	if math.Abs(real(complex128(samples[1]))-0.5) > 1e-9 {
		t.Errorf("sample 1 real = %v, want 0.5", real(complex128(samples[1])))
	}
}

func TestSampleSource_InterleavedInt16(t *testing.T) {
	var buf bytes.Buffer
	for _, v := range []int16{16384, -16384} { // 0.5, -0.5 scaled
		binary.Write(&buf, binary.LittleEndian, v)
	}

	path := writeTempFile(t, buf.Bytes())
	src, err := OpenSampleSource(path, InputInterleavedInt16)
	if err != nil {
		t.Fatalf("OpenSampleSource: %v", err)
	}
	defer src.Close()

	samples, err := src.Next(10)
	if err != nil && err != io.EOF {
		t.Fatalf("Next: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(samples))
	}
	if math.Abs(real(complex128(samples[0]))-0.5) > 1e-6 {
		t.Errorf("real = %v, want 0.5", real(complex128(samples[0])))
	}
}

func TestSampleSource_ExhaustsWithEOF(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, float32(1))
	binary.Write(&buf, binary.LittleEndian, float32(2)) // one complex sample: (1, 2)

	path := writeTempFile(t, buf.Bytes())
	src, err := OpenSampleSource(path, InputInterleavedFloat32)
	if err != nil {
		t.Fatalf("OpenSampleSource: %v", err)
	}
	defer src.Close()

	samples, err := src.Next(1)
	if err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("first Next returned %d samples, want 1", len(samples))
	}
	if _, err := src.Next(1); err != io.EOF {
		t.Fatalf("second Next error = %v, want io.EOF", err)
	}
}

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iq.bin")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}
