package app

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cospas-sarsat/beacon-core/internal/iq"
)

// SampleSource reads chunks of complex samples from an external capture,
// the "external source" spec.md §3 Lifecycles names as the producer
// samples are consumed from. It satisfies the Runner's need for a bounded
// read call without the core ever importing an I/O package (spec.md §1:
// radio-front-end control is an explicit Non-goal).
type SampleSource struct {
	r      *bufio.Reader
	closer io.Closer
	format InputFormat
	buf    []byte
}

// OpenSampleSource opens path (or stdin, for "-"/"") and wraps it to yield
// fixed-size chunks of iq.Sample.
func OpenSampleSource(path string, format InputFormat) (*SampleSource, error) {
	var rc io.ReadCloser
	if path == "" || path == "-" {
		rc = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening IQ source %q: %w", path, err)
		}
		rc = f
	}

	switch format {
	case InputInterleavedFloat32, InputInterleavedInt16:
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}

	return &SampleSource{r: bufio.NewReaderSize(rc, 1<<20), closer: rc, format: format}, nil
}

// bytesPerSample returns the encoded byte width of one complex sample.
func (s *SampleSource) bytesPerSample() int {
	switch s.format {
	case InputInterleavedInt16:
		return 4 // 2 x int16
	default:
		return 8 // 2 x float32
	}
}

// Next reads up to n samples, returning fewer at end of stream and io.EOF
// once nothing more is available. A short, non-empty read is not an
// error: the caller (Runner) feeds whatever it gets to the detector.
func (s *SampleSource) Next(n int) ([]iq.Sample, error) {
	width := s.bytesPerSample()
	need := n * width
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	read, err := io.ReadFull(s.r, buf)
	if read == 0 {
		return nil, err
	}
	// A partial final chunk (ErrUnexpectedEOF) still yields whatever
	// whole samples it contains.
	whole := read / width
	buf = buf[:whole*width]

	samples := make([]iq.Sample, whole)
	for i := 0; i < whole; i++ {
		chunk := buf[i*width : (i+1)*width]
		switch s.format {
		case InputInterleavedInt16:
			re := int16(binary.LittleEndian.Uint16(chunk[0:2]))
			im := int16(binary.LittleEndian.Uint16(chunk[2:4]))
			samples[i] = iq.Sample(complex(float64(re)/32768, float64(im)/32768))
		default:
			re := math.Float32frombits(binary.LittleEndian.Uint32(chunk[0:4]))
			im := math.Float32frombits(binary.LittleEndian.Uint32(chunk[4:8]))
			samples[i] = iq.Sample(complex(float64(re), float64(im)))
		}
	}

	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return samples, err
}

// Close releases the underlying file, if any (stdin is never closed).
func (s *SampleSource) Close() error {
	if s.closer == os.Stdin {
		return nil
	}
	return s.closer.Close()
}
