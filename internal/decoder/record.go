// Package decoder implements the message decoder of spec.md §4.4: it
// turns a DemodulatedFrame into a BeaconRecord by running the CRC-1/CRC-2
// integrity checks, extracting country code and protocol, dispatching on
// the §6 protocol table, and formatting identification and position
// fields. A frame with failed integrity checks is still returned, marked
// (spec.md §4.4, §7) - decoding never aborts on data errors.
package decoder

import (
	"io"
	"log/slog"

	"github.com/cospas-sarsat/beacon-core/internal/fgb"
	"github.com/cospas-sarsat/beacon-core/internal/iq"
	"github.com/cospas-sarsat/beacon-core/internal/metrics"
	"github.com/cospas-sarsat/beacon-core/internal/pipeline"
)

// FrameKind mirrors spec.md §3's frame_kind.
type FrameKind string

const (
	FrameShort FrameKind = "short"
	FrameLong  FrameKind = "long"
	FrameSGB   FrameKind = "SGB"
)

// BeaconRecord is the fully decoded beacon message of spec.md §3.
type BeaconRecord struct {
	FrameKind      FrameKind
	ProtocolFlag   byte
	ProtocolCode   int
	Protocol       Protocol
	CountryCode    int
	Identification string
	BasePosition   *Position
	Offset         *Offset
	CompositePosition *Position
	Flags          Flags
	HexID          string
	Integrity      Integrity
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger attaches a logger; a discard logger is used by default.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Decoder) { d.logger = logger.With(slog.String("stage", "decoder")) }
}

// WithMetrics attaches a Prometheus exporter for the decoder's counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Decoder) { d.metrics = m }
}

// Decoder interprets demodulated frames into BeaconRecords.
type Decoder struct {
	logger  *slog.Logger
	stats   *pipeline.Stats
	metrics *metrics.Metrics
}

// New creates a Decoder.
func New(opts ...Option) *Decoder {
	d := &Decoder{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		stats:  pipeline.NewStats(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode turns a demodulated frame into a BeaconRecord. It never returns a
// nil record for a well-formed frame length; integrity failures are
// reported on the record, not via the error return. The error return is
// reserved for MalformedFrameError (frame.Len() not in {112,144}) on FGB
// frames - SGB frames carry no such invariant, since their frame length
// is fixed by the stub demodulator.
func (d *Decoder) Decode(frame *fgb.DemodulatedFrame) (*BeaconRecord, error) {
	if frame.Class == iq.ClassSGB {
		return d.decodeSGB(frame), nil
	}

	if frame.Len() != fgb.ShortFrameLen && frame.Len() != fgb.LongFrameLen {
		d.stats.Inc("malformed_frames")
		return nil, &pipeline.MalformedFrameError{Length: frame.Len()}
	}

	bits := frame.Bits
	isLong := frame.IsLong()

	if !bitSyncOK(bits) {
		d.logger.Warn("bit-sync mismatch")
	}
	if !frameSyncKnown(frame.FrameSync) {
		d.logger.Warn("frame-sync pattern not recognized", slog.String("pattern", string(frame.FrameSync)))
	}

	countryCode := int(bitsToUint(bits[26:36]))
	protocolFlag := bits[25]
	protocolCode := int(bitsToUint(bits[36:40]))
	dispatch := dispatchProtocol(isLong, protocolFlag, protocolCode)

	integ, integErr := evaluateIntegrity(bits, isLong)
	if integErr != nil {
		d.stats.Inc("integrity_failures")
		if d.metrics != nil {
			for _, c := range integErr.(*pipeline.IntegrityError).Checks {
				d.metrics.IntegrityFailure.WithLabelValues(string(c)).Inc()
			}
		}
	}

	rec := &BeaconRecord{
		ProtocolFlag: protocolFlag,
		ProtocolCode: protocolCode,
		Protocol:     dispatch.Protocol,
		CountryCode:  countryCode,
		Integrity:    integ,
		HexID:        hexID(bits[24:]),
	}

	if isLong {
		rec.FrameKind = FrameLong
		d.decodeLong(rec, dispatch, bits)
	} else {
		rec.FrameKind = FrameShort
		idBits := bits[40:85]
		rec.Identification = identification(dispatch, idBits)
	}

	d.stats.Inc("records_decoded")
	return rec, nil
}

// decodeLong fills in identification, base position, PDF-2 offset and
// flags for a long frame, one branch per dec406_v1g.c decode_* function:
// each protocol family packs its identification, position and flag
// fields at different bit offsets, so there is no single generic layout
// to share across them (see DESIGN.md).
func (d *Decoder) decodeLong(rec *BeaconRecord, dispatch Dispatch, bits []byte) {
	switch dispatch.Protocol {
	case ProtoStandardLocation, ProtoShipSecurity:
		idBits := bits[40:64]
		rec.Identification = identification(dispatch, idBits)
		base := standardBasePosition(bits[64:85])
		rec.BasePosition = &base
		flags, off := standardOffset(bits[106:132])
		rec.Flags = flags
		rec.Offset = &off
		comp := composite(base, off)
		rec.CompositePosition = &comp

	case ProtoNationalLocation:
		idBits := bits[40:58]
		rec.Identification = identification(dispatch, idBits)
		base := nationalBasePosition(bits[58:85])
		rec.BasePosition = &base
		if flags, off, ok := nationalOffset(bits[109:126]); ok {
			rec.Flags = flags
			rec.Offset = &off
			comp := composite(base, off)
			rec.CompositePosition = &comp
		} else {
			rec.CompositePosition = &base
		}

	case ProtoEltDt:
		idBits := bits[40:66]
		rec.Identification = identification(dispatch, idBits)
		base := halfDegreeBasePosition(bits[66:85])
		rec.BasePosition = &base
		flags, off, hasOffset := eltDtFlagsAndOffset(bits[106:132])
		rec.Flags = flags
		if hasOffset {
			rec.Offset = &off
			comp := composite(base, off)
			rec.CompositePosition = &comp
		} else {
			rec.CompositePosition = &base
		}

	case ProtoRlsLocation:
		idBits := bits[40:66]
		rec.Identification = identification(dispatch, idBits)
		base := halfDegreeBasePosition(bits[66:85])
		rec.BasePosition = &base
		rec.CompositePosition = &base // dec406_v1g.c decodes no PDF-2 offset for RLS

	case ProtoUserProtocol:
		idBits := bits[40:64]
		rec.Identification = identification(dispatch, idBits)
		positionSource, pos := userLocationPosition(bits[106:132])
		rec.Flags = Flags{PositionSource: positionSource}
		rec.CompositePosition = &pos // User-Location carries no PDF-1 base position

	default:
		idBits := bits[40:64]
		rec.Identification = identification(dispatch, idBits)
	}
}

// decodeSGB builds the minimal record spec.md §1 expects for a second-
// generation frame: the OQPSK-DSSS despreading and BCH decode are
// explicitly out of scope, so every SGB record is reported with a BCH
// integrity failure and no interpreted fields.
func (d *Decoder) decodeSGB(frame *fgb.DemodulatedFrame) *BeaconRecord {
	d.stats.Inc("records_decoded")
	return &BeaconRecord{
		FrameKind: FrameSGB,
		Protocol:  ProtoUnknown,
		Integrity: Integrity{BCHFail: true},
		HexID:     hexID(frame.Bits),
	}
}

func bitSyncOK(bits []byte) bool {
	for _, b := range bits[:fgb.BitSyncLen] {
		if b != 1 {
			return false
		}
	}
	return true
}

func frameSyncKnown(pattern fgb.FrameSyncPattern) bool {
	for _, p := range fgb.KnownFrameSyncPatterns {
		if p == pattern {
			return true
		}
	}
	return false
}
