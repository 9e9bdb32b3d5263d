package detector

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cospas-sarsat/beacon-core/internal/config"
	"github.com/cospas-sarsat/beacon-core/internal/iq"
	"github.com/cospas-sarsat/beacon-core/internal/pipeline"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SampleRate = 1000
	cfg.CalibrationDurationMS = 500 // 500 samples
	cfg.SilenceLimitMS = 20         // 20 samples
	cfg.MinBurstDurationMS = 100    // 100 samples
	cfg.ThresholdFactor = 3
	return cfg
}

func noise(n int, amp float64, r *rand.Rand) []iq.Sample {
	out := make([]iq.Sample, n)
	for i := range out {
		out[i] = iq.Sample(complex(amp*(r.Float64()-0.5), amp*(r.Float64()-0.5)))
	}
	return out
}

func carrier(n int, amp float64) []iq.Sample {
	out := make([]iq.Sample, n)
	for i := range out {
		out[i] = iq.Sample(complex(amp, 0))
	}
	return out
}

func TestDetector_EmptyStream(t *testing.T) {
	d := New(testConfig())
	r := rand.New(rand.NewSource(1))

	bursts := d.Feed(noise(10_000, 0.001, r), nil)
	if len(bursts) != 0 {
		t.Fatalf("expected no bursts from noise, got %d", len(bursts))
	}
	if d.BurstsDetected() != 0 {
		t.Fatalf("expected bursts_detected=0, got %d", d.BurstsDetected())
	}
}

func TestDetector_SingleBurst(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)
	r := rand.New(rand.NewSource(2))

	var stream []iq.Sample
	stream = append(stream, noise(600, 0.001, r)...) // calibration + lead-in silence
	stream = append(stream, carrier(300, 1.0)...)     // burst, well above threshold
	stream = append(stream, noise(50, 0.001, r)...)   // trailing silence, triggers close

	out := &pipeline.OutBuf{}
	bursts := d.Feed(stream, out)

	if len(bursts) != 1 {
		t.Fatalf("expected exactly 1 burst, got %d", len(bursts))
	}

	b := bursts[0]
	if b.Len() < cfg.MinBurstSamples() {
		t.Errorf("burst length %d below configured minimum %d", b.Len(), cfg.MinBurstSamples())
	}
	// The burst must include the carrier plus at least the silence-limit
	// worth of trailing samples (it is never trimmed, spec.md §4.1).
	if b.Len() < 300+cfg.SilenceLimitSamples() {
		t.Errorf("burst length %d does not include full trailing silence run", b.Len())
	}

	if d.BurstsDetected() != 1 {
		t.Errorf("expected bursts_detected=1, got %d", d.BurstsDetected())
	}

	var starts, ends int
	for _, m := range out.Markers {
		switch m.Kind {
		case iq.MarkerBurstStart:
			starts++
		case iq.MarkerBurstEnd:
			ends++
		}
	}
	if starts != 1 || ends != 1 {
		t.Errorf("expected 1 start/1 end marker, got %d/%d", starts, ends)
	}
}

func TestDetector_BurstTooShortDiscarded(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)
	r := rand.New(rand.NewSource(3))

	var stream []iq.Sample
	stream = append(stream, noise(600, 0.001, r)...)
	stream = append(stream, carrier(10, 1.0)...) // far shorter than MinBurstSamples
	stream = append(stream, noise(50, 0.001, r)...)

	bursts := d.Feed(stream, nil)
	if len(bursts) != 0 {
		t.Fatalf("expected the short burst to be discarded, got %d bursts", len(bursts))
	}
	if d.BurstsTooShort() != 1 {
		t.Errorf("expected bursts_too_short=1, got %d", d.BurstsTooShort())
	}
}

func TestDetector_ResetStateIsIdempotent(t *testing.T) {
	d := New(testConfig())
	r := rand.New(rand.NewSource(4))
	d.Feed(noise(600, 0.001, r), nil)
	d.Feed(carrier(200, 1.0), nil)

	d.ResetState()
	if d.Calibrated() {
		t.Errorf("expected calibration cleared after ResetState")
	}

	d.ResetState() // second call must be a no-op, not panic or change behaviour
	if d.Calibrated() {
		t.Errorf("expected calibration to remain cleared after second ResetState")
	}
}

func TestDetector_ResetStatisticsClearsCountersOnly(t *testing.T) {
	cfg := testConfig()
	d := New(cfg)
	r := rand.New(rand.NewSource(5))
	d.Feed(noise(600, 0.001, r), nil)
	d.Feed(carrier(300, 1.0), nil)
	d.Feed(noise(50, 0.001, r), nil)

	if d.BurstsDetected() != 1 {
		t.Fatalf("setup: expected 1 burst detected before reset")
	}

	d.ResetStatistics()
	if d.BurstsDetected() != 0 {
		t.Errorf("expected counters cleared after ResetStatistics")
	}
	if !d.Calibrated() {
		t.Errorf("ResetStatistics must not clear calibration state")
	}
}

func TestAutocorrFeatureRespondsToPeriodicStructure(t *testing.T) {
	const lag = 10
	f := newAutocorrFeature(lag)

	// Feed a DC carrier: autocorrelation at any lag should saturate near
	// the carrier's own power once the window fills.
	var last float64
	for i := 0; i < 4*lag; i++ {
		last = f.push(iq.Sample(complex(1, 0)))
	}
	if math.Abs(last-1.0) > 1e-9 {
		t.Errorf("expected autocorrelation magnitude ~1.0 for a unit DC carrier, got %v", last)
	}
}
