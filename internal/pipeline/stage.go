package pipeline

import (
	"sync"

	"github.com/cospas-sarsat/beacon-core/internal/iq"
)

// OutBuf is the per-call output sink a stage writes its tagged sample
// stream and inline markers to (spec.md §6). A stage may be invoked
// repeatedly with fresh OutBufs; it must never retain one across calls.
type OutBuf struct {
	Samples []iq.Sample
	Markers []iq.Marker
}

// BurstStart appends a burst_start marker at the given running offset.
func (o *OutBuf) BurstStart(totalLen uint64, burstID string) {
	o.Markers = append(o.Markers, iq.Marker{Kind: iq.MarkerBurstStart, TotalLen: totalLen, BurstID: burstID})
}

// BurstEnd appends a burst_end marker at the given running offset.
func (o *OutBuf) BurstEnd(totalLen uint64, burstID string) {
	o.Markers = append(o.Markers, iq.Marker{Kind: iq.MarkerBurstEnd, TotalLen: totalLen, BurstID: burstID})
}

// Port is a named, bounded, single-consumer message channel modelling the
// source's "message port" concept (spec.md §6, §9): at-least-once delivery,
// owned by the producer. The stream-tag path (OutBuf markers) is
// authoritative for timing; a Port is a monitoring/consumption hook for
// collaborators that want whole-burst payloads instead of a tagged sample
// stream (spec.md §9, Open Question a).
type Port struct {
	name string
	ch   chan *iq.BurstBuffer
}

// NewPort creates a port with the given name and bounded capacity.
func NewPort(name string, capacity int) *Port {
	return &Port{name: name, ch: make(chan *iq.BurstBuffer, capacity)}
}

// Name returns the port's name, e.g. "bursts", "bursts_1g", "bursts_2g".
func (p *Port) Name() string { return p.name }

// Publish delivers a burst on the port. It blocks if the bounded channel is
// full, which is the mechanism that implements the back-pressure rule of
// spec.md §5: a producer with an undrained burst must not accept new input.
func (p *Port) Publish(b *iq.BurstBuffer) {
	p.ch <- b
}

// Chan exposes the receive side for a single consumer callback.
func (p *Port) Chan() <-chan *iq.BurstBuffer {
	return p.ch
}

// Close closes the port. Only the producer may call this.
func (p *Port) Close() {
	close(p.ch)
}

// Stats is the small, mutex-guarded counter block every stage owns. Per
// spec.md §5, statistics counters and the debug flag are the only fields an
// observer goroutine touches; the hot sample-processing path never shares
// state, so this type is deliberately minimal and cheap to lock.
type Stats struct {
	mu      sync.Mutex
	counts  map[string]uint64
}

// NewStats creates an empty counter block.
func NewStats() *Stats {
	return &Stats{counts: make(map[string]uint64)}
}

// Inc increments a named counter by one.
func (s *Stats) Inc(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[name]++
}

// Add increments a named counter by n.
func (s *Stats) Add(name string, n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[name] += n
}

// Get returns the current value of a named counter.
func (s *Stats) Get(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[name]
}

// Snapshot returns a copy of all counters, for reporting.
func (s *Stats) Snapshot() map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Reset clears all counters. Corresponds to a stage's reset_statistics()
// (spec.md §5): it clears counters only, never buffers or state machines.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[string]uint64)
}
