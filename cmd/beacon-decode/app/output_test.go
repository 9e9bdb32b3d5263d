package app

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cospas-sarsat/beacon-core/internal/decoder"
)

func TestJSONLineSink_WritesOneObjectPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ndjson")
	sink, err := OpenSink(path)
	if err != nil {
		t.Fatalf("OpenSink: %v", err)
	}

	events := []DecodedEvent{
		{BurstID: "a", CaptureOffset: 10, Record: &decoder.BeaconRecord{FrameKind: decoder.FrameShort}},
		{BurstID: "b", CaptureOffset: 20, Record: &decoder.BeaconRecord{FrameKind: decoder.FrameLong}},
	}
	for _, ev := range events {
		if err := sink.Write(ev); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var got []DecodedEvent
	for scanner.Scan() {
		var ev DecodedEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2", len(got))
	}
	if got[0].BurstID != "a" || got[1].BurstID != "b" {
		t.Errorf("got = %+v", got)
	}
}
