package gpio

import (
	"errors"
	"testing"
)

func TestFakeReaderRead(t *testing.T) {
	samples := []Sample{
		{A: true, B: false},
		{A: false, B: true},
		{A: true, B: true, Pressed: true},
	}

	f := NewFakeReader(samples)

	for i, want := range samples {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("sample %d: got %+v, want %+v", i, got, want)
		}
	}

	// Exhausted reader repeats the last sample
	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != samples[2] {
		t.Errorf("sample 3 (repeat): got %+v, want %+v", got, samples[2])
	}
	if !f.Exhausted() {
		t.Error("expected reader to report exhausted")
	}
	if f.Reads() != 4 {
		t.Errorf("Reads: got %d, want 4", f.Reads())
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	_, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
	if f.Exhausted() {
		t.Error("empty reader should not report exhausted")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Sample{{A: true, B: true}})
	f.SetReadError(errors.New("simulated error"))

	_, err := f.Read()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}

	f.SetReadError(nil)
	if _, err := f.Read(); err != nil {
		t.Errorf("unexpected error after clearing: %v", err)
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]Sample{{A: true, B: true}})

	if f.Closed() {
		t.Error("should not be closed initially")
	}

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed() {
		t.Error("should be closed after Close()")
	}
}

func TestFakeReaderReset(t *testing.T) {
	samples := []Sample{
		{A: true, B: false},
		{A: false, B: true},
	}

	f := NewFakeReader(samples)

	// Consume first sample
	f.Read()

	f.Reset()

	got, _ := f.Read()
	if got != samples[0] {
		t.Errorf("after reset: got %+v, want %+v", got, samples[0])
	}
	if f.Reads() != 1 {
		t.Errorf("Reads after reset: got %d, want 1", f.Reads())
	}
}
