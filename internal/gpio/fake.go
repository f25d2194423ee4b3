package gpio

import (
	"errors"
	"sync"
)

// FakeReader is a test double that returns scripted GPIO values.
// It is safe to read from the sampling goroutine while a test inspects it.
type FakeReader struct {
	mu sync.Mutex

	// Samples contains scripted values to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// reads counts calls to Read
	reads int

	// closed tracks if Close was called
	closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// SetReadError changes the error returned by Read.
func (f *FakeReader) SetReadError(err error) {
	f.mu.Lock()
	f.ReadError = err
	f.mu.Unlock()
}

// Reads returns how many times Read was called.
func (f *FakeReader) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// Exhausted reports whether the last scripted sample has been returned.
func (f *FakeReader) Exhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Samples) > 0 && f.index == len(f.Samples)-1 && f.reads >= len(f.Samples)
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeReader) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.mu.Lock()
	f.index = 0
	f.reads = 0
	f.closed = false
	f.mu.Unlock()
}
