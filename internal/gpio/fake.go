package gpio

import "errors"

// FakeReader is a test double that returns scripted switch states and edges.
type FakeReader struct {
	// Samples contains scripted switch states to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error

	edges chan Edge
}

// Sample represents a single reading (already in logical form).
type Sample struct {
	Wheel bool // true = closed
	Crank bool // true = closed
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples, edges: make(chan Edge, edgeBuffer)}
}

const edgeBuffer = 256

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, bool, error) {
	if f.ReadError != nil {
		return false, false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.Wheel, sample.Crank, nil
}

// Emit queues an edge for Edges. It must not be called after Close.
func (f *FakeReader) Emit(e Edge) {
	f.edges <- e
}

// Edges returns the queued edges.
func (f *FakeReader) Edges() <-chan Edge {
	return f.edges
}

// Close marks the reader as closed and ends the edge stream.
func (f *FakeReader) Close() error {
	if !f.Closed {
		close(f.edges)
	}
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
}
