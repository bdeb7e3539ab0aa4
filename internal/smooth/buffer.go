// Package smooth provides the fixed-size sliding window used to average out
// sensor noise. It is pure and not safe for concurrent use.
package smooth

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidCapacity is returned when a buffer is constructed with capacity < 1.
var ErrInvalidCapacity = errors.New("smooth: capacity must be at least 1")

// Buffer is a fixed-capacity ring of the most recent samples.
// Once full, each Push evicts the oldest sample.
type Buffer struct {
	buf   []float64
	head  int // next write position
	count int
}

// New creates an empty buffer holding at most capacity samples.
func New(capacity int) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &Buffer{buf: make([]float64, capacity)}, nil
}

// MustNew is like New but panics on an invalid capacity. It is meant for
// constant capacities.
func MustNew(capacity int) *Buffer {
	b, err := New(capacity)
	if err != nil {
		panic(err)
	}
	return b
}

// Reset discards all held samples.
func (b *Buffer) Reset() {
	b.head = 0
	b.count = 0
}

// Push appends x, overwriting the oldest sample when the buffer is full.
func (b *Buffer) Push(x float64) {
	b.buf[b.head] = x
	b.head = (b.head + 1) % len(b.buf)
	if b.count < len(b.buf) {
		b.count++
	}
}

// IsFull reports whether capacity samples have been pushed since the last Reset.
func (b *Buffer) IsFull() bool {
	return b.count == len(b.buf)
}

// Len returns the number of samples currently held.
func (b *Buffer) Len() int {
	return b.count
}

// Capacity returns the maximum number of samples held.
func (b *Buffer) Capacity() int {
	return len(b.buf)
}

// Average returns the mean of the held samples, or 0 when empty.
func (b *Buffer) Average() float64 {
	if b.count == 0 {
		return 0
	}
	return floats.Sum(b.held()) / float64(b.count)
}

// AverageAndVariance returns the mean and population variance of the held
// samples. Variance is E[x²] - E[x]², clamped at zero.
func (b *Buffer) AverageAndVariance() (float64, float64) {
	if b.count == 0 {
		return 0, 0
	}
	held := b.held()
	n := float64(b.count)
	avg := floats.Sum(held) / n
	variance := floats.Dot(held, held)/n - avg*avg
	if variance < 0 {
		variance = 0
	}
	return avg, variance
}

// held returns the occupied slots. Until the first wrap, writes start at
// index 0, so the occupied region is always the prefix of length count.
func (b *Buffer) held() []float64 {
	return b.buf[:b.count]
}
