package smooth

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestNewInvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -1, -25} {
		b, err := New(c)
		if !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("New(%d): got err %v, want ErrInvalidCapacity", c, err)
		}
		if b != nil {
			t.Errorf("New(%d): expected nil buffer", c)
		}
	}
}

func TestEmptyBuffer(t *testing.T) {
	b, err := New(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Average() != 0 {
		t.Errorf("Average: got %v, want 0", b.Average())
	}
	avg, v := b.AverageAndVariance()
	if avg != 0 || v != 0 {
		t.Errorf("AverageAndVariance: got (%v, %v), want (0, 0)", avg, v)
	}
	if b.IsFull() {
		t.Error("empty buffer should not be full")
	}
}

func TestIsFullAfterCapacityPushes(t *testing.T) {
	const capacity = 4
	b, _ := New(capacity)
	for i := 0; i < capacity; i++ {
		if b.IsFull() {
			t.Fatalf("full after %d pushes, want full only after %d", i, capacity)
		}
		b.Push(float64(i))
	}
	if !b.IsFull() {
		t.Errorf("not full after %d pushes", capacity)
	}
	b.Push(99)
	if !b.IsFull() {
		t.Error("should stay full after eviction")
	}
	if b.Len() != capacity {
		t.Errorf("Len: got %d, want %d", b.Len(), capacity)
	}
}

func TestAverageIsMeanOfLastN(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		values   []float64
	}{
		{"partial", 5, []float64{1, 2, 3}},
		{"exact", 3, []float64{4, 5, 6}},
		{"wrapped once", 3, []float64{1, 2, 3, 10, 20}},
		{"wrapped many", 4, []float64{9, 8, 7, 6, 5, 4, 3, 2, 1, 0, -1}},
		{"capacity one", 1, []float64{3, 7, 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := New(tt.capacity)
			for _, v := range tt.values {
				b.Push(v)
			}
			start := len(tt.values) - tt.capacity
			if start < 0 {
				start = 0
			}
			window := tt.values[start:]
			want := stat.Mean(window, nil)
			if got := b.Average(); math.Abs(got-want) > 1e-12 {
				t.Errorf("Average: got %v, want %v", got, want)
			}

			var sq float64
			for _, v := range window {
				sq += (v - want) * (v - want)
			}
			wantVar := sq / float64(len(window))
			avg, variance := b.AverageAndVariance()
			if math.Abs(avg-want) > 1e-12 {
				t.Errorf("AverageAndVariance avg: got %v, want %v", avg, want)
			}
			if math.Abs(variance-wantVar) > 1e-9 {
				t.Errorf("AverageAndVariance variance: got %v, want %v", variance, wantVar)
			}
		})
	}
}

func TestResetClears(t *testing.T) {
	b, _ := New(3)
	b.Push(1)
	b.Push(2)
	b.Push(3)
	b.Reset()

	if b.IsFull() {
		t.Error("should not be full after reset")
	}
	if b.Len() != 0 {
		t.Errorf("Len: got %d, want 0", b.Len())
	}
	b.Push(10)
	if b.Average() != 10 {
		t.Errorf("Average after reset: got %v, want 10", b.Average())
	}
}

func TestConstantSeriesHasZeroVariance(t *testing.T) {
	b, _ := New(25)
	for i := 0; i < 40; i++ {
		b.Push(1234.567)
	}
	_, v := b.AverageAndVariance()
	if v != 0 {
		t.Errorf("variance: got %v, want 0", v)
	}
}

func TestMustNew(t *testing.T) {
	if got := MustNew(3).Capacity(); got != 3 {
		t.Errorf("Capacity: got %d, want 3", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustNew(0) should panic")
		}
	}()
	MustNew(0)
}
