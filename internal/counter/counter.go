// Package counter implements forward differencing of modular sensor counters,
// as reported by Bluetooth cycling speed and cadence sensors: a 32-bit
// cumulative revolution count and a 16-bit event time in 1/1024 s ticks.
package counter

import (
	"errors"
	"fmt"
	"time"
)

// Moduli of the counters found in speed and cadence measurements.
const (
	Uint16Modulus uint64 = 1 << 16
	Uint32Modulus uint64 = 1 << 32
)

// TicksPerSecond is the resolution of the 16-bit event time.
const TicksPerSecond = 1024

// TickPeriod is the time after which the 16-bit event time wraps.
const TickPeriod = time.Duration(Uint16Modulus) * time.Second / TicksPerSecond

var (
	// ErrCounterAmbiguous means the counter may have wrapped more than once
	// between two samples, so the difference cannot be trusted.
	ErrCounterAmbiguous = errors.New("counter: ambiguous wraparound")

	// ErrCounterBackwards means the counter decreased by more than a single
	// roll-over can explain.
	ErrCounterBackwards = errors.New("counter: went backwards")
)

// Diff returns (current - previous) mod modulus, assuming at most one wrap.
// It never fails; callers reject impossible sequences first.
func Diff(current, previous, modulus uint64) uint64 {
	current %= modulus
	previous %= modulus
	if current >= previous {
		return current - previous
	}
	return modulus - previous + current
}

// TickElapsed converts the difference of two 16-bit event times into a
// duration. observed is the wall-clock gap between receiving the two samples;
// once it reaches a full counter period a second wrap cannot be ruled out and
// ErrCounterAmbiguous is returned. A zero or negative observed gap is not
// checked, since samples may be delivered in a burst.
func TickElapsed(current, previous uint16, observed time.Duration) (time.Duration, error) {
	if observed >= TickPeriod {
		return 0, fmt.Errorf("%w: %v between samples exceeds %v", ErrCounterAmbiguous, observed, TickPeriod)
	}
	ticks := Diff(uint64(current), uint64(previous), Uint16Modulus)
	return time.Duration(ticks) * time.Second / TicksPerSecond, nil
}

// RevolutionsDiff returns the number of revolutions between two cumulative
// 32-bit counts. A decrease is accepted as a roll-over only when the implied
// forward difference is at most maxPlausible.
func RevolutionsDiff(current, previous uint32, maxPlausible uint64) (uint64, error) {
	d := Diff(uint64(current), uint64(previous), Uint32Modulus)
	if current < previous && d > maxPlausible {
		return 0, fmt.Errorf("%w: %d -> %d", ErrCounterBackwards, previous, current)
	}
	return d, nil
}

// Ticks converts a timestamp on any monotonic clock to the 16-bit event
// time, wrapping every TickPeriod.
func Ticks(at time.Duration) uint16 {
	secs := at / time.Second
	frac := at % time.Second
	return uint16(int64(secs)*TicksPerSecond + int64(frac)*TicksPerSecond/int64(time.Second))
}
