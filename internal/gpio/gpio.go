// Package gpio counts wheel and crank revolutions from reed switches wired to
// GPIO lines. The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Line identifies which sensor an input belongs to.
type Line int

const (
	LineWheel Line = iota
	LineCrank
)

func (l Line) String() string {
	switch l {
	case LineWheel:
		return "wheel"
	case LineCrank:
		return "crank"
	default:
		return "unknown"
	}
}

// Disabled is the pin number that leaves a line unrequested.
const Disabled = -1

// Reader reads the instantaneous level of the reed switches.
type Reader interface {
	// Read returns the logical states of the wheel and crank switches.
	// The lines are pulled up, so a closed switch reads low: raw 0 = logical closed.
	// A disabled line always reads open.
	Read() (wheelClosed, crankClosed bool, err error)

	// Close releases GPIO resources.
	Close() error
}

// Edge is a switch closure reported by the kernel.
type Edge struct {
	Line Line
	// At is the kernel's monotonic event timestamp. Only differences matter.
	At time.Duration
}

// EdgeSource delivers switch closures.
type EdgeSource interface {
	Edges() <-chan Edge
}
