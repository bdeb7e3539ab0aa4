//go:build linux

package gpio

import (
	"fmt"
	"log"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const edgeQueue = 64

// RealReader watches the reed switches on actual hardware using the Linux
// GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	wheel *gpiocdev.Line
	crank *gpiocdev.Line
	lines map[int]Line
	edges chan Edge
}

// NewRealReader requests the wheel and crank lines on chipName. A pin of
// Disabled skips that line. The kernel debounces each line by debounce.
func NewRealReader(chipName string, wheelPin, crankPin int, debounce time.Duration) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	r := &RealReader{
		chip:  chip,
		lines: make(map[int]Line),
		edges: make(chan Edge, edgeQueue),
	}

	if wheelPin != Disabled {
		r.wheel, err = r.request(wheelPin, LineWheel, debounce)
		if err != nil {
			r.Close()
			return nil, err
		}
	}
	if crankPin != Disabled {
		r.crank, err = r.request(crankPin, LineCrank, debounce)
		if err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

func (r *RealReader) request(pin int, line Line, debounce time.Duration) (*gpiocdev.Line, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(r.handle),
	}
	if debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(debounce))
	}
	l, err := r.chip.RequestLine(pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("request %s pin %d: %w", line, pin, err)
	}
	r.lines[pin] = line
	return l, nil
}

// handle runs on the gpiocdev watcher goroutine.
func (r *RealReader) handle(evt gpiocdev.LineEvent) {
	line, ok := r.lines[evt.Offset]
	if !ok {
		return
	}
	select {
	case r.edges <- Edge{Line: line, At: evt.Timestamp}:
	default:
		log.Printf("gpio: edge queue full, dropping %s edge", line)
	}
}

// Edges returns the channel of switch closures.
func (r *RealReader) Edges() <-chan Edge {
	return r.edges
}

// Read returns the logical switch states.
// Inverts raw GPIO: raw inactive (0) = closed, raw active (1) = open.
func (r *RealReader) Read() (bool, bool, error) {
	wheel, err := readClosed(r.wheel)
	if err != nil {
		return false, false, fmt.Errorf("read wheel pin: %w", err)
	}
	crank, err := readClosed(r.crank)
	if err != nil {
		return false, false, fmt.Errorf("read crank pin: %w", err)
	}
	return wheel, crank, nil
}

func readClosed(l *gpiocdev.Line) (bool, error) {
	if l == nil {
		return false, nil
	}
	v, err := l.Value()
	if err != nil {
		return false, err
	}
	return v == 0, nil
}

// Close releases GPIO resources.
// Reconfigures lines to plain inputs with pull-down (matching Pi boot
// defaults) before closing.
func (r *RealReader) Close() error {
	var errs []error

	for _, l := range []*gpiocdev.Line{r.wheel, r.crank} {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", l.Offset(), err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", l.Offset(), err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
