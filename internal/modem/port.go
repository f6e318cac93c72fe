package modem

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrPortClosed is returned by ports after Close.
var ErrPortClosed = errors.New("modem port closed")

// Port is the byte link to the modem.
type Port interface {
	io.Writer

	// Available reports whether ReadByte can return without blocking. A port
	// with a pending error also reports true so that ReadByte surfaces it.
	Available() bool

	// ReadByte returns the next received byte, blocking until one arrives.
	ReadByte() (byte, error)
}

// Clock is the time source for timeouts.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// readBlocking waits for the next byte with no timeout. The context only
// exists so a shutting-down process can leave a stalled modem behind.
func readBlocking(ctx context.Context, p Port) (byte, error) {
	for !p.Available() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
	return p.ReadByte()
}
