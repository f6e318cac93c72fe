package modem

import (
	"time"
)

// Acknowledgment tokens
const (
	TokenOK     = "OK\r\n"
	TokenSendOK = "SEND OK\r\n"
)

// Waiter blocks until the received stream ends with a token. It shares the
// line buffer with the LineAccumulator; a wait overwrites any partial line.
type Waiter struct {
	port    Port
	clock   Clock
	buf     *[LineBufferSize]byte
	n       int
	wrapped bool
}

// NewWaiter returns a waiter reading from port into buf.
func NewWaiter(port Port, clock Clock, buf *[LineBufferSize]byte) *Waiter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Waiter{port: port, clock: clock, buf: buf}
}

// Wait reads bytes until the tail of what was read equals token, or timeout
// elapses. It returns false on timeout, never earlier than timeout after the
// call started. An error is returned only when the port fails.
func (w *Waiter) Wait(token string, timeout time.Duration) (bool, error) {
	w.n = 0
	w.wrapped = false
	if token == "" {
		return true, nil
	}

	deadline := w.clock.Now().Add(timeout)
	tl := len(token)
	for w.clock.Now().Before(deadline) {
		if !w.port.Available() {
			continue
		}
		b, err := w.port.ReadByte()
		if err != nil {
			return false, err
		}

		if w.n == len(w.buf) {
			// Keep just enough of the tail to complete a match.
			keep := tl - 1
			if keep > w.n {
				keep = w.n
			}
			copy(w.buf[:keep], w.buf[w.n-keep:w.n])
			w.n = keep
			w.wrapped = true
		}

		w.buf[w.n] = b
		w.n++
		if w.n >= tl && string(w.buf[w.n-tl:w.n]) == token {
			return true, nil
		}
	}
	return false, nil
}

// Response returns the bytes read by the last Wait. When the wait outgrew the
// buffer only the tail is kept. The slice aliases the shared buffer.
func (w *Waiter) Response() []byte { return w.buf[:w.n] }

// Wrapped reports whether the last Wait discarded data to stay in bounds.
func (w *Waiter) Wrapped() bool { return w.wrapped }
