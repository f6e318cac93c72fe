package modem

// Buffer capacities
const (
	LineBufferSize = 1024
	BodyBufferSize = 100
)

// Terminator selects which byte patterns end a frame.
type Terminator int

const (
	// TerminateCRLF ends a frame on "\r\n".
	TerminateCRLF Terminator = iota
	// TerminateCRLFOrColon also ends a frame on ':'. It is used while a POST
	// body is in progress, because the payload after a delivery header's
	// colon is raw body data that may itself contain CRLF.
	TerminateCRLFOrColon
)

// Frame is a completed line. Data aliases the accumulator buffer and is
// only valid until the next Push or Waiter call.
type Frame struct {
	Data []byte

	// Wrapped is set when the line outgrew the buffer. The index wrapped to
	// zero and the bytes before the wrap were lost.
	Wrapped bool
}

// LineAccumulator collects bytes until a terminator.
type LineAccumulator struct {
	buf     *[LineBufferSize]byte
	n       int
	wrapped bool
}

// NewLineAccumulator returns an accumulator writing into buf.
func NewLineAccumulator(buf *[LineBufferSize]byte) *LineAccumulator {
	return &LineAccumulator{buf: buf}
}

// Push appends b and reports whether a frame was completed.
func (a *LineAccumulator) Push(b byte, term Terminator) (Frame, bool) {
	a.buf[a.n] = b
	a.n++

	done := term == TerminateCRLFOrColon && b == ':'
	if !done && a.n > 1 && a.buf[a.n-2] == '\r' && b == '\n' {
		done = true
	}

	if done {
		f := Frame{Data: a.buf[:a.n], Wrapped: a.wrapped}
		a.n = 0
		a.wrapped = false
		return f, true
	}

	if a.n == len(a.buf) {
		a.n = 0
		a.wrapped = true
	}
	return Frame{}, false
}

// Len returns the number of bytes buffered for the current line.
func (a *LineAccumulator) Len() int { return a.n }

// Reset discards any partial line.
func (a *LineAccumulator) Reset() {
	a.n = 0
	a.wrapped = false
}
