package modem

import (
	"context"
	"fmt"
	"time"

	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/logging"
	"github.com/muurk/discojar/internal/page"
	"go.uber.org/zap"
)

// Default waits used while handling requests
const (
	DefaultSettleTimeout    = 1000 * time.Millisecond
	DefaultSendReadyTimeout = 2000 * time.Millisecond
	DefaultSendDoneTimeout  = 2000 * time.Millisecond
)

// Timeouts configures the request-time waits. Zero fields take the defaults.
type Timeouts struct {
	// Settle is the wait after a GET request line before the page is sent.
	// It drains the rest of the request headers.
	Settle time.Duration
	// SendReady is the wait for the modem to accept AT+CIPSEND.
	SendReady time.Duration
	// SendDone is the wait for SEND OK after the payload.
	SendDone time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Settle <= 0 {
		t.Settle = DefaultSettleTimeout
	}
	if t.SendReady <= 0 {
		t.SendReady = DefaultSendReadyTimeout
	}
	if t.SendDone <= 0 {
		t.SendDone = DefaultSendDoneTimeout
	}
	return t
}

// Config holds optional Core settings.
type Config struct {
	Clock    Clock
	Timeouts Timeouts

	// Page is the complete GET response (header and content). Defaults to
	// the embedded control page.
	Page []byte
}

// CarryState is the reassembly progress kept between deliveries.
// MissingBytes > 0 exactly when a body is in progress; BufferOffset is the
// number of body bytes stored so far.
type CarryState struct {
	MissingBytes int
	BufferOffset int
}

// Core is the protocol context: line and body buffers, carry-over counters
// and the lamp state it writes.
type Core struct {
	port     Port
	clock    Clock
	timeouts Timeouts

	line   [LineBufferSize]byte
	body   [BodyBufferSize]byte
	acc    *LineAccumulator
	waiter *Waiter

	carry     CarryState
	declared  int
	truncated bool
	bodyLen   int

	state *lamp.State
	page  []byte
	empty []byte
	cmd   [32]byte
}

// NewCore returns a Core reading from port and writing decoded
// configuration into state.
func NewCore(port Port, state *lamp.State, config Config) *Core {
	clock := config.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	pg := config.Page
	if pg == nil {
		pg = page.Response()
	}

	c := &Core{
		port:     port,
		clock:    clock,
		timeouts: config.Timeouts.withDefaults(),
		state:    state,
		page:     pg,
		empty:    page.EmptyResponse(),
	}
	c.acc = NewLineAccumulator(&c.line)
	c.waiter = NewWaiter(port, clock, &c.line)
	return c
}

// State returns the lamp state the Core writes.
func (c *Core) State() *lamp.State { return c.state }

// Carry returns the current reassembly counters.
func (c *Core) Carry() CarryState { return c.carry }

// Body returns the bytes collected by the last completed POST.
func (c *Core) Body() []byte { return c.body[:c.bodyLen] }

// terminator picks the framing policy for the next byte.
func (c *Core) terminator() Terminator {
	if c.carry.MissingBytes > 0 {
		return TerminateCRLFOrColon
	}
	return TerminateCRLF
}

// Tick reads at most one available byte and, when it completes a frame,
// handles that frame. Handling a request may block on the modem.
func (c *Core) Tick(ctx context.Context) (Outcome, error) {
	if !c.port.Available() {
		return Outcome{}, nil
	}
	b, err := c.port.ReadByte()
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to read from modem: %w", err)
	}

	frame, ok := c.acc.Push(b, c.terminator())
	if !ok {
		return Outcome{}, nil
	}

	out, err := c.dispatch(ctx, frame)
	if frame.Wrapped {
		out.LineOverflow = true
	}
	return out, err
}

// Run ticks until ctx is cancelled or the port fails. observe, when non-nil,
// is called on the same goroutine for every outcome other than StatusNone.
func (c *Core) Run(ctx context.Context, observe func(Outcome)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := c.Tick(ctx)
		if err != nil {
			return err
		}
		if out.Status == StatusNone {
			continue
		}
		logging.LogOutcome(out.Status.String(), out.Channel,
			zap.Int("length", out.Length),
			zap.Int("collected", out.Collected),
			zap.Int("missing", out.Missing),
			zap.Bool("truncated", out.Truncated),
			zap.Bool("line_overflow", out.LineOverflow),
		)
		if observe != nil {
			observe(out)
		}
	}
}

// wait runs the shared waiter and drops any partial line it overwrote.
func (c *Core) wait(token string, timeout time.Duration) (bool, error) {
	ok, err := c.waiter.Wait(token, timeout)
	c.acc.Reset()
	return ok, err
}
