package modem

import (
	"fmt"

	"github.com/muurk/discojar/internal/lamp"
)

// Status classifies what a Core step did.
type Status int

const (
	// StatusNone means no frame was completed.
	StatusNone Status = iota
	// StatusDiscarded means the frame was not a delivery notification.
	StatusDiscarded
	// StatusMalformed means the delivery header, or a POST Content-Length,
	// could not be parsed. Nothing is sent back.
	StatusMalformed
	// StatusIgnored means the request was neither GET / nor POST /.
	StatusIgnored
	// StatusPageServed means the control page was sent.
	StatusPageServed
	// StatusPageFailed means the modem did not accept a send and the channel was closed.
	StatusPageFailed
	// StatusBodyPending means part of a POST body arrived; the rest is expected in later deliveries.
	StatusBodyPending
	// StatusConfigApplied means a complete body was decoded into the lamp state.
	StatusConfigApplied
	// StatusBodyShort means a body completed with fewer bytes than a packet; the state is unchanged.
	StatusBodyShort
)

// String returns a snake_case status name for logs.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusDiscarded:
		return "discarded"
	case StatusMalformed:
		return "malformed"
	case StatusIgnored:
		return "ignored"
	case StatusPageServed:
		return "page_served"
	case StatusPageFailed:
		return "page_failed"
	case StatusBodyPending:
		return "body_pending"
	case StatusConfigApplied:
		return "config_applied"
	case StatusBodyShort:
		return "body_short"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the observable result of one Core step.
type Outcome struct {
	Status  Status
	Channel int
	Length  int // delivery length from the +IPD header

	// Body reassembly
	Declared  int  // Content-Length of the POST
	Collected int  // bytes stored in the body buffer
	Missing   int  // bytes still expected after this delivery
	Truncated bool // body exceeded BodyBufferSize; the excess was consumed but not stored

	// Responses
	SentBytes int
	Chunks    int
	Responded bool // every chunk of the response was acknowledged with SEND OK
	Closed    bool // AT+CIPCLOSE was issued after a send-ready timeout

	// LineOverflow is set when a line outgrew the line buffer and wrapped.
	LineOverflow bool

	// State is the lamp state after StatusConfigApplied.
	State lamp.State
}

// String returns a debug representation of the outcome.
func (o Outcome) String() string {
	switch o.Status {
	case StatusNone, StatusDiscarded, StatusMalformed:
		return fmt.Sprintf("Outcome{%s, overflow=%v}", o.Status, o.LineOverflow)
	case StatusBodyPending:
		return fmt.Sprintf("Outcome{%s, ch=%d, collected=%d, missing=%d, truncated=%v}",
			o.Status, o.Channel, o.Collected, o.Missing, o.Truncated)
	case StatusConfigApplied, StatusBodyShort:
		return fmt.Sprintf("Outcome{%s, ch=%d, declared=%d, collected=%d, truncated=%v, responded=%v}",
			o.Status, o.Channel, o.Declared, o.Collected, o.Truncated, o.Responded)
	default:
		return fmt.Sprintf("Outcome{%s, ch=%d, len=%d, sent=%d, chunks=%d, closed=%v}",
			o.Status, o.Channel, o.Length, o.SentBytes, o.Chunks, o.Closed)
	}
}
