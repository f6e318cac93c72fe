package modem

import (
	"bytes"
	"context"

	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/logging"
	"go.uber.org/zap"
)

var contentLengthPrefix = []byte("Content-Length: ")

// readPost collects a POST body. available is the number of delivery bytes
// not yet consumed. With no body in progress it first scans the request
// headers for Content-Length up to the empty line; then it copies body
// bytes. When the delivery ends before the body does, the carry state is
// kept for the next delivery and StatusBodyPending is returned.
func (c *Core) readPost(ctx context.Context, channel, available int, out Outcome) (Outcome, error) {
	want := c.carry.MissingBytes

	if want == 0 {
		malformed := false
		for {
			frame, err := c.readFrame(ctx)
			if err != nil {
				return out, err
			}
			if frame.Wrapped {
				out.LineOverflow = true
			}
			available -= len(frame.Data)

			if bytes.HasPrefix(frame.Data, contentLengthPrefix) {
				value := bytes.TrimRight(frame.Data[len(contentLengthPrefix):], "\r\n ")
				if n, ok := parseDecimal(value); ok {
					want = n
				} else {
					logging.LogRawBytes("Unparsable Content-Length", frame.Data)
					malformed = true
				}
			}
			if len(frame.Data) > 0 && frame.Data[0] == '\r' {
				break
			}
		}
		if malformed {
			// Body bytes stay on the stream and are discarded as plain lines.
			c.carry = CarryState{}
			out.Status = StatusMalformed
			return out, nil
		}
		c.declared = want
	}

	take := want
	if available < take {
		take = available
	}
	if take < 0 {
		take = 0
	}

	offset := c.carry.BufferOffset
	for i := 0; i < take; i++ {
		b, err := readBlocking(ctx, c.port)
		if err != nil {
			return out, err
		}
		if offset < BodyBufferSize {
			c.body[offset] = b
			offset++
		} else {
			c.truncated = true
		}
	}

	out.Declared = c.declared
	out.Collected = offset
	out.Truncated = c.truncated

	if missing := want - take; missing > 0 {
		c.carry = CarryState{MissingBytes: missing, BufferOffset: offset}
		out.Status = StatusBodyPending
		out.Missing = missing
		return out, nil
	}

	c.carry = CarryState{}
	c.bodyLen = offset
	if c.truncated {
		logging.Warn("POST body truncated",
			zap.Int("declared", c.declared),
			zap.Int("stored", offset),
			zap.Int("capacity", BodyBufferSize),
		)
	}

	if pkt, err := lamp.DecodePacket(c.body[:offset]); err == nil {
		logging.LogRawBytes("Configuration packet", c.body[:lamp.PacketSize])
		pkt.Apply(c.state)
		out.Status = StatusConfigApplied
		out.State = *c.state
		logging.LogLampState(c.state.String())
	} else {
		out.Status = StatusBodyShort
		logging.Warn("POST body too short to decode",
			zap.Int("collected", offset),
			zap.Error(err),
		)
	}

	res, err := c.send(channel, c.empty)
	if err != nil {
		return out, err
	}
	out.SentBytes = res.sent
	out.Chunks = res.chunks
	out.Responded = res.acknowledged
	out.Closed = res.closed
	return out, nil
}

// readFrame blocks until the next CRLF-terminated line.
func (c *Core) readFrame(ctx context.Context) (Frame, error) {
	for {
		b, err := readBlocking(ctx, c.port)
		if err != nil {
			return Frame{}, err
		}
		if frame, ok := c.acc.Push(b, TerminateCRLF); ok {
			return frame, nil
		}
	}
}
