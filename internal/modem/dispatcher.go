package modem

import (
	"bytes"
	"context"

	"github.com/muurk/discojar/internal/logging"
	"go.uber.org/zap"
)

var (
	deliveryPrefix = []byte("+IPD,")
	getPrefix      = []byte("GET /")
	postPrefix     = []byte("POST /")
)

// DeliveryHeader is the parsed "+IPD,<channel>,<length>:" prefix.
type DeliveryHeader struct {
	Channel int
	Length  int
}

// ParseDeliveryHeader parses a frame that starts with "+IPD,". It returns
// the header and the index of the first payload byte. Extra fields some
// firmware adds before the colon (remote address and port) are ignored.
func ParseDeliveryHeader(frame []byte) (DeliveryHeader, int, bool) {
	if !bytes.HasPrefix(frame, deliveryPrefix) {
		return DeliveryHeader{}, 0, false
	}
	rest := frame[len(deliveryPrefix):]

	colon := bytes.IndexByte(rest, ':')
	if colon < 0 {
		return DeliveryHeader{}, 0, false
	}
	fields := rest[:colon]

	comma := bytes.IndexByte(fields, ',')
	if comma < 0 {
		return DeliveryHeader{}, 0, false
	}
	channel, ok := parseDecimal(fields[:comma])
	if !ok {
		return DeliveryHeader{}, 0, false
	}

	lengthField := fields[comma+1:]
	if i := bytes.IndexByte(lengthField, ','); i >= 0 {
		lengthField = lengthField[:i]
	}
	length, ok := parseDecimal(lengthField)
	if !ok || length <= 0 {
		return DeliveryHeader{}, 0, false
	}

	return DeliveryHeader{Channel: channel, Length: length}, len(deliveryPrefix) + colon + 1, true
}

// parseDecimal parses a non-negative decimal without allocating.
func parseDecimal(b []byte) (int, bool) {
	if len(b) == 0 || len(b) > 9 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// dispatch classifies one completed frame.
func (c *Core) dispatch(ctx context.Context, frame Frame) (Outcome, error) {
	data := frame.Data
	if !bytes.HasPrefix(data, deliveryPrefix) {
		return Outcome{Status: StatusDiscarded}, nil
	}

	hdr, start, ok := ParseDeliveryHeader(data)
	if !ok {
		logging.LogRawBytes("Malformed delivery header", data)
		return Outcome{Status: StatusMalformed}, nil
	}
	logging.LogDelivery(hdr.Channel, hdr.Length, c.carry.MissingBytes > 0)

	out := Outcome{Channel: hdr.Channel, Length: hdr.Length}

	// Whatever this delivery holds continues the body in progress.
	if c.carry.MissingBytes > 0 {
		return c.readPost(ctx, hdr.Channel, hdr.Length, out)
	}

	payload := data[start:]
	switch {
	case bytes.HasPrefix(payload, getPrefix):
		if _, err := c.wait(TokenOK, c.timeouts.Settle); err != nil {
			return out, err
		}
		return c.servePage(hdr.Channel, out)

	case bytes.HasPrefix(payload, postPrefix):
		c.carry = CarryState{}
		c.declared = 0
		c.truncated = false
		// The request line is already consumed as part of this frame.
		return c.readPost(ctx, hdr.Channel, hdr.Length-len(payload), out)
	}

	logging.Debug("Ignoring request",
		zap.Int("channel", hdr.Channel),
		zap.ByteString("payload", payload),
	)
	out.Status = StatusIgnored
	return out, nil
}
