package modem

import (
	"strconv"

	"github.com/muurk/discojar/internal/logging"
	"go.uber.org/zap"
)

// ChunkSize is the largest payload passed to one AT+CIPSEND.
const ChunkSize = 1024

type sendResult struct {
	sent         int
	chunks       int
	acknowledged bool
	closed       bool
}

// servePage sends the control page on channel.
func (c *Core) servePage(channel int, out Outcome) (Outcome, error) {
	res, err := c.send(channel, c.page)
	if err != nil {
		return out, err
	}
	out.SentBytes = res.sent
	out.Chunks = res.chunks
	out.Responded = res.acknowledged
	out.Closed = res.closed
	if res.closed {
		out.Status = StatusPageFailed
	} else {
		out.Status = StatusPageServed
	}
	return out, nil
}

// send writes data in chunks of at most ChunkSize. Each chunk waits for the
// modem to accept AT+CIPSEND, then for SEND OK. If the modem does not accept
// a send the channel is closed and the rest of data is dropped.
func (c *Core) send(channel int, data []byte) (sendResult, error) {
	res := sendResult{acknowledged: true}
	for pos := 0; pos < len(data); {
		n := len(data) - pos
		if n > ChunkSize {
			n = ChunkSize
		}

		if err := c.command("AT+CIPSEND=", channel, n); err != nil {
			return res, err
		}
		ready, err := c.wait(TokenOK, c.timeouts.SendReady)
		if err != nil {
			return res, err
		}
		if !ready {
			logging.Warn("Modem did not accept send, closing channel",
				zap.Int("channel", channel),
				zap.Int("sent", res.sent),
				zap.Int("remaining", len(data)-pos),
			)
			res.acknowledged = false
			res.closed = true
			return res, c.command("AT+CIPCLOSE=", channel, -1)
		}

		if _, err := c.port.Write(data[pos : pos+n]); err != nil {
			return res, err
		}
		pos += n
		res.sent += n
		res.chunks++

		done, err := c.wait(TokenSendOK, c.timeouts.SendDone)
		if err != nil {
			return res, err
		}
		if !done {
			res.acknowledged = false
		}
	}
	return res, nil
}

// command writes "<prefix><channel>[,<length>]\r\n" from the scratch buffer.
// A negative length omits the second argument.
func (c *Core) command(prefix string, channel, length int) error {
	b := append(c.cmd[:0], prefix...)
	b = strconv.AppendInt(b, int64(channel), 10)
	if length >= 0 {
		b = append(b, ',')
		b = strconv.AppendInt(b, int64(length), 10)
	}
	b = append(b, '\r', '\n')
	logging.Debug("AT command", zap.ByteString("command", b[:len(b)-2]))
	_, err := c.port.Write(b)
	return err
}
