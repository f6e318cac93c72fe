package modem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/muurk/discojar/internal/lamp"
)

// scriptPort is an in-memory modem. Bytes queued in in are read by the core;
// respond may queue replies for each write.
type scriptPort struct {
	in       []byte
	commands []string
	data     bytes.Buffer
	respond  func(p *scriptPort, written []byte) []byte
}

func (p *scriptPort) Available() bool { return len(p.in) > 0 }

func (p *scriptPort) ReadByte() (byte, error) {
	if len(p.in) == 0 {
		return 0, io.EOF
	}
	b := p.in[0]
	p.in = p.in[1:]
	return b, nil
}

func (p *scriptPort) Write(b []byte) (int, error) {
	if bytes.HasPrefix(b, []byte("AT")) {
		p.commands = append(p.commands, strings.TrimRight(string(b), "\r\n"))
	} else {
		p.data.Write(b)
	}
	if p.respond != nil {
		p.in = append(p.in, p.respond(p, b)...)
	}
	return len(b), nil
}

func (p *scriptPort) feed(chunks ...[]byte) {
	for _, c := range chunks {
		p.in = append(p.in, c...)
	}
}

// espResponder acknowledges sends the way ESP8266 AT firmware does.
func espResponder(p *scriptPort, written []byte) []byte {
	s := string(written)
	switch {
	case strings.HasPrefix(s, "AT+CIPSEND="):
		return []byte(s + "\r\nOK\r\n> ")
	case strings.HasPrefix(s, "AT+CIPCLOSE="):
		return []byte("0,CLOSED\r\n\r\nOK\r\n")
	case strings.HasPrefix(s, "AT"):
		return []byte(s + "\r\nOK\r\n")
	default:
		return []byte(fmt.Sprintf("\r\nRecv %d bytes\r\n\r\nSEND OK\r\n", len(written)))
	}
}

// stepClock advances by step on every reading.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: time.Millisecond}
}

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// delivery frames payload as an +IPD notification.
func delivery(channel int, payload []byte) []byte {
	head := fmt.Sprintf("\r\n+IPD,%d,%d:", channel, len(payload))
	return append([]byte(head), payload...)
}

func postHeader(contentLength int) []byte {
	return []byte(fmt.Sprintf("POST / HTTP/1.1\r\nHost: 192.168.1.42\r\nContent-Type: application/octet-stream\r\nContent-Length: %d\r\n\r\n", contentLength))
}

// scenarioPacket is mode=1, brightness=32, red/green, decay 0.4, gain 340.
func scenarioPacket() []byte {
	p := lamp.Packet{
		Mode:       lamp.ModeSpectrumWithPlasma,
		Brightness: 32,
		Color0:     lamp.Red,
		Color1:     lamp.Green,
		Decay:      0.4,
		Gain:       340,
	}
	b := p.Encode()
	return b[:]
}

func newTestCore(port *scriptPort, state *lamp.State) *Core {
	return NewCore(port, state, Config{Clock: newStepClock()})
}

// drain ticks until the port has no more input and returns every outcome
// other than StatusNone.
func drain(t *testing.T, core *Core, port *scriptPort) []Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var outs []Outcome
	for port.Available() {
		out, err := core.Tick(ctx)
		if err != nil {
			t.Fatalf("Tick() error = %v", err)
		}
		if out.Status != StatusNone {
			outs = append(outs, out)
		}
	}
	return outs
}

// last returns the last outcome with the given status.
func last(t *testing.T, outs []Outcome, status Status) Outcome {
	t.Helper()
	for i := len(outs) - 1; i >= 0; i-- {
		if outs[i].Status == status {
			return outs[i]
		}
	}
	t.Fatalf("no %s outcome in %v", status, outs)
	return Outcome{}
}
