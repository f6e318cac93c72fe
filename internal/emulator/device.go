package emulator

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/muurk/discojar/internal/logging"
	"github.com/muurk/discojar/internal/modem"
	"go.uber.org/zap"
)

// Module limits
const (
	MaxChannels        = 5
	DefaultMaxDelivery = 1460
	maxSendLength      = 2048
	pollInterval       = 5 * time.Millisecond
)

// Config configures a Device. Zero fields take defaults.
type Config struct {
	// Addr is the TCP listen address.
	Addr string

	// MaxDelivery caps the payload of one +IPD notification.
	MaxDelivery int

	// StationIP is reported by AT+CIFSR. Defaults to the listener's host.
	StationIP string

	// SSID is reported by AT+CWJAP? and listed by AT+CWLAP.
	SSID string

	// Networks are extra access points listed by AT+CWLAP.
	Networks []string
}

type channel struct {
	id   int
	conn net.Conn
}

// Device is a virtual ESP8266. The server side talks to it through the
// modem.Port methods; clients reach it over TCP.
type Device struct {
	cfg Config
	ln  net.Listener

	mu      sync.Mutex
	in      []byte
	ready   chan struct{}
	closed  bool
	echo    bool
	serving bool
	idle    time.Duration
	chans   [MaxChannels]*channel

	// Writer side, only touched from Write.
	line     []byte
	sendTo   *channel
	sendLeft int
	sendBuf  []byte

	wg sync.WaitGroup
}

// Listen starts a Device accepting connections on cfg.Addr.
func Listen(cfg Config) (*Device, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	if cfg.MaxDelivery <= 0 {
		cfg.MaxDelivery = DefaultMaxDelivery
	}
	if cfg.SSID == "" {
		cfg.SSID = "discojar"
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	if cfg.StationIP == "" {
		cfg.StationIP = "127.0.0.1"
		if tcp, ok := ln.Addr().(*net.TCPAddr); ok && !tcp.IP.IsUnspecified() {
			cfg.StationIP = tcp.IP.String()
		}
	}

	d := &Device{
		cfg:   cfg,
		ln:    ln,
		ready: make(chan struct{}, 1),
		echo:  true,
	}

	d.wg.Add(1)
	go d.acceptLoop()

	logging.Info("Modem emulator listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("station_ip", cfg.StationIP),
	)
	return d, nil
}

// Addr returns the listen address.
func (d *Device) Addr() net.Addr { return d.ln.Addr() }

// Name identifies the device in logs.
func (d *Device) Name() string { return "emulator:" + d.ln.Addr().String() }

// Close stops the listener and drops every connection.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	var conns []net.Conn
	for i, ch := range d.chans {
		if ch != nil {
			conns = append(conns, ch.conn)
			d.chans[i] = nil
		}
	}
	d.mu.Unlock()

	err := d.ln.Close()
	for _, c := range conns {
		_ = c.Close()
	}
	d.signal()
	d.wg.Wait()
	return err
}

// Available reports whether a byte is queued, waiting briefly for one.
func (d *Device) Available() bool {
	if d.pending() {
		return true
	}
	t := time.NewTimer(pollInterval)
	defer t.Stop()
	select {
	case <-d.ready:
	case <-t.C:
	}
	return d.pending()
}

func (d *Device) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.in) > 0 || d.closed
}

// ReadByte returns the next byte the module would put on its UART.
func (d *Device) ReadByte() (byte, error) {
	for {
		d.mu.Lock()
		if len(d.in) > 0 {
			b := d.in[0]
			d.in = d.in[1:]
			d.mu.Unlock()
			return b, nil
		}
		if d.closed {
			d.mu.Unlock()
			return 0, modem.ErrPortClosed
		}
		d.mu.Unlock()
		<-d.ready
	}
}

// Write takes bytes the server sends to the module: AT command lines, or
// payload after an accepted AT+CIPSEND.
func (d *Device) Write(p []byte) (int, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return 0, modem.ErrPortClosed
	}

	for i := 0; i < len(p); i++ {
		if d.sendLeft > 0 {
			n := len(p) - i
			if n > d.sendLeft {
				n = d.sendLeft
			}
			d.sendBuf = append(d.sendBuf, p[i:i+n]...)
			d.sendLeft -= n
			i += n - 1
			if d.sendLeft == 0 {
				d.flushSend()
			}
			continue
		}

		d.line = append(d.line, p[i])
		if n := len(d.line); n >= 2 && d.line[n-2] == '\r' && d.line[n-1] == '\n' {
			cmd := string(d.line[:n-2])
			d.line = d.line[:0]
			d.handle(cmd)
		}
	}
	return len(p), nil
}

// flushSend forwards a completed CIPSEND payload to its connection.
func (d *Device) flushSend() {
	ch, data := d.sendTo, d.sendBuf
	d.sendTo, d.sendBuf = nil, nil

	if _, err := ch.conn.Write(data); err != nil {
		logging.Warn("Emulator send failed", zap.Int("channel", ch.id), zap.Error(err))
		d.enqueue("\r\nSEND FAIL\r\n")
		return
	}
	d.enqueue("\r\nRecv " + strconv.Itoa(len(data)) + " bytes\r\n\r\nSEND OK\r\n")
}

// enqueue queues module output for the server.
func (d *Device) enqueue(parts ...string) {
	d.mu.Lock()
	for _, s := range parts {
		d.in = append(d.in, s...)
	}
	d.mu.Unlock()
	d.signal()
}

func (d *Device) signal() {
	select {
	case d.ready <- struct{}{}:
	default:
	}
}

func (d *Device) acceptLoop() {
	defer d.wg.Done()
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				logging.Warn("Emulator accept failed", zap.Error(err))
			}
			return
		}

		ch := d.attach(conn)
		if ch == nil {
			_ = conn.Close()
			continue
		}
		logging.LogConnection(conn.RemoteAddr().String(), "connect")

		d.wg.Add(1)
		go d.readLoop(ch)
	}
}

// attach assigns conn the lowest free channel, or returns nil when the
// server is not enabled or every channel is taken.
func (d *Device) attach(conn net.Conn) *channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || !d.serving {
		return nil
	}
	for i := range d.chans {
		if d.chans[i] == nil {
			ch := &channel{id: i, conn: conn}
			d.chans[i] = ch
			d.in = append(d.in, strconv.Itoa(i)+",CONNECT\r\n"...)
			d.signal()
			return ch
		}
	}
	return nil
}

// detach frees ch and reports whether it was still attached.
func (d *Device) detach(ch *channel) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.chans[ch.id] != ch {
		return false
	}
	d.chans[ch.id] = nil
	return true
}

func (d *Device) readLoop(ch *channel) {
	defer d.wg.Done()
	buf := make([]byte, d.cfg.MaxDelivery)
	for {
		d.mu.Lock()
		idle := d.idle
		d.mu.Unlock()
		if idle > 0 {
			_ = ch.conn.SetReadDeadline(time.Now().Add(idle))
		}

		n, err := ch.conn.Read(buf)
		if n > 0 {
			d.enqueue("\r\n+IPD,"+strconv.Itoa(ch.id)+","+strconv.Itoa(n)+":", string(buf[:n]))
		}
		if err != nil {
			if d.detach(ch) {
				_ = ch.conn.Close()
				d.enqueue(strconv.Itoa(ch.id) + ",CLOSED\r\n")
				logging.LogConnection(ch.conn.RemoteAddr().String(), "disconnect")
			}
			return
		}
	}
}

// lookup returns the connection on channel id.
func (d *Device) lookup(id int) *channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id < 0 || id >= MaxChannels {
		return nil
	}
	return d.chans[id]
}
