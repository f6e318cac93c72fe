package emulator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/discojar/internal/logging"
	"go.uber.org/zap"
)

const (
	replyOK    = "\r\nOK\r\n"
	replyError = "\r\nERROR\r\n"

	firmwareVersion = "AT version:1.2.0.0(Jul  1 2016 20:04:45)\r\n" +
		"SDK version:1.5.4.1(39cb9a32)\r\n" +
		"compile time:Dec 25 2016 14:21:15\r\n"
)

// handle answers one AT command line.
func (d *Device) handle(cmd string) {
	d.mu.Lock()
	echo := d.echo
	d.mu.Unlock()

	var out strings.Builder
	if echo {
		out.WriteString(cmd)
		out.WriteString("\r\r\n")
	}

	name, arg, _ := strings.Cut(cmd, "=")
	switch {
	case cmd == "AT":
		out.WriteString(replyOK)

	case cmd == "ATE0" || cmd == "ATE1":
		d.mu.Lock()
		d.echo = cmd == "ATE1"
		d.mu.Unlock()
		out.WriteString(replyOK)

	case name == "AT+CIPMUX":
		d.reply(&out, arg == "1")

	case name == "AT+CIPSERVER":
		mode, _, _ := strings.Cut(arg, ",")
		d.mu.Lock()
		d.serving = mode == "1"
		d.mu.Unlock()
		out.WriteString(replyOK)

	case name == "AT+CIPSTO":
		secs, err := strconv.Atoi(arg)
		if err == nil && secs >= 0 && secs <= 7200 {
			d.mu.Lock()
			d.idle = time.Duration(secs) * time.Second
			d.mu.Unlock()
		}
		d.reply(&out, err == nil)

	case cmd == "AT+GMR":
		out.WriteString(firmwareVersion)
		out.WriteString("OK\r\n")

	case cmd == "AT+CWMODE?":
		out.WriteString("+CWMODE:1\r\n")
		out.WriteString(replyOK)

	case cmd == "AT+CWJAP?":
		fmt.Fprintf(&out, "+CWJAP:\"%s\",\"18:fe:34:00:00:01\",6,-58\r\n", d.cfg.SSID)
		out.WriteString(replyOK)

	case cmd == "AT+CIPSTA?":
		fmt.Fprintf(&out, "+CIPSTA:ip:\"%s\"\r\n", d.cfg.StationIP)
		fmt.Fprintf(&out, "+CIPSTA:gateway:\"%s\"\r\n", gateway(d.cfg.StationIP))
		out.WriteString("+CIPSTA:netmask:\"255.255.255.0\"\r\n")
		out.WriteString(replyOK)

	case cmd == "AT+CIFSR":
		fmt.Fprintf(&out, "+CIFSR:STAIP,\"%s\"\r\n", d.cfg.StationIP)
		out.WriteString("+CIFSR:STAMAC,\"18:fe:34:00:00:01\"\r\n")
		out.WriteString(replyOK)

	case cmd == "AT+CWLAP":
		fmt.Fprintf(&out, "+CWLAP:(3,\"%s\",-58,\"18:fe:34:00:00:01\",6)\r\n", d.cfg.SSID)
		for i, ssid := range d.cfg.Networks {
			fmt.Fprintf(&out, "+CWLAP:(4,\"%s\",%d,\"02:00:00:00:00:%02x\",%d)\r\n", ssid, -70-i, i+2, 1+i%11)
		}
		out.WriteString(replyOK)

	case name == "AT+CIPSEND":
		d.startSend(&out, arg)

	case name == "AT+CIPCLOSE":
		d.closeChannel(&out, arg)

	default:
		logging.Debug("Emulator rejecting command", zap.String("command", cmd))
		out.WriteString(replyError)
	}

	d.enqueue(out.String())
}

func (d *Device) reply(out *strings.Builder, ok bool) {
	if ok {
		out.WriteString(replyOK)
	} else {
		out.WriteString(replyError)
	}
}

// startSend accepts "AT+CIPSEND=<ch>,<n>" and routes the next n written
// bytes to the connection.
func (d *Device) startSend(out *strings.Builder, arg string) {
	chArg, nArg, ok := strings.Cut(arg, ",")
	id, err1 := strconv.Atoi(chArg)
	n, err2 := strconv.Atoi(nArg)
	if !ok || err1 != nil || err2 != nil || n <= 0 || n > maxSendLength {
		out.WriteString(replyError)
		return
	}

	ch := d.lookup(id)
	if ch == nil {
		out.WriteString("link is not valid\r\n")
		out.WriteString(replyError)
		return
	}

	d.sendTo = ch
	d.sendLeft = n
	d.sendBuf = make([]byte, 0, n)
	out.WriteString(replyOK)
	out.WriteString("> ")
}

// closeChannel handles "AT+CIPCLOSE=<ch>".
func (d *Device) closeChannel(out *strings.Builder, arg string) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		out.WriteString(replyError)
		return
	}
	ch := d.lookup(id)
	if ch == nil || !d.detach(ch) {
		out.WriteString(replyError)
		return
	}
	_ = ch.conn.Close()
	fmt.Fprintf(out, "%d,CLOSED\r\n", id)
	out.WriteString(replyOK)
}

// gateway guesses the .1 address of ip's /24.
func gateway(ip string) string {
	if i := strings.LastIndexByte(ip, '.'); i >= 0 {
		return ip[:i] + ".1"
	}
	return ip
}
