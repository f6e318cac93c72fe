package emulator

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/modem"
	"github.com/muurk/discojar/internal/page"
)

func startDevice(t *testing.T, cfg Config) *Device {
	t.Helper()
	dev, err := Listen(cfg)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { _ = dev.Close() })
	return dev
}

func bringUp(t *testing.T, dev *Device) []modem.CommandResult {
	t.Helper()
	results, err := modem.NewSequencer(dev, nil).Run(modem.StartupScript(80, 5))
	if err != nil {
		t.Fatalf("startup script error = %v", err)
	}
	return results
}

// runCore runs a core against dev and forwards its outcomes.
func runCore(t *testing.T, dev *Device, state *lamp.State) <-chan modem.Outcome {
	t.Helper()
	core := modem.NewCore(dev, state, modem.Config{
		Timeouts: modem.Timeouts{Settle: 50 * time.Millisecond},
	})

	ctx, cancel := context.WithCancel(context.Background())
	outcomes := make(chan modem.Outcome, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = core.Run(ctx, func(out modem.Outcome) {
			select {
			case outcomes <- out:
			default:
			}
		})
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return outcomes
}

func waitFor(t *testing.T, outcomes <-chan modem.Outcome, status modem.Status) modem.Outcome {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case out := <-outcomes:
			if out.Status == status {
				return out
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", status)
			return modem.Outcome{}
		}
	}
}

func TestDeviceStartupScript(t *testing.T) {
	dev := startDevice(t, Config{Networks: []string{"neighbour", "cafe"}})
	results := bringUp(t, dev)

	for _, r := range results {
		if !r.OK {
			t.Errorf("%s was not acknowledged: %q", r.Command.Text, r.Response)
		}
	}
	ip, ok := modem.StationIP(results)
	if !ok || ip != "127.0.0.1" {
		t.Errorf("StationIP() = %q, %v; want 127.0.0.1", ip, ok)
	}
}

func TestDeviceRejectsUnknownCommand(t *testing.T) {
	dev := startDevice(t, Config{})
	results, err := modem.NewSequencer(dev, nil).Run([]modem.Command{
		{Text: "AT+BOGUS", Timeout: 100 * time.Millisecond},
		{Text: "AT+CIPSEND=4,10", Timeout: 100 * time.Millisecond},
		{Text: "AT+CIPCLOSE=2", Timeout: 100 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, r := range results {
		if r.OK {
			t.Errorf("%s should fail, got %q", r.Command.Text, r.Response)
		}
	}
}

func TestDeviceRefusesConnectionsBeforeServer(t *testing.T) {
	dev := startDevice(t, Config{})

	conn, err := net.Dial("tcp", dev.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("Read() error = %v, want EOF", err)
	}
}

func TestEndToEndGetPage(t *testing.T) {
	dev := startDevice(t, Config{})
	bringUp(t, dev)
	state := lamp.DefaultState()
	outcomes := runCore(t, dev, &state)

	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
	resp, err := client.Get("http://" + dev.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if !bytes.Equal(body, page.Content()) {
		t.Errorf("body is %d bytes, want the %d byte page", len(body), len(page.Content()))
	}

	out := waitFor(t, outcomes, modem.StatusPageServed)
	if out.Chunks < 2 || !out.Responded {
		t.Errorf("Chunks = %d, Responded = %v", out.Chunks, out.Responded)
	}
}

func TestEndToEndPostConfig(t *testing.T) {
	dev := startDevice(t, Config{})
	bringUp(t, dev)
	state := lamp.DefaultState()
	outcomes := runCore(t, dev, &state)

	want := lamp.State{
		Mode:       lamp.ModeGradient,
		Brightness: 200,
		Color0:     lamp.RGB{0, 0, 255},
		Color1:     lamp.RGB{255, 128, 0},
		Param0:     lamp.PageParam0,
		Param1:     lamp.PageParam1,
		Decay:      0.75,
		Gain:       512,
	}
	pkt := lamp.PacketFromState(want).Encode()

	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
	resp, err := client.Post("http://"+dev.Addr().String()+"/", "application/octet-stream", bytes.NewReader(pkt[:]))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.ContentLength != 0 {
		t.Errorf("status = %d, length = %d; want 200, 0", resp.StatusCode, resp.ContentLength)
	}

	out := waitFor(t, outcomes, modem.StatusConfigApplied)
	if out.State != want {
		t.Errorf("applied state = %v, want %v", out.State, want)
	}
}

func TestEndToEndBodyAcrossSegments(t *testing.T) {
	dev := startDevice(t, Config{})
	bringUp(t, dev)
	state := lamp.DefaultState()
	outcomes := runCore(t, dev, &state)

	want := lamp.DefaultState()
	want.Mode = lamp.ModePlasma
	want.Brightness = 90
	pkt := lamp.PacketFromState(want).Encode()

	conn, err := net.Dial("tcp", dev.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	head := fmt.Sprintf("POST / HTTP/1.1\r\nHost: %s\r\nContent-Length: %d\r\n\r\n", dev.Addr(), len(pkt))
	if _, err := conn.Write(append([]byte(head), pkt[:7]...)); err != nil {
		t.Fatalf("write: %v", err)
	}
	pending := waitFor(t, outcomes, modem.StatusBodyPending)
	if pending.Missing < len(pkt)-7 || pending.Missing > len(pkt) {
		t.Errorf("Missing = %d, want at least %d", pending.Missing, len(pkt)-7)
	}

	if _, err := conn.Write(pkt[7:]); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	out := waitFor(t, outcomes, modem.StatusConfigApplied)
	if out.State != want {
		t.Errorf("applied state = %v, want %v", out.State, want)
	}
}

func TestCloseUnblocksReader(t *testing.T) {
	dev, err := Listen(Config{})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := dev.ReadByte()
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := dev.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case err := <-errc:
		if err != modem.ErrPortClosed {
			t.Errorf("ReadByte() error = %v, want ErrPortClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadByte() still blocked after Close")
	}
}
