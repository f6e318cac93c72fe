package lampclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/discojar/internal/lamp"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"192.168.1.42", "http://192.168.1.42:80"},
		{"192.168.1.42:8080", "http://192.168.1.42:8080"},
		{"http://192.168.1.42/", "http://192.168.1.42:80"},
		{"discojar.local", "http://discojar.local:80"},
		{"fe80::1", "http://[fe80::1]:80"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			c := NewClient(tt.address)
			if c.BaseURL != tt.want {
				t.Errorf("BaseURL = %s, want %s", c.BaseURL, tt.want)
			}
			if c.HTTPClient == nil || c.HTTPClient.Timeout != DefaultTimeout {
				t.Error("HTTPClient should use DefaultTimeout")
			}
			if c.MaxRetries != DefaultMaxRetries {
				t.Errorf("MaxRetries = %d", c.MaxRetries)
			}
		})
	}
}

func TestSetTimeoutAndRetry(t *testing.T) {
	c := NewClient("192.168.1.42")
	c.SetTimeout(5 * time.Second)
	c.SetRetry(5, 2*time.Second)

	if c.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.HTTPClient.Timeout)
	}
	if c.MaxRetries != 5 || c.RetryDelay != 2*time.Second {
		t.Errorf("retry = %d/%v", c.MaxRetries, c.RetryDelay)
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL)
	c.SetRetry(2, time.Millisecond)
	c.MaxRetryDelay = 5 * time.Millisecond
	return c
}

func TestApplySendsPacket(t *testing.T) {
	state := lamp.State{
		Mode:       lamp.ModeConfetti,
		Brightness: 200,
		Color0:     lamp.RGB{1, 2, 3},
		Color1:     lamp.RGB{4, 5, 6},
		Param0:     lamp.PageParam0,
		Param1:     lamp.PageParam1,
		Decay:      0.25,
		Gain:       100,
	}

	var got []byte
	var contentType string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		contentType = r.Header.Get("Content-Type")
		got, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Length", "0")
	}))

	if err := c.Apply(context.Background(), state); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if contentType != ContentType {
		t.Errorf("Content-Type = %q", contentType)
	}
	if len(got) != lamp.PacketSize {
		t.Fatalf("body is %d bytes, want %d", len(got), lamp.PacketSize)
	}
	pkt, err := lamp.DecodePacket(got)
	if err != nil {
		t.Fatal(err)
	}
	if pkt.State() != state {
		t.Errorf("decoded = %v, want %v", pkt.State(), state)
	}
}

func TestApplyRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}))

	if err := c.Apply(context.Background(), lamp.DefaultState()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestApplyGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := c.Apply(context.Background(), lamp.DefaultState())
	if err == nil {
		t.Fatal("Apply() should fail")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3 (1 + 2 retries)", calls.Load())
	}
	if devErr, ok := asDeviceError(err); !ok || devErr.StatusCode != 500 {
		t.Errorf("error = %v", err)
	}
}

func TestApplyDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))

	if err := c.Apply(context.Background(), lamp.DefaultState()); err == nil {
		t.Fatal("Apply() should fail")
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestApplyStopsOnCancel(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	c.RetryDelay = time.Hour
	c.MaxRetryDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := c.Apply(ctx, lamp.DefaultState()); err == nil {
		t.Fatal("Apply() should fail")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Apply() should return when the context ends")
	}
}

func TestFetchPage(t *testing.T) {
	page := "<html>lamp</html>"
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, page)
	}))

	got, err := c.FetchPage(context.Background())
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if string(got) != page {
		t.Errorf("FetchPage() = %q", got)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

// rawHandler writes resp on the hijacked connection and closes it.
func rawHandler(t *testing.T, resp string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer cannot hijack")
			return
		}
		conn, buf, err := hj.Hijack()
		if err != nil {
			t.Error(err)
			return
		}
		defer func() { _ = conn.Close() }()
		_, _ = buf.WriteString(resp)
		_ = buf.Flush()
	})
}

func TestFetchPageProtocolErrors(t *testing.T) {
	tests := []struct {
		name string
		resp string
		want string
	}{
		{
			name: "truncated body",
			resp: "HTTP/1.1 200 OK\r\nContent-Length: 100\r\nConnection: close\r\n\r\n<html>",
			want: "declared length",
		},
		{
			name: "no content length",
			resp: "HTTP/1.1 200 OK\r\nConnection: close\r\n\r\n<html></html>",
			want: "no Content-Length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, rawHandler(t, tt.resp))
			_, err := c.FetchPage(context.Background())
			devErr, ok := asDeviceError(err)
			if !ok {
				t.Fatalf("FetchPage() error = %v, want *DeviceError", err)
			}
			if devErr.Type != ErrTypeProtocol {
				t.Errorf("Type = %v, want %v", devErr.Type, ErrTypeProtocol)
			}
			if !strings.Contains(devErr.Message, tt.want) {
				t.Errorf("Message = %q, want it to contain %q", devErr.Message, tt.want)
			}
		})
	}
}

func TestPingConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c := NewClient(addr)
	err = c.Ping(context.Background())
	devErr, ok := asDeviceError(err)
	if !ok {
		t.Fatalf("Ping() error = %v, want *DeviceError", err)
	}
	if devErr.Type != ErrTypeConnectionRefused {
		t.Errorf("Type = %v, want %v", devErr.Type, ErrTypeConnectionRefused)
	}
}
