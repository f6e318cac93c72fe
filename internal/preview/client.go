package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/muurk/discojar/internal/lamp"
)

// State converts the snapshot back to a lamp state. Null floats become NaN.
func (s Snapshot) State() lamp.State {
	st := lamp.State{
		Mode:       lamp.Mode(s.Mode),
		Brightness: byte(s.Brightness),
		Param0:     byte(s.Param0),
		Param1:     byte(s.Param1),
		Decay:      float32(math.NaN()),
		Gain:       float32(math.NaN()),
	}
	st.Color0, _ = lamp.ParseRGB(s.Color0)
	st.Color1, _ = lamp.ParseRGB(s.Color1)
	if s.Decay != nil {
		st.Decay = float32(*s.Decay)
	}
	if s.Gain != nil {
		st.Gain = float32(*s.Gain)
	}
	return st
}

// Watch connects to the preview server at addr ("host:port") and calls fn
// for every snapshot until ctx is done, the server goes away or fn returns
// an error. A server shutdown ends the watch without error.
func Watch(ctx context.Context, addr string, fn func(Snapshot) error) error {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to preview server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var snap Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("preview server closed the stream: %w", err)
			}
			return fmt.Errorf("preview stream failed: %w", err)
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}

// Fetch returns the current snapshot from the preview server at addr.
func Fetch(ctx context.Context, addr string) (Snapshot, error) {
	var snap Snapshot
	u := url.URL{Scheme: "http", Host: addr, Path: "/state"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return snap, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return snap, fmt.Errorf("failed to reach preview server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return snap, fmt.Errorf("preview server returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, fmt.Errorf("invalid preview state: %w", err)
	}
	return snap, nil
}

// Reader reads lamp states from a preview server.
type Reader struct {
	Addr string
}

// CurrentState returns the state of the latest snapshot.
func (r Reader) CurrentState(ctx context.Context) (lamp.State, error) {
	snap, err := Fetch(ctx, r.Addr)
	if err != nil {
		return lamp.State{}, err
	}
	return snap.State(), nil
}
