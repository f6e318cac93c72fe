package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/muurk/discojar/internal/discovery"
	"github.com/muurk/discojar/internal/emulator"
	"github.com/muurk/discojar/internal/lamp"
	"github.com/muurk/discojar/internal/logging"
	"github.com/muurk/discojar/internal/modem"
	"github.com/muurk/discojar/internal/preview"
	"github.com/muurk/discojar/internal/version"
	"go.uber.org/zap"
)

// Config holds the server configuration
type Config struct {
	Device      string // Serial device path
	Baud        int
	Emulate     string // Listen address for the modem emulator; replaces Device when set
	ServerPort  int    // TCP port the modem listens on
	IdleTimeout int    // Modem connection idle timeout in seconds
	BootDelay   time.Duration
	PreviewAddr string // Preview listen address (empty = disabled)
	Advertise   bool   // Announce the lamp over mDNS
	Instance    string // mDNS instance name
	LogLevel    string
	Timeouts    modem.Timeouts

	// Port, when set, is used instead of opening Device or Emulate.
	Port modem.Port

	// OnOutcome is called on the core goroutine after every handled frame.
	OnOutcome func(modem.Outcome)
}

// Server runs one lamp: the modem bring-up followed by the request loop.
type Server struct {
	config *Config

	port   modem.Port
	closer io.Closer
	state  lamp.State
	core   *modem.Core

	mu        sync.Mutex
	results   []modem.CommandResult
	stationIP string
	hub       *preview.Hub
	adv       *discovery.Advertisement
	ready     chan struct{}
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if config.Port == nil && config.Device == "" && config.Emulate == "" {
		return nil, errors.New("no modem: set a serial device or an emulator address")
	}

	return &Server{
		config: config,
		state:  lamp.DefaultState(),
		ready:  make(chan struct{}),
	}, nil
}

// Start runs the server and blocks until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := s.Run(ctx)
	if ctx.Err() != nil {
		logging.Info("Shutdown signal received, server stopped")
	}
	return err
}

// Run brings the modem up and handles requests until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	if err := s.openPort(); err != nil {
		return err
	}

	logging.Info("Starting DiscoJar server",
		zap.String("modem", s.portName()),
		zap.Int("server_port", s.config.ServerPort),
		zap.Duration("boot_delay", s.config.BootDelay),
	)

	if err := sleep(ctx, s.config.BootDelay); err != nil {
		return nil
	}

	seq := modem.NewSequencer(s.port, nil)
	results, err := seq.Run(modem.StartupScript(s.config.ServerPort, s.config.IdleTimeout))
	if err != nil {
		return fmt.Errorf("modem startup failed: %w", err)
	}
	ip, ok := modem.StationIP(results)

	s.mu.Lock()
	s.results = results
	s.stationIP = ip
	s.mu.Unlock()

	if ok {
		logging.Info("Modem joined network", zap.String("ip", ip))
	} else {
		logging.Warn("Modem reported no station address")
	}

	if s.config.Advertise {
		s.advertise(ip, ok)
	}

	if s.config.PreviewAddr != "" {
		hub := preview.NewHub(s.state)
		if _, err := hub.Start(s.config.PreviewAddr); err != nil {
			return err
		}
		s.mu.Lock()
		s.hub = hub
		s.mu.Unlock()
	}

	s.core = modem.NewCore(s.port, &s.state, modem.Config{Timeouts: s.config.Timeouts})
	close(s.ready)

	err = s.core.Run(ctx, s.observe)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Ready is closed once the modem is configured and requests are served.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// StartupResults returns the outcome of each startup command.
func (s *Server) StartupResults() []modem.CommandResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]modem.CommandResult(nil), s.results...)
}

// StationIP returns the address the modem reported, if any.
func (s *Server) StationIP() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stationIP
}

// Preview returns the preview hub, or nil when disabled.
func (s *Server) Preview() *preview.Hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub
}

func (s *Server) observe(out modem.Outcome) {
	if out.Status == modem.StatusConfigApplied {
		if hub := s.Preview(); hub != nil {
			hub.Publish(out.State)
		}
	}
	if s.config.OnOutcome != nil {
		s.config.OnOutcome(out)
	}
}

func (s *Server) openPort() error {
	switch {
	case s.config.Port != nil:
		s.port = s.config.Port
	case s.config.Emulate != "":
		dev, err := emulator.Listen(emulator.Config{Addr: s.config.Emulate})
		if err != nil {
			return err
		}
		s.port, s.closer = dev, dev
	default:
		sp, err := modem.OpenSerial(s.config.Device, s.config.Baud)
		if err != nil {
			return err
		}
		s.port, s.closer = sp, sp
	}
	return nil
}

func (s *Server) portName() string {
	if n, ok := s.port.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}

func (s *Server) advertise(ip string, ok bool) {
	if !ok {
		logging.Warn("Skipping mDNS advertisement: no lamp address")
		return
	}
	adv, err := discovery.Advertise(s.config.Instance, ip, s.config.ServerPort, version.Short())
	if err != nil {
		logging.Error("mDNS advertisement failed", zap.Error(err))
		return
	}
	logging.Info("Advertising lamp over mDNS",
		zap.String("instance", adv.Instance),
		zap.String("host", adv.Host),
		zap.String("ip", adv.IP),
		zap.Int("port", adv.Port),
	)
	s.mu.Lock()
	s.adv = adv
	s.mu.Unlock()
}

// Shutdown withdraws the advertisement, stops the preview and closes the
// modem port. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.mu.Lock()
	adv, hub, closer := s.adv, s.hub, s.closer
	s.adv, s.hub, s.closer = nil, nil, nil
	s.mu.Unlock()

	adv.Shutdown()
	if hub != nil {
		if err := hub.Close(); err != nil {
			logging.Error("Error closing preview server", zap.Error(err))
		}
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			logging.Error("Error closing modem port", zap.Error(err))
		}
	}

	logging.Sync()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
