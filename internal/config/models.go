package config

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/muurk/discojar/internal/lamp"
)

// Defaults for the modem bring-up
const (
	DefaultBaudRate    = 115200
	DefaultServerPort  = 80
	DefaultIdleTimeout = 30   // seconds, AT+CIPSTO
	DefaultBootDelayMS = 5000 // module power-up time
	DefaultInstance    = "DiscoJar"
)

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                `yaml:"version"`
	Modem       *ModemSettings     `yaml:"modem,omitempty"`
	Server      *ServerSettings    `yaml:"server,omitempty"`
	Lamps       map[string]*Lamp   `yaml:"lamps,omitempty"` // Keyed by user-chosen name
	Presets     map[string]*Preset `yaml:"presets,omitempty"`
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// ModemSettings configures the link to the ESP8266.
type ModemSettings struct {
	Device      string `yaml:"device,omitempty"`  // Serial device path, e.g. /dev/ttyUSB0
	Baud        int    `yaml:"baud"`              // UART speed
	ServerPort  int    `yaml:"server_port"`       // TCP port passed to AT+CIPSERVER
	IdleTimeout int    `yaml:"idle_timeout"`      // Seconds passed to AT+CIPSTO
	BootDelayMS int    `yaml:"boot_delay_ms"`     // Wait before the first AT command
	Emulate     string `yaml:"emulate,omitempty"` // Listen address for the emulated module
}

// ServerSettings configures the optional surfaces around the core.
type ServerSettings struct {
	PreviewAddr string `yaml:"preview_addr,omitempty"` // Empty disables the preview server
	Advertise   bool   `yaml:"advertise"`              // Announce the lamp over mDNS
	Instance    string `yaml:"instance"`               // mDNS instance name
}

// Lamp is a saved lamp endpoint.
type Lamp struct {
	Address    string    `yaml:"address"`               // host:port of the lamp's web server
	LastSeen   time.Time `yaml:"last_seen,omitempty"`   // Last discovery/apply time
	LastPreset string    `yaml:"last_preset,omitempty"` // Last preset applied to this lamp
}

// Preset is a named lamp configuration in human-editable form.
type Preset struct {
	Mode       string  `yaml:"mode"`
	Brightness int     `yaml:"brightness"`
	Color0     string  `yaml:"color0"`
	Color1     string  `yaml:"color1"`
	Param0     int     `yaml:"param0"`
	Param1     int     `yaml:"param1"`
	Decay      float32 `yaml:"decay"`
	Gain       float32 `yaml:"gain"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultLamp     string `yaml:"default_lamp,omitempty"` // Lamp used when none is named
	DiscoverTimeout int    `yaml:"discover_timeout"`       // mDNS discovery timeout in seconds
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	r := &Registry{Version: 1}
	r.applyDefaults()
	return r
}

func defaultModem() *ModemSettings {
	return &ModemSettings{
		Baud:        DefaultBaudRate,
		ServerPort:  DefaultServerPort,
		IdleTimeout: DefaultIdleTimeout,
		BootDelayMS: DefaultBootDelayMS,
	}
}

// applyDefaults fills sections missing from a loaded file.
func (r *Registry) applyDefaults() {
	if r.Modem == nil {
		r.Modem = defaultModem()
	}
	if r.Modem.Baud == 0 {
		r.Modem.Baud = DefaultBaudRate
	}
	if r.Modem.ServerPort == 0 {
		r.Modem.ServerPort = DefaultServerPort
	}
	if r.Server == nil {
		r.Server = &ServerSettings{Advertise: true, Instance: DefaultInstance}
	}
	if r.Server.Instance == "" {
		r.Server.Instance = DefaultInstance
	}
	if r.Lamps == nil {
		r.Lamps = make(map[string]*Lamp)
	}
	if r.Presets == nil {
		r.Presets = builtinPresets()
	}
	if r.Preferences == nil {
		r.Preferences = &Preferences{DiscoverTimeout: 5}
	}
}

// BootDelay returns the configured boot delay as a duration.
func (m *ModemSettings) BootDelay() time.Duration {
	return time.Duration(m.BootDelayMS) * time.Millisecond
}

// GetLamp retrieves a saved lamp by name.
// Returns nil if the lamp doesn't exist in the registry.
func (r *Registry) GetLamp(name string) *Lamp {
	return r.Lamps[name]
}

// EnsureLamp ensures a lamp entry exists in the registry.
func (r *Registry) EnsureLamp(name string) *Lamp {
	if r.Lamps == nil {
		r.Lamps = make(map[string]*Lamp)
	}
	if l, exists := r.Lamps[name]; exists {
		return l
	}
	l := &Lamp{}
	r.Lamps[name] = l
	return l
}

// UpdateLampLastSeen records the address a lamp was reached at.
func (r *Registry) UpdateLampLastSeen(name, address string) {
	l := r.EnsureLamp(name)
	l.Address = address
	l.LastSeen = time.Now()
}

// ResolveLamp turns a lamp name or a literal address into an address. An
// empty target selects the default lamp.
func (r *Registry) ResolveLamp(target string) (string, error) {
	if target == "" && r.Preferences != nil {
		target = r.Preferences.DefaultLamp
	}
	if target == "" {
		return "", fmt.Errorf("no lamp given and no default lamp configured")
	}
	if l := r.Lamps[target]; l != nil {
		return l.Address, nil
	}
	return target, nil
}

// GetPreset returns the named preset as a lamp state.
func (r *Registry) GetPreset(name string) (lamp.State, error) {
	p, ok := r.Presets[name]
	if !ok {
		return lamp.State{}, fmt.Errorf("unknown preset %q", name)
	}
	return p.State()
}

// SetPreset stores s under name, replacing any existing preset.
func (r *Registry) SetPreset(name string, s lamp.State) {
	if r.Presets == nil {
		r.Presets = make(map[string]*Preset)
	}
	r.Presets[name] = PresetFromState(s)
}

// PresetNames returns the preset names in sorted order.
func (r *Registry) PresetNames() []string {
	names := make([]string, 0, len(r.Presets))
	for name := range r.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// State converts the preset to a lamp state.
func (p *Preset) State() (lamp.State, error) {
	mode, err := lamp.ParseMode(p.Mode)
	if err != nil {
		return lamp.State{}, err
	}
	c0, err := lamp.ParseRGB(p.Color0)
	if err != nil {
		return lamp.State{}, fmt.Errorf("color0: %w", err)
	}
	c1, err := lamp.ParseRGB(p.Color1)
	if err != nil {
		return lamp.State{}, fmt.Errorf("color1: %w", err)
	}
	for _, f := range []struct {
		name string
		v    int
	}{{"brightness", p.Brightness}, {"param0", p.Param0}, {"param1", p.Param1}} {
		if f.v < 0 || f.v > 255 {
			return lamp.State{}, fmt.Errorf("%s %d out of range 0-255", f.name, f.v)
		}
	}

	return lamp.State{
		Mode:       mode,
		Brightness: byte(p.Brightness),
		Color0:     c0,
		Color1:     c1,
		Param0:     byte(p.Param0),
		Param1:     byte(p.Param1),
		Decay:      p.Decay,
		Gain:       p.Gain,
	}, nil
}

// PresetFromState converts a lamp state to its file form.
func PresetFromState(s lamp.State) *Preset {
	mode := s.Mode.String()
	if !s.Mode.Known() {
		mode = strconv.Itoa(int(s.Mode))
	}
	return &Preset{
		Mode:       mode,
		Brightness: int(s.Brightness),
		Color0:     s.Color0.Hex(),
		Color1:     s.Color1.Hex(),
		Param0:     int(s.Param0),
		Param1:     int(s.Param1),
		Decay:      s.Decay,
		Gain:       s.Gain,
	}
}

// DefaultPreset is the preset commands start from when none is named.
const DefaultPreset = "default"

// builtinPresets seeds a new configuration.
func builtinPresets() map[string]*Preset {
	def := lamp.DefaultState()
	def.Param0, def.Param1 = lamp.PageParam0, lamp.PageParam1

	party := def
	party.Mode = lamp.ModeConfetti
	party.Brightness = 128
	party.Color0 = lamp.RGB{255, 0, 255}
	party.Color1 = lamp.RGB{0, 255, 255}
	party.Decay = 0.2
	party.Gain = 600

	calm := def
	calm.Mode = lamp.ModeGradient
	calm.Brightness = 24
	calm.Color0 = lamp.RGB{255, 96, 0}
	calm.Color1 = lamp.RGB{80, 0, 160}
	calm.Decay = 0.8
	calm.Gain = 120

	return map[string]*Preset{
		DefaultPreset: PresetFromState(def),
		"party":       PresetFromState(party),
		"calm":        PresetFromState(calm),
	}
}
