// Package config provides user configuration management for DiscoJar.
//
// This package manages a YAML-based configuration file holding the modem
// settings used by discojar-server, the lamp endpoints known to discojar-cfg
// and named lamp presets. The configuration follows OS-specific conventions
// for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/discojar/config.yaml or $HOME/.config/discojar/config.yaml
//   - macOS: $HOME/.config/discojar/config.yaml
//   - Windows: %LOCALAPPDATA%\discojar\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	registry.UpdateLampLastSeen("living-room", "192.168.1.42:80")
//	registry.SetPreset("evening", state)
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
