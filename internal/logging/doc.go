// Package logging provides structured logging for the DiscoJar server.
//
// This package wraps zap logger with convenience functions for the patterns
// used by the modem core and its tooling.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, deliveries, AT responses)
//   - Info: Normal operations (AT commands, pages served, state changes)
//   - Warn: Non-fatal issues (unacknowledged commands, closed channels, truncated bodies)
//   - Error: Fatal issues (port failures, startup errors)
//
// # Specialized Logging
//
//	logging.LogATCommand("AT+CIPMUX=1", true, 12*time.Millisecond, response)
//	logging.LogDelivery(channel, length, continuation)
//	logging.LogOutcome("config_applied", channel, zap.Int("collected", 20))
//	logging.LogLampState(state.String())
//	logging.LogRawBytes("Malformed delivery header", frame)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// With no level and no DISCOJAR_LOG_LEVEL in the environment the logger is
// silent.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
