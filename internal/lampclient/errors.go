package lampclient

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/muurk/discojar/internal/urls"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates a non-200 status code
	ErrTypeHTTP
	// ErrTypeProtocol indicates a response the lamp firmware would never send
	ErrTypeProtocol
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the lamp refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
)

// NetworkErrorSubtype provides more specific network error classification
type NetworkErrorSubtype int

const (
	NetworkErrorGeneral NetworkErrorSubtype = iota
	NetworkErrorTimeout
	NetworkErrorConnectionRefused
	NetworkErrorDNS
	NetworkErrorHostUnreachable
	NetworkErrorNetworkUnreachable
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeProtocol:
		return "Protocol Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred talking to a lamp
type DeviceError struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Err            error               // Underlying error (if any)
	NetworkSubtype NetworkErrorSubtype // More specific network error type
	Address        string              // Lamp address (for context)
	Retryable      bool                // Whether the error is retryable
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes an error and returns a more specific error type
func ClassifyNetworkError(err error, address string) *DeviceError {
	if err == nil {
		return nil
	}

	newErr := func(t ErrorType, sub NetworkErrorSubtype, msg string, retryable bool) *DeviceError {
		return &DeviceError{
			Type:           t,
			Message:        msg,
			Err:            err,
			NetworkSubtype: sub,
			Address:        address,
			Retryable:      retryable,
		}
	}

	if os.IsTimeout(err) {
		return newErr(ErrTypeTimeout, NetworkErrorTimeout, "request timed out", true)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return newErr(ErrTypeDNS, NetworkErrorDNS, fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name), false)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return newErr(ErrTypeConnectionRefused, NetworkErrorConnectionRefused, "lamp refused connection", true)
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return newErr(ErrTypeNetwork, NetworkErrorHostUnreachable, "host unreachable", true)
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return newErr(ErrTypeNetwork, NetworkErrorNetworkUnreachable, "network unreachable", true)
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err, address)
	}

	return newErr(ErrTypeNetwork, NetworkErrorGeneral, "network error occurred", true)
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, address string, err error) *DeviceError {
	classified := ClassifyNetworkError(err, address)
	if classified == nil {
		return &DeviceError{Type: ErrTypeNetwork, Message: message, Address: address, Retryable: true}
	}
	classified.Message = message + ": " + classified.Message
	return classified
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500 || statusCode == http.StatusTooManyRequests,
	}
}

// NewProtocolError creates an error for a malformed lamp response
func NewProtocolError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeProtocol,
		Message: message,
		Err:     err,
	}
}

func asDeviceError(err error) (*DeviceError, bool) {
	var devErr *DeviceError
	ok := errors.As(err, &devErr)
	return devErr, ok
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	devErr, ok := asDeviceError(err)
	if !ok {
		return false
	}
	switch devErr.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if devErr, ok := asDeviceError(err); ok {
		return devErr.Retryable
	}
	return false
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	devErr, ok := asDeviceError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The lamp did not respond in time.",
			"Troubleshooting:",
			"  • The lamp serves one request at a time; retry in a few seconds",
			"  • Check that the ESP8266 joined your WiFi network",
			"  • Try increasing the timeout duration",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The lamp refused the connection.",
			"Troubleshooting:",
			"  • The server may still be booting; the module needs a few seconds",
			"  • Verify the port number (default is 80)",
			"  • Power-cycle the lamp",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the lamp hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Run 'discojar-cfg scan' to find lamps on the network",
		}, "\n")

	case ErrTypeNetwork:
		hint := []string{"Network communication failed."}
		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			hint = append(hint,
				"Troubleshooting:",
				"  • Verify the lamp IP address is correct",
				"  • Check that you're on the same network as the lamp",
				"  • Try pinging the lamp: ping "+devErr.Address)
		case NetworkErrorNetworkUnreachable:
			hint = append(hint,
				"Troubleshooting:",
				"  • Check your network adapter settings",
				"  • Verify WiFi is enabled on your computer")
		default:
			hint = append(hint,
				"Troubleshooting:",
				"  • Check your network connection",
				"  • Verify the lamp is powered on")
		}
		return strings.Join(hint, "\n")

	case ErrTypeHTTP:
		return fmt.Sprintf("The lamp returned HTTP %d. Only GET / and POST / are served.", devErr.StatusCode)

	case ErrTypeProtocol:
		return strings.Join([]string{
			"The lamp sent a malformed response.",
			"Troubleshooting:",
			"  • The modem may have closed the channel mid-response; retry",
			"  • Check the server log with DISCOJAR_LOG_LEVEL=debug",
			"  • Report repeatable failures at " + urls.Issues,
		}, "\n")

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	devErr, ok := asDeviceError(err)
	if !ok {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Lamp not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Lamp refused connection"
	case ErrTypeDNS:
		return "Cannot resolve lamp hostname"
	case ErrTypeNetwork:
		switch devErr.NetworkSubtype {
		case NetworkErrorHostUnreachable:
			return "Lamp unreachable - check network connection"
		case NetworkErrorNetworkUnreachable:
			return "Network unreachable - check WiFi connection"
		default:
			return "Network error - check connection"
		}
	case ErrTypeHTTP:
		return fmt.Sprintf("Lamp error (HTTP %d)", devErr.StatusCode)
	default:
		return devErr.Message
	}
}
