package lampclient

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/muurk/discojar/internal/lamp"
)

// StateReader reports the configuration a lamp is running. The firmware
// cannot, so this is backed by a preview server watching the lamp.
type StateReader interface {
	CurrentState(ctx context.Context) (lamp.State, error)
}

// VerificationOptions configures how configuration verification behaves
type VerificationOptions struct {
	// MaxRetries is the maximum number of re-reads after the first
	MaxRetries int

	// InitialDelay gives the modem time to deliver the body before the first read
	InitialDelay time.Duration

	// RetryDelay is the delay between retry attempts
	RetryDelay time.Duration

	// UseExponentialBackoff doubles each retry delay up to MaxRetryDelay
	UseExponentialBackoff bool

	// MaxRetryDelay is the maximum delay between retries when using exponential backoff
	MaxRetryDelay time.Duration
}

// DefaultVerificationOptions returns sensible defaults for verification
func DefaultVerificationOptions() *VerificationOptions {
	return &VerificationOptions{
		MaxRetries:            3,
		InitialDelay:          500 * time.Millisecond,
		RetryDelay:            1 * time.Second,
		UseExponentialBackoff: true,
		MaxRetryDelay:         5 * time.Second,
	}
}

// VerificationResult contains the results of a configuration verification
type VerificationResult struct {
	Success  bool
	Attempts int

	// Actual is the last state read back
	Actual *lamp.State

	// Mismatches lists the fields that differ from the expected state
	Mismatches []string

	Error error
}

// Verify reads the lamp state until it equals expected, retrying with
// backoff while reads fail or the state still differs.
func Verify(ctx context.Context, reader StateReader, expected lamp.State, opts *VerificationOptions) *VerificationResult {
	if opts == nil {
		opts = DefaultVerificationOptions()
	}
	result := &VerificationResult{}

	if err := wait(ctx, opts.InitialDelay); err != nil {
		result.Error = err
		return result
	}

	currentDelay := opts.RetryDelay
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, currentDelay); err != nil {
				result.Error = err
				return result
			}
			if opts.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > opts.MaxRetryDelay {
					currentDelay = opts.MaxRetryDelay
				}
			}
		}
		result.Attempts++

		actual, err := reader.CurrentState(ctx)
		if err != nil {
			result.Error = fmt.Errorf("attempt %d: failed to read lamp state: %w", attempt+1, err)
			continue
		}
		result.Actual = &actual

		result.Mismatches = Mismatches(expected, actual)
		if len(result.Mismatches) == 0 {
			result.Success = true
			result.Error = nil
			return result
		}
		result.Error = fmt.Errorf("verification failed after %d attempts: %s", result.Attempts, formatMismatches(result.Mismatches))
	}

	return result
}

// ApplyAndVerify sends s and then verifies it through reader.
func (c *Client) ApplyAndVerify(ctx context.Context, s lamp.State, reader StateReader, opts *VerificationOptions) *VerificationResult {
	if err := c.Apply(ctx, s); err != nil {
		return &VerificationResult{Error: fmt.Errorf("update failed: %w", err)}
	}
	return Verify(ctx, reader, s, opts)
}

// Mismatches compares two states field by field. NaN floats compare equal
// to NaN.
func Mismatches(expected, actual lamp.State) []string {
	var out []string
	if expected.Mode != actual.Mode {
		out = append(out, fmt.Sprintf("mode: expected %s, got %s", expected.Mode, actual.Mode))
	}
	if expected.Brightness != actual.Brightness {
		out = append(out, fmt.Sprintf("brightness: expected %d, got %d", expected.Brightness, actual.Brightness))
	}
	if expected.Color0 != actual.Color0 {
		out = append(out, fmt.Sprintf("color0: expected %s, got %s", expected.Color0.Hex(), actual.Color0.Hex()))
	}
	if expected.Color1 != actual.Color1 {
		out = append(out, fmt.Sprintf("color1: expected %s, got %s", expected.Color1.Hex(), actual.Color1.Hex()))
	}
	if expected.Param0 != actual.Param0 || expected.Param1 != actual.Param1 {
		out = append(out, fmt.Sprintf("params: expected %d/%d, got %d/%d", expected.Param0, expected.Param1, actual.Param0, actual.Param1))
	}
	if !sameFloat(expected.Decay, actual.Decay) {
		out = append(out, fmt.Sprintf("decay: expected %g, got %g", expected.Decay, actual.Decay))
	}
	if !sameFloat(expected.Gain, actual.Gain) {
		out = append(out, fmt.Sprintf("gain: expected %g, got %g", expected.Gain, actual.Gain))
	}
	return out
}

func sameFloat(a, b float32) bool {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return math.IsNaN(float64(a)) && math.IsNaN(float64(b))
	}
	return a == b
}

func formatMismatches(mismatches []string) string {
	switch len(mismatches) {
	case 0:
		return "none"
	case 1:
		return mismatches[0]
	}
	return fmt.Sprintf("%d mismatches: %s", len(mismatches), strings.Join(mismatches, "; "))
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
