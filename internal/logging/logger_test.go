package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.InfoLevel) {
		t.Error("logger should be silent when no level is configured")
	}
}

func TestInitializeFromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	t.Cleanup(func() { logger = zap.NewNop() })
}

func TestAsciiDump(t *testing.T) {
	got := asciiDump([]byte("+IPD,0,5:\r\nab"))
	if got != "+IPD,0,5:..ab" {
		t.Errorf("asciiDump() = %q", got)
	}

	long := asciiDump([]byte(strings.Repeat("x", 300)))
	if len(long) != 256 {
		t.Errorf("asciiDump() length = %d, want 256", len(long))
	}
}

func TestHexDump(t *testing.T) {
	if got := hexDump([]byte{0x0d, 0x0a}); got != "0d0a" {
		t.Errorf("hexDump() = %q, want 0d0a", got)
	}
	if got := hexDump(nil); got != "" {
		t.Errorf("hexDump(nil) = %q, want empty", got)
	}
	if got := hexDump(make([]byte, 300)); !strings.HasSuffix(got, "...") {
		t.Error("hexDump() should mark truncation")
	}
}
