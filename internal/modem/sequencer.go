package modem

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/muurk/discojar/internal/logging"
)

// Startup wait durations
const (
	ShortCommandTimeout = 1000 * time.Millisecond
	LongCommandTimeout  = 5000 * time.Millisecond
)

// Command is one AT command of a script.
type Command struct {
	Text    string
	Token   string // acknowledgment to wait for, TokenOK when empty
	Timeout time.Duration
}

// CommandResult records how a scripted command went.
type CommandResult struct {
	Command  Command
	OK       bool
	Response string
	Elapsed  time.Duration
}

// StartupScript returns the bring-up sequence: echo on, liveness check,
// multiplexed connections, TCP server on serverPort, idle timeout, then a
// set of status queries. Access point listing and address queries get the
// long timeout.
func StartupScript(serverPort, idleTimeout int) []Command {
	return []Command{
		{Text: "ATE1", Timeout: ShortCommandTimeout},
		{Text: "AT", Timeout: ShortCommandTimeout},
		{Text: "AT+CIPMUX=1", Timeout: ShortCommandTimeout},
		{Text: fmt.Sprintf("AT+CIPSERVER=1,%d", serverPort), Timeout: ShortCommandTimeout},
		{Text: fmt.Sprintf("AT+CIPSTO=%d", idleTimeout), Timeout: ShortCommandTimeout},
		{Text: "AT+GMR", Timeout: ShortCommandTimeout},
		{Text: "AT+CWJAP?", Timeout: ShortCommandTimeout},
		{Text: "AT+CIPSTA?", Timeout: ShortCommandTimeout},
		{Text: "AT+CWMODE?", Timeout: ShortCommandTimeout},
		{Text: "AT+CIFSR", Timeout: LongCommandTimeout},
		{Text: "AT+CWLAP", Timeout: LongCommandTimeout},
		{Text: "AT+CIFSR", Timeout: ShortCommandTimeout},
	}
}

// Sequencer runs command scripts. Commands are never retried and a failed
// acknowledgment does not stop the script.
type Sequencer struct {
	port   Port
	clock  Clock
	line   [LineBufferSize]byte
	waiter *Waiter
}

// NewSequencer returns a sequencer with its own line buffer.
func NewSequencer(port Port, clock Clock) *Sequencer {
	if clock == nil {
		clock = SystemClock{}
	}
	s := &Sequencer{port: port, clock: clock}
	s.waiter = NewWaiter(port, clock, &s.line)
	return s
}

// Run sends each command followed by CRLF and waits for its token. Only a
// transport write failure aborts the script.
func (s *Sequencer) Run(script []Command) ([]CommandResult, error) {
	results := make([]CommandResult, 0, len(script))
	for _, cmd := range script {
		token := cmd.Token
		if token == "" {
			token = TokenOK
		}

		start := s.clock.Now()
		if _, err := s.port.Write([]byte(cmd.Text + "\r\n")); err != nil {
			return results, fmt.Errorf("failed to send %s: %w", cmd.Text, err)
		}

		ok, err := s.waiter.Wait(token, cmd.Timeout)
		if err != nil {
			return results, fmt.Errorf("failed waiting for %s: %w", cmd.Text, err)
		}

		res := CommandResult{
			Command:  cmd,
			OK:       ok,
			Response: string(s.waiter.Response()),
			Elapsed:  s.clock.Now().Sub(start),
		}
		logging.LogATCommand(cmd.Text, res.OK, res.Elapsed, s.waiter.Response())
		results = append(results, res)
	}
	return results, nil
}

var (
	staIPPattern  = regexp.MustCompile(`\+CIFSR:STAIP,"([0-9.]+)"`)
	apIPPattern   = regexp.MustCompile(`\+CIFSR:APIP,"([0-9.]+)"`)
	bareIPPattern = regexp.MustCompile(`(?m)^(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})\r?$`)
)

// ParseStationIP extracts the modem address from an AT+CIFSR response.
// The station address is preferred over the soft-AP address; old firmware
// that prints a bare address is also understood.
func ParseStationIP(response string) (string, bool) {
	for _, re := range []*regexp.Regexp{staIPPattern, apIPPattern, bareIPPattern} {
		if m := re.FindStringSubmatch(response); m != nil && m[1] != "0.0.0.0" {
			return m[1], true
		}
	}
	return "", false
}

// StationIP scans results for the last successful AT+CIFSR and returns the
// address it reported.
func StationIP(results []CommandResult) (string, bool) {
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		if !strings.HasPrefix(r.Command.Text, "AT+CIFSR") {
			continue
		}
		if ip, ok := ParseStationIP(r.Response); ok {
			return ip, true
		}
	}
	return "", false
}
