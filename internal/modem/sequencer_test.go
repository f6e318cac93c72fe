package modem

import (
	"strings"
	"testing"
)

const cifsrResponse = "+CIFSR:APIP,\"192.168.4.1\"\r\n+CIFSR:APMAC,\"1a:fe:34:a1:b2:c3\"\r\n" +
	"+CIFSR:STAIP,\"192.168.1.42\"\r\n+CIFSR:STAMAC,\"18:fe:34:a1:b2:c3\"\r\n\r\nOK\r\n"

func moduleResponder(p *scriptPort, written []byte) []byte {
	cmd := strings.TrimRight(string(written), "\r\n")
	switch cmd {
	case "AT+CWLAP":
		// Scan never finishes within the wait.
		return []byte(cmd + "\r\r\n+CWLAP:(3,\"home\",-61,\"aa:bb:cc:dd:ee:ff\",6)\r\n")
	case "AT+CIFSR":
		return []byte(cmd + "\r\r\n" + cifsrResponse)
	default:
		return []byte(cmd + "\r\r\n\r\nOK\r\n")
	}
}

func TestSequencerRunsStartupScript(t *testing.T) {
	port := &scriptPort{respond: moduleResponder}
	seq := NewSequencer(port, newStepClock())

	script := StartupScript(80, 5)
	results, err := seq.Run(script)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != len(script) {
		t.Fatalf("got %d results, want %d", len(results), len(script))
	}

	for i, cmd := range script {
		if port.commands[i] != cmd.Text {
			t.Errorf("command %d = %q, want %q", i, port.commands[i], cmd.Text)
		}
	}
	if port.commands[3] != "AT+CIPSERVER=1,80" || port.commands[4] != "AT+CIPSTO=5" {
		t.Errorf("server commands = %q, %q", port.commands[3], port.commands[4])
	}

	for _, r := range results {
		wantOK := r.Command.Text != "AT+CWLAP"
		if r.OK != wantOK {
			t.Errorf("%s OK = %v, want %v", r.Command.Text, r.OK, wantOK)
		}
	}

	ip, ok := StationIP(results)
	if !ok || ip != "192.168.1.42" {
		t.Errorf("StationIP() = %q, %v; want 192.168.1.42", ip, ok)
	}
}

func TestSequencerTimeoutDoesNotStopScript(t *testing.T) {
	port := &scriptPort{}
	clock := newStepClock()
	seq := NewSequencer(port, clock)

	script := []Command{
		{Text: "AT", Timeout: ShortCommandTimeout},
		{Text: "AT+GMR", Timeout: ShortCommandTimeout},
	}
	results, err := seq.Run(script)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 || results[0].OK || results[1].OK {
		t.Fatalf("results = %+v, want two failures", results)
	}
	if results[0].Elapsed < ShortCommandTimeout {
		t.Errorf("Elapsed = %v, want at least %v", results[0].Elapsed, ShortCommandTimeout)
	}
}

func TestSequencerCustomToken(t *testing.T) {
	port := &scriptPort{respond: func(p *scriptPort, written []byte) []byte {
		return []byte("ready\r\n")
	}}
	seq := NewSequencer(port, newStepClock())

	results, err := seq.Run([]Command{{Text: "AT+RST", Token: "ready\r\n", Timeout: LongCommandTimeout}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !results[0].OK {
		t.Error("custom token should be matched")
	}
}

func TestParseStationIP(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
		wantOK   bool
	}{
		{name: "station and soft-AP", response: cifsrResponse, want: "192.168.1.42", wantOK: true},
		{name: "soft-AP only", response: "+CIFSR:APIP,\"192.168.4.1\"\r\nOK\r\n", want: "192.168.4.1", wantOK: true},
		{
			name:     "unassociated station",
			response: "+CIFSR:APIP,\"192.168.4.1\"\r\n+CIFSR:STAIP,\"0.0.0.0\"\r\nOK\r\n",
			want:     "192.168.4.1",
			wantOK:   true,
		},
		{name: "old firmware", response: "AT+CIFSR\r\r\n10.0.0.7\r\n\r\nOK\r\n", want: "10.0.0.7", wantOK: true},
		{name: "error", response: "AT+CIFSR\r\r\nERROR\r\n"},
		{name: "empty", response: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStationIP(tt.response)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseStationIP() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestStationIPPrefersLastQuery(t *testing.T) {
	results := []CommandResult{
		{Command: Command{Text: "AT+CIFSR"}, Response: "+CIFSR:STAIP,\"192.168.1.10\"\r\nOK\r\n"},
		{Command: Command{Text: "AT+GMR"}, Response: "1.2.3.4\r\nOK\r\n"},
		{Command: Command{Text: "AT+CIFSR"}, Response: "+CIFSR:STAIP,\"192.168.1.11\"\r\nOK\r\n"},
	}
	if ip, _ := StationIP(results); ip != "192.168.1.11" {
		t.Errorf("StationIP() = %q, want 192.168.1.11", ip)
	}
	if _, ok := StationIP(results[1:2]); ok {
		t.Error("StationIP() should ignore other commands")
	}
}
