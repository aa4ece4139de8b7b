package monitor

import (
	"fmt"
	"reflect"
	"testing"
)

func TestParseLine(t *testing.T) {
	line := `1700000000.123456 [0 127.0.0.1:52431] "set" "user:1" "hello world"`

	ev, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}

	if ev.Timestamp != 1700000000123 {
		t.Errorf("Timestamp = %d, want 1700000000123", ev.Timestamp)
	}
	if ev.DB != 0 {
		t.Errorf("DB = %d, want 0", ev.DB)
	}
	if ev.ClientIP != "127.0.0.1" || ev.ClientPort != "52431" {
		t.Errorf("Client = %s:%s, want 127.0.0.1:52431", ev.ClientIP, ev.ClientPort)
	}
	if ev.Command != "SET" {
		t.Errorf("Command = %q, want SET (normalized upper-case)", ev.Command)
	}
	if want := []string{"user:1", "hello world"}; !reflect.DeepEqual(ev.Args, want) {
		t.Errorf("Args = %v, want %v", ev.Args, want)
	}
	if ev.Raw != line {
		t.Errorf("Raw line was not preserved verbatim")
	}
}

func TestParseLineEscapes(t *testing.T) {
	line := `1700000001.5 [2 10.0.0.9:4000] "SET" "k" "a\"b\\c\nd\x41"`

	ev, err := ParseLine(line)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if want := "a\"b\\c\ndA"; ev.Args[1] != want {
		t.Errorf("Escaped arg = %q, want %q", ev.Args[1], want)
	}
	if ev.DB != 2 {
		t.Errorf("DB = %d, want 2", ev.DB)
	}
}

func TestParseLineUnixSocketClient(t *testing.T) {
	// Pseudo clients such as lua scripts carry no port.
	ev, err := ParseLine(`1700000002.0 [0 lua] "GET" "k"`)
	if err != nil {
		t.Fatalf("ParseLine failed: %v", err)
	}
	if ev.ClientIP != "lua" || ev.ClientPort != "0" {
		t.Errorf("Client = %s:%s, want lua:0", ev.ClientIP, ev.ClientPort)
	}
}

func TestParseLineMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"OK",
		"1700000000.1",
		`notatimestamp [0 127.0.0.1:1] "GET" "k"`,
		`1700000000.1 127.0.0.1:1 "GET" "k"`,
		`1700000000.1 [0 127.0.0.1:1`,
		`1700000000.1 [zero 127.0.0.1:1] "GET"`,
		`1700000000.1 [0 127.0.0.1:1] no quoted args`,
	} {
		if _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q) succeeded, want error", line)
		}
	}
}

func TestParseLineRoundTrip(t *testing.T) {
	// Parsing then re-serializing the argument vector reconstructs an
	// equivalent logical event: command uppercased, args in order.
	lines := []string{
		`1700000000.1 [0 127.0.0.1:1] "get" "a"`,
		`1700000000.2 [1 192.168.1.5:6000] "HSET" "h" "field one" "value two"`,
		`1700000000.3 [0 ::1:40000] "DEL" "x" "y" "z"`,
	}
	for _, line := range lines {
		ev, err := ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q) failed: %v", line, err)
		}
		rebuilt := fmt.Sprintf("%.3f [%d %s:%s] %q", float64(ev.Timestamp)/1000,
			ev.DB, ev.ClientIP, ev.ClientPort, ev.Command)
		for _, a := range ev.Args {
			rebuilt += fmt.Sprintf(" %q", a)
		}
		ev2, err := ParseLine(rebuilt)
		if err != nil {
			t.Fatalf("reparse of %q failed: %v", rebuilt, err)
		}
		if ev2.Command != ev.Command || !reflect.DeepEqual(ev2.Args, ev.Args) {
			t.Errorf("Round trip changed event: %+v vs %+v", ev, ev2)
		}
	}
}
