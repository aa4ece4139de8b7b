package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"redistics/internal/model"
)

// ParseLine decodes one MONITOR feed line into a MonitorEvent. The grammar is
// a floating-point timestamp, a bracketed "[db addr:port]" tag, then a
// quote-delimited argument list whose first argument is the command:
//
//	1700000000.123456 [0 127.0.0.1:52431] "SET" "user:1" "hello world"
//
// Malformed lines return an error; callers drop and count them.
func ParseLine(line string) (model.MonitorEvent, error) {
	var ev model.MonitorEvent

	rest := strings.TrimSpace(line)
	sp := strings.IndexByte(rest, ' ')
	if sp < 0 {
		return ev, fmt.Errorf("no timestamp field in %q", line)
	}
	ts, err := strconv.ParseFloat(rest[:sp], 64)
	if err != nil {
		return ev, fmt.Errorf("bad timestamp %q: %w", rest[:sp], err)
	}
	rest = strings.TrimLeft(rest[sp+1:], " ")

	if !strings.HasPrefix(rest, "[") {
		return ev, fmt.Errorf("missing client tag in %q", line)
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return ev, fmt.Errorf("unterminated client tag in %q", line)
	}
	tag := rest[1:end]
	rest = strings.TrimLeft(rest[end+1:], " ")

	tagSp := strings.IndexByte(tag, ' ')
	if tagSp < 0 {
		return ev, fmt.Errorf("bad client tag %q", tag)
	}
	db, err := strconv.Atoi(tag[:tagSp])
	if err != nil {
		return ev, fmt.Errorf("bad db index %q: %w", tag[:tagSp], err)
	}
	addr := tag[tagSp+1:]

	// Unix-socket and pseudo clients (e.g. "lua") carry no port.
	ip, port := addr, "0"
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		ip, port = addr[:i], addr[i+1:]
	}

	args := scanQuoted(rest)
	if len(args) == 0 {
		return ev, fmt.Errorf("no command in %q", line)
	}

	ev = model.MonitorEvent{
		Timestamp:  int64(ts * 1000),
		ClientIP:   ip,
		ClientPort: port,
		DB:         db,
		Command:    strings.ToUpper(args[0]),
		Args:       args[1:],
		Raw:        line,
	}
	return ev, nil
}

// scanQuoted extracts the double-quoted tokens of a monitor argument list,
// resolving the feed's backslash escapes.
func scanQuoted(s string) []string {
	var args []string
	var b strings.Builder
	inQuote := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inQuote {
			if c == '"' {
				inQuote = true
				b.Reset()
			}
			continue
		}
		switch c {
		case '"':
			inQuote = false
			args = append(args, b.String())
		case '\\':
			if i+1 >= len(s) {
				b.WriteByte(c)
				continue
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'a':
				b.WriteByte('\a')
			case 'b':
				b.WriteByte('\b')
			case 'x':
				if i+2 < len(s) {
					if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
						b.WriteByte(byte(v))
						i += 2
						continue
					}
				}
				b.WriteByte('x')
			default:
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(c)
		}
	}
	return args
}
