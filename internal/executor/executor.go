// Package executor runs raw and typed commands against a connected server.
package executor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"redistics/internal/model"
)

// Executor runs commands against one server connection with a bounded
// per-command timeout.
type Executor struct {
	rdb     *redis.Client
	timeout time.Duration

	// del is swapped in tests to simulate per-key delete failures.
	del func(ctx context.Context, key string) error
}

func New(rdb *redis.Client, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	e := &Executor{rdb: rdb, timeout: timeout}
	e.del = func(ctx context.Context, key string) error {
		return rdb.Del(ctx, key).Err()
	}
	return e
}

// Execute tokenizes and runs one command line. Errors from the server land
// in the Error field; Elapsed covers the round trip only.
func (e *Executor) Execute(ctx context.Context, line string) model.CommandResult {
	args, err := Tokenize(line)
	if err != nil {
		return model.CommandResult{Error: err.Error()}
	}
	if len(args) == 0 {
		return model.CommandResult{Error: "empty command"}
	}

	cmdArgs := make([]interface{}, len(args))
	for i, a := range args {
		cmdArgs[i] = a
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	reply, err := e.rdb.Do(ctx, cmdArgs...).Result()
	elapsed := time.Since(start).Milliseconds()

	if err == redis.Nil {
		return model.CommandResult{Success: true, Result: "(nil)", Elapsed: elapsed}
	}
	if err != nil {
		return model.CommandResult{Elapsed: elapsed, Error: err.Error()}
	}
	return model.CommandResult{Success: true, Result: formatReply(reply), Elapsed: elapsed}
}

// Tokenize splits a command line the way a shell would: whitespace
// separates arguments, double quotes group and honor backslash escapes,
// single quotes group literally.
func Tokenize(line string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inToken := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case ' ', '\t':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		case '"':
			inToken = true
			i++
			for ; i < len(line) && line[i] != '"'; i++ {
				if line[i] == '\\' && i+1 < len(line) {
					i++
					switch line[i] {
					case 'n':
						cur.WriteByte('\n')
					case 'r':
						cur.WriteByte('\r')
					case 't':
						cur.WriteByte('\t')
					default:
						cur.WriteByte(line[i])
					}
					continue
				}
				cur.WriteByte(line[i])
			}
			if i >= len(line) {
				return nil, fmt.Errorf("unterminated double quote")
			}
		case '\'':
			inToken = true
			i++
			for ; i < len(line) && line[i] != '\''; i++ {
				cur.WriteByte(line[i])
			}
			if i >= len(line) {
				return nil, fmt.Errorf("unterminated single quote")
			}
		default:
			inToken = true
			cur.WriteByte(c)
		}
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args, nil
}

// formatReply renders a reply the way redis-cli does: typed scalars get a
// type prefix, arrays list elements one per line with 1-based indexes.
func formatReply(reply interface{}) string {
	switch v := reply.(type) {
	case nil:
		return "(nil)"
	case int64:
		return fmt.Sprintf("(integer) %d", v)
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		if v {
			return "(integer) 1"
		}
		return "(integer) 0"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []interface{}:
		if len(v) == 0 {
			return "(empty array)"
		}
		lines := make([]string, len(v))
		for i, item := range v {
			rendered := formatReply(item)
			// Nested arrays keep their own numbering, indented.
			rendered = strings.ReplaceAll(rendered, "\n", "\n   ")
			lines[i] = fmt.Sprintf("%d) %s", i+1, rendered)
		}
		return strings.Join(lines, "\n")
	case map[interface{}]interface{}:
		if len(v) == 0 {
			return "(empty hash)"
		}
		var sb strings.Builder
		i := 0
		for k, val := range v {
			if i > 0 {
				sb.WriteByte('\n')
			}
			i++
			fmt.Fprintf(&sb, "%d) %s => %s", i, formatReply(k), formatReply(val))
		}
		return sb.String()
	default:
		return fmt.Sprint(v)
	}
}
