// Package safety classifies operations before they run. Verdicts are
// advisory; callers decide whether to proceed.
package safety

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"redistics/internal/analytics"
	"redistics/internal/model"
)

const (
	criticalKeyCount = 10000
	warningKeyCount  = 1000
)

// destructive commands are critical no matter what pattern they carry.
var destructive = map[string]bool{
	"FLUSHDB":   true,
	"FLUSHALL":  true,
	"DEBUG":     true,
	"SHUTDOWN":  true,
	"SLAVEOF":   true,
	"REPLICAOF": true,
	"CONFIG":    true,
}

// fullFetch commands pull an entire container in one reply.
var fullFetch = map[string]bool{
	"SMEMBERS": true,
	"HGETALL":  true,
	"LRANGE":   true,
}

// Assess classifies one operation against the live server state. The key
// count is fetched fresh on every call; verdicts must never be cached.
func Assess(ctx context.Context, rdb *redis.Client, operation, pattern string) model.RiskVerdict {
	cmd := strings.ToUpper(strings.TrimSpace(operation))
	if cmd == "KEYS" || isUnboundedScan(cmd, pattern) {
		keyCount, err := analytics.TotalKeys(ctx, rdb)
		return classify(cmd, pattern, keyCount, err == nil)
	}
	return classify(cmd, pattern, 0, true)
}

// classify applies the rules to an already-fetched key count. countKnown is
// false when the server refused to report its keyspace size.
func classify(cmd, pattern string, keyCount uint64, countKnown bool) model.RiskVerdict {
	verdict := model.RiskVerdict{Level: model.RiskOK, Command: cmd}

	if destructive[cmd] {
		verdict.Level = model.RiskCritical
		verdict.Message = fmt.Sprintf("%s is a destructive operation", cmd)
		verdict.EstimatedImpact = "may destroy data or disrupt the server"
		return verdict
	}

	if cmd == "KEYS" || isUnboundedScan(cmd, pattern) {
		if !countKnown {
			verdict.Level = model.RiskWarning
			verdict.Message = fmt.Sprintf("%s over an unknown key count", cmd)
			verdict.EstimatedImpact = "key count unavailable; treat as a full keyspace scan"
			return verdict
		}
		verdict.EstimatedImpact = fmt.Sprintf("may scan %d keys", keyCount)
		switch {
		case cmd == "KEYS" && keyCount > criticalKeyCount:
			verdict.Level = model.RiskCritical
			verdict.Message = fmt.Sprintf("KEYS blocks the server while walking %d keys", keyCount)
		case keyCount > warningKeyCount:
			verdict.Level = model.RiskWarning
			verdict.Message = fmt.Sprintf("unbounded iteration over %d keys", keyCount)
		default:
			verdict.Message = "keyspace is small enough to iterate safely"
		}
		return verdict
	}

	if fullFetch[cmd] {
		verdict.Level = model.RiskWarning
		verdict.Message = fmt.Sprintf("%s fetches the whole container in one reply", cmd)
		verdict.EstimatedImpact = "large containers can stall the connection"
		return verdict
	}

	verdict.Message = "no elevated risk detected"
	return verdict
}

// isUnboundedScan reports whether a SCAN-family call has no narrowing
// prefix, which makes it a full keyspace walk.
func isUnboundedScan(cmd, pattern string) bool {
	switch cmd {
	case "SCAN", "HSCAN", "SSCAN", "ZSCAN":
	default:
		return false
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || pattern == "*" {
		return true
	}
	return strings.HasPrefix(pattern, "*")
}
