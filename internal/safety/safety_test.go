package safety

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"redistics/internal/model"
)

func TestClassifyDestructive(t *testing.T) {
	for _, cmd := range []string{"FLUSHDB", "FLUSHALL", "DEBUG", "SHUTDOWN", "SLAVEOF", "REPLICAOF", "CONFIG"} {
		v := classify(cmd, "anything", 0, true)
		if v.Level != model.RiskCritical {
			t.Errorf("%s: level = %q, want critical", cmd, v.Level)
		}
	}
	// Case and whitespace must not matter to the public entry point.
	v := Assess(context.Background(), nil, "  flushall ", "")
	if v.Level != model.RiskCritical {
		t.Errorf("lowercase flushall: level = %q, want critical", v.Level)
	}
}

func TestClassifyKeysThresholds(t *testing.T) {
	cases := []struct {
		cmd      string
		keyCount uint64
		want     string
	}{
		{"KEYS", 50, model.RiskOK},
		{"KEYS", 1001, model.RiskWarning},
		{"KEYS", 10001, model.RiskCritical},
		{"SCAN", 10001, model.RiskWarning},
		{"SCAN", 500, model.RiskOK},
	}
	for _, c := range cases {
		v := classify(c.cmd, "*", c.keyCount, true)
		if v.Level != c.want {
			t.Errorf("%s with %d keys: level = %q, want %q", c.cmd, c.keyCount, v.Level, c.want)
		}
		if c.want != model.RiskOK {
			want := fmt.Sprintf("may scan %d keys", c.keyCount)
			if v.EstimatedImpact != want {
				t.Errorf("%s impact = %q, want %q", c.cmd, v.EstimatedImpact, want)
			}
		}
	}
}

func TestClassifyUnknownKeyCount(t *testing.T) {
	v := classify("KEYS", "*", 0, false)
	if v.Level != model.RiskWarning {
		t.Errorf("unknown key count: level = %q, want warning", v.Level)
	}
}

func TestClassifyFullFetch(t *testing.T) {
	for _, cmd := range []string{"SMEMBERS", "HGETALL", "LRANGE"} {
		if v := classify(cmd, "", 0, true); v.Level != model.RiskWarning {
			t.Errorf("%s: level = %q, want warning", cmd, v.Level)
		}
	}
	if v := classify("GET", "", 0, true); v.Level != model.RiskOK {
		t.Errorf("GET: level = %q, want ok", v.Level)
	}
}

func TestIsUnboundedScan(t *testing.T) {
	cases := []struct {
		cmd, pattern string
		want         bool
	}{
		{"SCAN", "*", true},
		{"SCAN", "", true},
		{"SCAN", "*suffix", true},
		{"SCAN", "user:*", false},
		{"GET", "*", false},
	}
	for _, c := range cases {
		if got := isUnboundedScan(c.cmd, c.pattern); got != c.want {
			t.Errorf("isUnboundedScan(%q, %q) = %v, want %v", c.cmd, c.pattern, got, c.want)
		}
	}
}

// A wildcard scan of a populated server must never come back ok, whatever
// the server reports about its keyspace.
func TestAssessWildcardNeverOK(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	for i := 0; i < 1500; i++ {
		srv.Set(fmt.Sprintf("key:%d", i), "v")
	}

	v := Assess(context.Background(), rdb, "KEYS", "*")
	if v.Level == model.RiskOK {
		t.Errorf("KEYS * over 1500 keys: level = ok, want warning or critical")
	}
	if v.Command != "KEYS" {
		t.Errorf("command = %q, want KEYS", v.Command)
	}
}
