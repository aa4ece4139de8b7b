package model

import (
	"net"
	"strconv"
	"time"
)

// Profile is a saved connection configuration for one Redis/Valkey instance.
// Password holds the encrypted envelope produced by the vault, never plaintext.
type Profile struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db" yaml:"db"`
	TLS      bool   `json:"tls,omitempty" yaml:"tls,omitempty"`
}

// Addr returns the host:port dial address for the profile.
func (p Profile) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// SessionState is the live connectivity state for one profile.
type SessionState struct {
	ProfileID  string `json:"profileId"`
	Connected  bool   `json:"connected"`
	Monitoring bool   `json:"monitoring"`
	LastError  string `json:"lastError,omitempty"`
}

// MonitorEvent is one command observed on a MONITOR stream. Immutable after
// parsing; Timestamp is wall-clock milliseconds as reported by the server.
type MonitorEvent struct {
	Timestamp  int64    `json:"timestamp"`
	ClientIP   string   `json:"clientIp"`
	ClientPort string   `json:"clientPort"`
	DB         int      `json:"db"`
	Command    string   `json:"command"`
	Args       []string `json:"args"`
	Raw        string   `json:"raw"`
}

// IPStat accumulates per-client-address counters over a monitor session.
type IPStat struct {
	Addr       string            `json:"addr"`
	Commands   uint64            `json:"commands"`
	Bytes      uint64            `json:"bytes"`
	LastSeen   time.Time         `json:"lastSeen"`
	PerCommand map[string]uint64 `json:"perCommand"`
}

// CommandResult is the outcome of one raw command round trip. Elapsed covers
// the network round trip only, not tokenization.
type CommandResult struct {
	Success bool   `json:"success"`
	Result  string `json:"result"`
	Elapsed int64  `json:"executionTimeMs"`
	Error   string `json:"error,omitempty"`
}

// Risk levels returned by the safety classifier, ordered by severity.
const (
	RiskOK       = "ok"
	RiskWarning  = "warning"
	RiskCritical = "critical"
)

// RiskVerdict is an advisory pre-flight assessment of one operation.
// Computed fresh per request; key counts are time-varying.
type RiskVerdict struct {
	Level           string `json:"level"`
	Message         string `json:"message"`
	Command         string `json:"command"`
	EstimatedImpact string `json:"estimatedImpact"`
}

// BulkDeleteResult reports a pattern delete that never aborts on a single
// key's failure; Errors holds at most the first few failure messages.
type BulkDeleteResult struct {
	DeletedCount uint64   `json:"deletedCount"`
	FailedCount  uint64   `json:"failedCount"`
	Elapsed      int64    `json:"executionTimeMs"`
	Errors       []string `json:"errors"`
}

// KeyInfo is scan-page metadata for one key. Size is -1 when the server could
// not report memory usage; TTL follows Redis semantics (-1 none, -2 missing).
type KeyInfo struct {
	Key      string `json:"key"`
	Kind     string `json:"kind"`
	TTL      int64  `json:"ttl"`
	Size     int64  `json:"size"`
	Encoding string `json:"encoding,omitempty"`
}

// ScanResult is one page of a cursor-based keyspace iteration.
type ScanResult struct {
	Keys    []KeyInfo `json:"keys"`
	Cursor  string    `json:"cursor"`
	HasMore bool      `json:"hasMore"`
}
