package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Container kinds as reported by the store's TYPE command. KindNone marks a
// missing key and is a distinguished result, not an error.
const (
	KindString = "string"
	KindList   = "list"
	KindSet    = "set"
	KindZSet   = "zset"
	KindHash   = "hash"
	KindStream = "stream"
	KindNone   = "none"
)

// ZSetMember is one (member, score) pair of a sorted set.
type ZSetMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// StreamEntry is one (id, field-map) record of a stream.
type StreamEntry struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// TypedValue is a closed tagged union over the container kinds. Exactly the
// variant matching Kind is populated. Payload bytes that are not valid UTF-8
// are base64-encoded in place and the Binary flag is set, so nothing is ever
// truncated or corrupted in transport.
type TypedValue struct {
	Kind   string
	Binary bool

	Str    string
	List   []string
	Set    []string
	ZSet   []ZSetMember
	Hash   map[string]string
	Stream []StreamEntry
}

// KeyValue is the full read of one key: its container kind, expiry, reported
// memory footprint (-1 when unknown) and decoded value.
type KeyValue struct {
	Key   string     `json:"key"`
	Kind  string     `json:"kind"`
	TTL   int64      `json:"ttl"`
	Size  int64      `json:"size"`
	Value TypedValue `json:"value"`
}

// MarshalJSON emits the canonical transport shape: a kind tag and one
// kind-matched payload under "value".
func (v TypedValue) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Kind {
	case KindString:
		payload = v.Str
	case KindList:
		payload = v.List
	case KindSet:
		payload = v.Set
	case KindZSet:
		payload = v.ZSet
	case KindHash:
		payload = v.Hash
	case KindStream:
		payload = v.Stream
	case KindNone:
		payload = nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", v.Kind)
	}
	return json.Marshal(struct {
		Kind   string `json:"kind"`
		Binary bool   `json:"binary,omitempty"`
		Value  any    `json:"value"`
	}{v.Kind, v.Binary, payload})
}

// EncodeBlob returns s unchanged when it is valid UTF-8, otherwise its
// base64 encoding and true.
func EncodeBlob(s string) (string, bool) {
	if utf8.ValidString(s) {
		return s, false
	}
	return base64.StdEncoding.EncodeToString([]byte(s)), true
}
