// Package codec reads keys into typed values. Each container kind has a
// fixed fetch shape so a single read never pulls an unbounded payload:
// lists and sorted sets return the first 1000 entries, streams the first
// 100, strings, sets and hashes come back whole.
package codec

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"redistics/internal/model"
)

const (
	listReadLimit   = 1000
	zsetReadLimit   = 1000
	streamReadLimit = 100
)

// ReadValue fetches key as a typed value. A missing key yields KindNone
// rather than an error; a key whose kind changes between the TYPE probe
// and the fetch yields a TypeMismatchError.
func ReadValue(ctx context.Context, rdb *redis.Client, key string) (model.TypedValue, error) {
	kind, err := rdb.Type(ctx, key).Result()
	if err != nil {
		return model.TypedValue{}, fmt.Errorf("TYPE %s failed: %w", key, err)
	}

	switch kind {
	case model.KindNone:
		return model.TypedValue{Kind: model.KindNone}, nil
	case model.KindString:
		return readString(ctx, rdb, key)
	case model.KindList:
		return readList(ctx, rdb, key)
	case model.KindSet:
		return readSet(ctx, rdb, key)
	case model.KindZSet:
		return readZSet(ctx, rdb, key)
	case model.KindHash:
		return readHash(ctx, rdb, key)
	case model.KindStream:
		return readStream(ctx, rdb, key)
	}
	return model.TypedValue{}, fmt.Errorf("unsupported container kind %q for key %s", kind, key)
}

// ReadKey is ReadValue plus expiry and memory metadata. Size is -1 when
// the server cannot report memory usage.
func ReadKey(ctx context.Context, rdb *redis.Client, key string) (model.KeyValue, error) {
	value, err := ReadValue(ctx, rdb, key)
	if err != nil {
		return model.KeyValue{}, err
	}
	kv := model.KeyValue{Key: key, Kind: value.Kind, TTL: -2, Size: -1, Value: value}
	if value.Kind == model.KindNone {
		return kv, nil
	}

	ttl, err := rdb.TTL(ctx, key).Result()
	if err != nil {
		return model.KeyValue{}, fmt.Errorf("TTL %s failed: %w", key, err)
	}
	// go-redis reports the -1 (no expiry) and -2 (missing) replies as raw
	// negative durations.
	if ttl > 0 {
		kv.TTL = int64(ttl.Seconds())
	} else {
		kv.TTL = int64(ttl)
	}

	if n, err := rdb.MemoryUsage(ctx, key).Result(); err == nil && n > 0 {
		kv.Size = n
	}
	return kv, nil
}

func readString(ctx context.Context, rdb *redis.Client, key string) (model.TypedValue, error) {
	raw, err := rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return model.TypedValue{Kind: model.KindNone}, nil
	}
	if err != nil {
		return model.TypedValue{}, wrapRead("GET", key, err)
	}
	v := model.TypedValue{Kind: model.KindString}
	v.Str, v.Binary = model.EncodeBlob(raw)
	return v, nil
}

func readList(ctx context.Context, rdb *redis.Client, key string) (model.TypedValue, error) {
	items, err := rdb.LRange(ctx, key, 0, listReadLimit-1).Result()
	if err != nil {
		return model.TypedValue{}, wrapRead("LRANGE", key, err)
	}
	v := model.TypedValue{Kind: model.KindList, List: make([]string, len(items))}
	for i, item := range items {
		enc, bin := model.EncodeBlob(item)
		v.List[i] = enc
		v.Binary = v.Binary || bin
	}
	return v, nil
}

func readSet(ctx context.Context, rdb *redis.Client, key string) (model.TypedValue, error) {
	members, err := rdb.SMembers(ctx, key).Result()
	if err != nil {
		return model.TypedValue{}, wrapRead("SMEMBERS", key, err)
	}
	v := model.TypedValue{Kind: model.KindSet, Set: make([]string, len(members))}
	for i, m := range members {
		enc, bin := model.EncodeBlob(m)
		v.Set[i] = enc
		v.Binary = v.Binary || bin
	}
	return v, nil
}

func readZSet(ctx context.Context, rdb *redis.Client, key string) (model.TypedValue, error) {
	members, err := rdb.ZRangeWithScores(ctx, key, 0, zsetReadLimit-1).Result()
	if err != nil {
		return model.TypedValue{}, wrapRead("ZRANGE", key, err)
	}
	v := model.TypedValue{Kind: model.KindZSet, ZSet: make([]model.ZSetMember, len(members))}
	for i, m := range members {
		member := fmt.Sprint(m.Member)
		enc, bin := model.EncodeBlob(member)
		v.ZSet[i] = model.ZSetMember{Member: enc, Score: m.Score}
		v.Binary = v.Binary || bin
	}
	return v, nil
}

func readHash(ctx context.Context, rdb *redis.Client, key string) (model.TypedValue, error) {
	fields, err := rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return model.TypedValue{}, wrapRead("HGETALL", key, err)
	}
	v := model.TypedValue{Kind: model.KindHash, Hash: make(map[string]string, len(fields))}
	for field, val := range fields {
		ef, bf := model.EncodeBlob(field)
		ev, bv := model.EncodeBlob(val)
		v.Hash[ef] = ev
		v.Binary = v.Binary || bf || bv
	}
	return v, nil
}

func readStream(ctx context.Context, rdb *redis.Client, key string) (model.TypedValue, error) {
	msgs, err := rdb.XRangeN(ctx, key, "-", "+", streamReadLimit).Result()
	if err != nil {
		return model.TypedValue{}, wrapRead("XRANGE", key, err)
	}
	v := model.TypedValue{Kind: model.KindStream, Stream: make([]model.StreamEntry, len(msgs))}
	for i, msg := range msgs {
		entry := model.StreamEntry{ID: msg.ID, Fields: make(map[string]string, len(msg.Values))}
		for field, val := range msg.Values {
			s := fmt.Sprint(val)
			enc, bin := model.EncodeBlob(s)
			entry.Fields[field] = enc
			v.Binary = v.Binary || bin
		}
		v.Stream[i] = entry
	}
	return v, nil
}

// wrapRead turns a WRONGTYPE reply into the structured mismatch error so
// callers can tell a racing type change from a transport failure.
func wrapRead(op, key string, err error) error {
	if isWrongType(err) {
		return &model.TypeMismatchError{Key: key, Want: opKind(op), Got: "unknown"}
	}
	return fmt.Errorf("%s %s failed: %w", op, key, err)
}

func isWrongType(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "WRONGTYPE")
}

func opKind(op string) string {
	switch op {
	case "GET":
		return model.KindString
	case "LRANGE":
		return model.KindList
	case "SMEMBERS":
		return model.KindSet
	case "ZRANGE":
		return model.KindZSet
	case "HGETALL":
		return model.KindHash
	case "XRANGE":
		return model.KindStream
	}
	return op
}
