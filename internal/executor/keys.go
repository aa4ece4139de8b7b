package executor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"redistics/internal/model"
)

const (
	bulkDeletePage = 100
	maxBulkErrors  = 10

	// listRemoveSentinel marks a list slot for LREM. Chosen to be unlikely
	// in real data; a colliding element would be removed alongside it.
	listRemoveSentinel = "__DELETED__"
)

// SetString writes a string key; ttlSeconds <= 0 means no expiry.
func (e *Executor) SetString(ctx context.Context, key, value string, ttlSeconds int64) error {
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	if err := e.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("SET %s failed: %w", key, err)
	}
	return nil
}

// SetKeyTTL sets or clears a key's expiry. ttlSeconds < 0 persists the key.
func (e *Executor) SetKeyTTL(ctx context.Context, key string, ttlSeconds int64) error {
	if ttlSeconds < 0 {
		if err := e.rdb.Persist(ctx, key).Err(); err != nil {
			return fmt.Errorf("PERSIST %s failed: %w", key, err)
		}
		return nil
	}
	if err := e.rdb.Expire(ctx, key, time.Duration(ttlSeconds)*time.Second).Err(); err != nil {
		return fmt.Errorf("EXPIRE %s failed: %w", key, err)
	}
	return nil
}

// ListPush appends to a list on the chosen side.
func (e *Executor) ListPush(ctx context.Context, key, value string, left bool) error {
	var err error
	if left {
		err = e.rdb.LPush(ctx, key, value).Err()
	} else {
		err = e.rdb.RPush(ctx, key, value).Err()
	}
	if err != nil {
		return fmt.Errorf("push to %s failed: %w", key, err)
	}
	return nil
}

// ListRemove deletes the element at index. Lists have no direct delete, so
// the slot is overwritten with a sentinel and removed with LREM.
func (e *Executor) ListRemove(ctx context.Context, key string, index int64) error {
	if err := e.rdb.LSet(ctx, key, index, listRemoveSentinel).Err(); err != nil {
		return fmt.Errorf("LSET %s[%d] failed: %w", key, index, err)
	}
	if err := e.rdb.LRem(ctx, key, 1, listRemoveSentinel).Err(); err != nil {
		return fmt.Errorf("LREM %s failed: %w", key, err)
	}
	return nil
}

func (e *Executor) SetAdd(ctx context.Context, key, member string) error {
	if err := e.rdb.SAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("SADD %s failed: %w", key, err)
	}
	return nil
}

func (e *Executor) SetRemove(ctx context.Context, key, member string) error {
	if err := e.rdb.SRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("SREM %s failed: %w", key, err)
	}
	return nil
}

func (e *Executor) ZSetAdd(ctx context.Context, key, member string, score float64) error {
	if err := e.rdb.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("ZADD %s failed: %w", key, err)
	}
	return nil
}

func (e *Executor) ZSetRemove(ctx context.Context, key, member string) error {
	if err := e.rdb.ZRem(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("ZREM %s failed: %w", key, err)
	}
	return nil
}

func (e *Executor) HashSet(ctx context.Context, key, field, value string) error {
	if err := e.rdb.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("HSET %s failed: %w", key, err)
	}
	return nil
}

func (e *Executor) HashDelete(ctx context.Context, key, field string) error {
	if err := e.rdb.HDel(ctx, key, field).Err(); err != nil {
		return fmt.Errorf("HDEL %s failed: %w", key, err)
	}
	return nil
}

func (e *Executor) DeleteKey(ctx context.Context, key string) error {
	if err := e.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("DEL %s failed: %w", key, err)
	}
	return nil
}

func (e *Executor) RenameKey(ctx context.Context, key, newKey string) error {
	if err := e.rdb.Rename(ctx, key, newKey).Err(); err != nil {
		return fmt.Errorf("RENAME %s -> %s failed: %w", key, newKey, err)
	}
	return nil
}

// CopyKey duplicates a key without replacing an existing destination.
func (e *Executor) CopyKey(ctx context.Context, key, dest string) error {
	ok, err := e.rdb.Copy(ctx, key, dest, 0, false).Result()
	if err != nil {
		return fmt.Errorf("COPY %s -> %s failed: %w", key, dest, err)
	}
	if ok == 0 {
		return fmt.Errorf("COPY %s -> %s refused: destination exists or source missing", key, dest)
	}
	return nil
}

// ScanKeys returns one page of the keyspace iteration, each key enriched
// with its kind, ttl and best-effort memory/encoding metadata. The cursor
// is the store's own; "0" back from the server means the iteration is done.
func (e *Executor) ScanKeys(ctx context.Context, pattern, cursor string, count int64) (model.ScanResult, error) {
	if pattern == "" {
		pattern = "*"
	}
	if count <= 0 {
		count = 100
	}
	cur, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("bad cursor %q: %w", cursor, err)
	}

	keys, next, err := e.rdb.Scan(ctx, cur, pattern, count).Result()
	if err != nil {
		return model.ScanResult{}, fmt.Errorf("SCAN failed: %w", err)
	}

	infos := make([]model.KeyInfo, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, e.keyInfo(ctx, key))
	}
	return model.ScanResult{
		Keys:    infos,
		Cursor:  strconv.FormatUint(next, 10),
		HasMore: next != 0,
	}, nil
}

func (e *Executor) keyInfo(ctx context.Context, key string) model.KeyInfo {
	info := model.KeyInfo{Key: key, Kind: "unknown", TTL: -1, Size: -1}
	if kind, err := e.rdb.Type(ctx, key).Result(); err == nil {
		info.Kind = kind
	}
	if ttl, err := e.rdb.TTL(ctx, key).Result(); err == nil {
		if ttl > 0 {
			info.TTL = int64(ttl.Seconds())
		} else {
			info.TTL = int64(ttl)
		}
	}
	if n, err := e.rdb.MemoryUsage(ctx, key).Result(); err == nil && n > 0 {
		info.Size = n
	}
	if enc, err := e.rdb.ObjectEncoding(ctx, key).Result(); err == nil {
		info.Encoding = enc
	}
	return info
}

// BulkDelete removes every key matching pattern, page by page. A failing
// key is counted and skipped, never aborting the sweep; at most the first
// ten failure messages are kept.
func (e *Executor) BulkDelete(ctx context.Context, pattern string) (model.BulkDeleteResult, error) {
	if pattern == "" {
		return model.BulkDeleteResult{}, fmt.Errorf("empty pattern")
	}
	start := time.Now()
	result := model.BulkDeleteResult{Errors: []string{}}

	var cursor uint64
	for {
		keys, next, err := e.rdb.Scan(ctx, cursor, pattern, bulkDeletePage).Result()
		if err != nil {
			return result, fmt.Errorf("SCAN failed mid-sweep: %w", err)
		}
		for _, key := range keys {
			if err := e.del(ctx, key); err != nil {
				result.FailedCount++
				if len(result.Errors) < maxBulkErrors {
					result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", key, err))
				}
				continue
			}
			result.DeletedCount++
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	result.Elapsed = time.Since(start).Milliseconds()
	return result, nil
}
