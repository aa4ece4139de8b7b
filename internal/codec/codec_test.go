package codec

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"redistics/internal/model"
)

func testClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return srv, rdb
}

func TestReadValueString(t *testing.T) {
	srv, rdb := testClient(t)
	srv.Set("greeting", "hello")

	v, err := ReadValue(context.Background(), rdb, "greeting")
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != model.KindString || v.Str != "hello" || v.Binary {
		t.Errorf("value = %+v", v)
	}
}

func TestReadValueBinaryString(t *testing.T) {
	srv, rdb := testClient(t)
	blob := "\xff\xfe\x00payload"
	srv.Set("blob", blob)

	v, err := ReadValue(context.Background(), rdb, "blob")
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if !v.Binary {
		t.Fatal("non-UTF-8 payload should set the binary flag")
	}
	decoded, err := base64.StdEncoding.DecodeString(v.Str)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if string(decoded) != blob {
		t.Errorf("decoded = %q, want %q", decoded, blob)
	}
}

func TestReadValueMissingKey(t *testing.T) {
	_, rdb := testClient(t)

	v, err := ReadValue(context.Background(), rdb, "no-such-key")
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != model.KindNone {
		t.Errorf("kind = %q, want none", v.Kind)
	}
}

func TestReadValueList(t *testing.T) {
	srv, rdb := testClient(t)
	srv.RPush("queue", "a", "b", "c")

	v, err := ReadValue(context.Background(), rdb, "queue")
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != model.KindList || len(v.List) != 3 {
		t.Fatalf("value = %+v", v)
	}
	if v.List[0] != "a" || v.List[2] != "c" {
		t.Errorf("list order = %v", v.List)
	}
}

func TestReadValueListTruncated(t *testing.T) {
	srv, rdb := testClient(t)
	for i := 0; i < 1200; i++ {
		srv.RPush("big", fmt.Sprintf("item-%d", i))
	}

	v, err := ReadValue(context.Background(), rdb, "big")
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if len(v.List) != listReadLimit {
		t.Errorf("read %d items, want %d", len(v.List), listReadLimit)
	}
	if v.List[0] != "item-0" {
		t.Errorf("first item = %q", v.List[0])
	}
}

func TestReadValueSet(t *testing.T) {
	srv, rdb := testClient(t)
	srv.SetAdd("tags", "x", "y")

	v, err := ReadValue(context.Background(), rdb, "tags")
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != model.KindSet || len(v.Set) != 2 {
		t.Fatalf("value = %+v", v)
	}
	members := append([]string(nil), v.Set...)
	sort.Strings(members)
	if members[0] != "x" || members[1] != "y" {
		t.Errorf("members = %v", members)
	}
}

func TestReadValueZSet(t *testing.T) {
	srv, rdb := testClient(t)
	srv.ZAdd("board", 2.5, "alice")
	srv.ZAdd("board", 1.0, "bob")

	v, err := ReadValue(context.Background(), rdb, "board")
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != model.KindZSet || len(v.ZSet) != 2 {
		t.Fatalf("value = %+v", v)
	}
	// Ascending score order.
	if v.ZSet[0].Member != "bob" || v.ZSet[0].Score != 1.0 {
		t.Errorf("first member = %+v", v.ZSet[0])
	}
	if v.ZSet[1].Member != "alice" || v.ZSet[1].Score != 2.5 {
		t.Errorf("second member = %+v", v.ZSet[1])
	}
}

func TestReadValueHash(t *testing.T) {
	srv, rdb := testClient(t)
	srv.HSet("user:1", "name", "ada", "role", "admin")

	v, err := ReadValue(context.Background(), rdb, "user:1")
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != model.KindHash {
		t.Fatalf("kind = %q", v.Kind)
	}
	if v.Hash["name"] != "ada" || v.Hash["role"] != "admin" {
		t.Errorf("hash = %v", v.Hash)
	}
}

func TestReadKeyMetadata(t *testing.T) {
	srv, rdb := testClient(t)
	srv.Set("session", "tok")
	srv.SetTTL("session", 90*time.Second)

	kv, err := ReadKey(context.Background(), rdb, "session")
	if err != nil {
		t.Fatalf("ReadKey: %v", err)
	}
	if kv.Key != "session" || kv.Kind != model.KindString {
		t.Errorf("kv = %+v", kv)
	}
	if kv.TTL <= 0 || kv.TTL > 90 {
		t.Errorf("ttl = %d, want (0, 90]", kv.TTL)
	}

	srv.Set("forever", "v")
	kv, err = ReadKey(context.Background(), rdb, "forever")
	if err != nil {
		t.Fatalf("ReadKey: %v", err)
	}
	if kv.TTL != -1 {
		t.Errorf("ttl = %d, want -1 for a key without expiry", kv.TTL)
	}

	kv, err = ReadKey(context.Background(), rdb, "missing")
	if err != nil {
		t.Fatalf("ReadKey: %v", err)
	}
	if kv.Kind != model.KindNone || kv.TTL != -2 {
		t.Errorf("missing key kv = %+v", kv)
	}
}

func TestReadValueStream(t *testing.T) {
	srv, rdb := testClient(t)
	if _, err := srv.XAdd("events", "1-1", []string{"action", "login"}); err != nil {
		t.Fatalf("XAdd: %v", err)
	}
	if _, err := srv.XAdd("events", "2-1", []string{"action", "logout"}); err != nil {
		t.Fatalf("XAdd: %v", err)
	}

	v, err := ReadValue(context.Background(), rdb, "events")
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != model.KindStream || len(v.Stream) != 2 {
		t.Fatalf("value = %+v", v)
	}
	if v.Stream[0].ID != "1-1" || v.Stream[0].Fields["action"] != "login" {
		t.Errorf("entry 0 = %+v", v.Stream[0])
	}
}
