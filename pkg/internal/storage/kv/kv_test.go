package kv

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

func newMemory(t *testing.T) KVStore {
	t.Helper()

	store, err := NewMemoryKV(context.Background(), &configs.KVConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewMemoryKV: %v", err)
	}

	return store
}

func TestMemoryKVSetGet(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	if err := store.Set(ctx, "session", []byte(`{"selected":"0a1b2c3d"}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, "session")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if !bytes.Equal(got, []byte(`{"selected":"0a1b2c3d"}`)) {
		t.Fatalf("unexpected value: %s", got)
	}

	ok, err := store.Exists(ctx, "session")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true, nil", ok, err)
	}
}

func TestMemoryKVGetMissing(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	if _, err := store.Get(ctx, "absent"); err == nil {
		t.Fatal("expected error for missing key")
	}

	ok, err := store.Exists(ctx, "absent")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}

	if ok {
		t.Fatal("Exists reported a missing key")
	}
}

func TestMemoryKVTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	if err := store.Set(ctx, "ephemeral", []byte("x"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := store.Get(ctx, "ephemeral"); err == nil {
		t.Fatal("expected expired key to be gone")
	}
}

func TestMemoryKVDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemory(t)

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := store.Get(ctx, "k"); err == nil {
		t.Fatal("expected deleted key to be gone")
	}
}

func TestTTLWrapperRoundTrip(t *testing.T) {
	raw := []byte(`{"doc":{}}`)

	// ttl<=0 不包装
	plain, err := encodeWithTTL(raw, 0)
	if err != nil {
		t.Fatalf("encodeWithTTL: %v", err)
	}

	if !bytes.Equal(plain, raw) {
		t.Fatal("zero ttl should leave the value untouched")
	}

	wrapped, err := encodeWithTTL(raw, time.Hour)
	if err != nil {
		t.Fatalf("encodeWithTTL: %v", err)
	}

	if bytes.Equal(wrapped, raw) {
		t.Fatal("positive ttl should wrap the value")
	}

	got, expired, err := decodeWithTTL(wrapped, time.Now())
	if err != nil {
		t.Fatalf("decodeWithTTL: %v", err)
	}

	if expired {
		t.Fatal("value expired too early")
	}

	if !bytes.Equal(got, raw) {
		t.Fatalf("round trip mismatch: %s", got)
	}

	// 时钟拨过期限后判定过期
	_, expired, err = decodeWithTTL(wrapped, time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("decodeWithTTL: %v", err)
	}

	if !expired {
		t.Fatal("value should be expired")
	}
}

func TestRegisteredKVTypes(t *testing.T) {
	types := GetRegisteredKVTypes()

	found := map[KVType]bool{}
	for _, ty := range types {
		found[ty] = true
	}

	for _, want := range []KVType{KVTypeMemory, KVTypeNATS} {
		if !found[want] {
			t.Fatalf("kv type %s not registered", want)
		}
	}
}
