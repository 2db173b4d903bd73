package sessionstore_test

import (
	"context"
	"testing"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/sessionstore"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/storage/kv"
)

func newStore(t *testing.T) *sessionstore.Store {
	t.Helper()

	mem, err := kv.NewMemoryKV(context.Background(), &configs.KVConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("NewMemoryKV: %v", err)
	}

	return sessionstore.New(mem, nil)
}

func TestGetEmptySession(t *testing.T) {
	s := newStore(t)

	rec, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if len(rec.Doc) != 0 {
		t.Errorf("expected empty doc, got %v", rec.Doc)
	}
}

func TestApplyDeltaLastWriteWins(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, err := s.ApplyDelta(ctx, map[string]any{"selectionId": "0a1b2c3d"}); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	rec, err := s.ApplyDelta(ctx, map[string]any{"selectionId": "deadbeef", "panel": "inspector"})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	if rec.Doc["selectionId"] != "deadbeef" {
		t.Errorf("selectionId = %v", rec.Doc["selectionId"])
	}

	if rec.Doc["panel"] != "inspector" {
		t.Errorf("panel = %v", rec.Doc["panel"])
	}

	// 重新读取，持久化生效
	rec, err = s.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if rec.Doc["selectionId"] != "deadbeef" {
		t.Errorf("persisted selectionId = %v", rec.Doc["selectionId"])
	}

	if rec.UpdatedAt.IsZero() {
		t.Error("updatedAt not set")
	}
}

func TestApplyDeltaDottedPaths(t *testing.T) {
	s := newStore(t)

	rec, err := s.ApplyDelta(context.Background(), map[string]any{"view.zoom": 2})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	view, ok := rec.Doc["view"].(map[string]any)
	if !ok {
		t.Fatalf("view is %T", rec.Doc["view"])
	}

	if view["zoom"] != 2 {
		t.Errorf("view.zoom = %v", view["zoom"])
	}
}
