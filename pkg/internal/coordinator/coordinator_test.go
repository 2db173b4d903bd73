package coordinator_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/assetstore"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/blob"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/compressor"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/coordinator"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
	"github.com/gamepoet/blink-assetsrv/pkg/queue"
)

// fakePublisher 记录发布的消息，按主题分桶.
type fakePublisher struct {
	mu     sync.Mutex
	byTopic map[string][]*message.Message
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{byTopic: make(map[string][]*message.Message)}
}

func (p *fakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.byTopic[topic] = append(p.byTopic[topic], msgs...)

	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.byTopic[topic])
}

func (p *fakePublisher) last(topic string) *message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	msgs := p.byTopic[topic]
	if len(msgs) == 0 {
		return nil
	}

	return msgs[len(msgs)-1]
}

// hookBlobStore 在 Put 前触发回调，用于在提交窗口内模拟并发写入.
type hookBlobStore struct {
	blob.Store
	onPut func()
}

func (h *hookBlobStore) Put(ctx context.Context, key blob.Key, r io.Reader, size int64) (string, error) {
	if h.onPut != nil {
		h.onPut()
	}

	return h.Store.Put(ctx, key, r, size)
}

type fixture struct {
	coord   *coordinator.Coordinator
	records *assetstore.Store
	blobs   *blob.MemoryStore
	pub     *fakePublisher
	cfg     *configs.PipelineConfig
}

func newFixture(t *testing.T, platforms ...string) *fixture {
	t.Helper()

	if len(platforms) == 0 {
		platforms = []string{"osx_x64"}
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	records := assetstore.New(db)
	if err := records.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	blobs := blob.NewMemory()
	pub := newFakePublisher()
	cfg := &configs.PipelineConfig{
		Platforms:     platforms,
		DefaultFormat: "dxt5",
		DefaultLevels: 1,
	}

	return &fixture{
		coord:   coordinator.New(records, blobs, compressor.NewStdImage(), pub, cfg),
		records: records,
		blobs:   blobs,
		pub:     pub,
		cfg:     cfg,
	}
}

// withBlobHook 重建协调器，换用带 Put 回调的 blob 存储.
func (f *fixture) withBlobHook(onPut func()) {
	f.coord = coordinator.New(f.records, &hookBlobStore{Store: f.blobs, onPut: onPut},
		compressor.NewStdImage(), f.pub, f.cfg)
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 0x40, A: 0xff})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}

	return buf.Bytes()
}

// submitWithSource 走完提交与源挂载两步，返回记录.
func submitWithSource(t *testing.T, f *fixture, filename string) *model.AssetRecord {
	t.Helper()

	ctx := context.Background()

	rec, err := f.coord.Submit(ctx, model.AssetTypeTexture, filename, nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	data := pngBytes(t, 16, 8)

	rec, err = f.coord.AttachSource(ctx, model.AssetTypeTexture, rec.ID, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("AttachSource: %v", err)
	}

	return rec
}

func TestSubmitCreatesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.coord.Submit(ctx, model.AssetTypeTexture, "env/Bricks_Normal.png", nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(rec.ID) != 8 {
		t.Errorf("id = %q, want 8 hex chars", rec.ID)
	}

	if rec.Version != 0 {
		t.Errorf("version = %d, want 0", rec.Version)
	}

	if rec.Status[model.StageSource] || rec.Status["osx_x64"] {
		t.Errorf("expected all stages unbuilt, got %v", rec.Status)
	}

	// 同一规范化文件名（大小写、分隔符归一后相同）重复提交
	if _, err := f.coord.Submit(ctx, model.AssetTypeTexture, `env\bricks_normal.png`, nil); !errors.Is(err, pipeline.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestAttachSourceEnqueuesJob(t *testing.T) {
	f := newFixture(t)

	rec := submitWithSource(t, f, "bricks.png")

	if rec.Version != 0 {
		t.Errorf("first attach must not bump version, got %d", rec.Version)
	}

	if rec.FileRefs[model.StageSource] == "" {
		t.Error("source ref missing")
	}

	if f.pub.count(queue.TopicAssetSourceRequested) != 1 {
		t.Errorf("expected 1 source job, got %d", f.pub.count(queue.TopicAssetSourceRequested))
	}

	// submit 一次 + attach 一次
	if f.pub.count(queue.TopicAssetChanged(model.AssetTypeTexture)) != 2 {
		t.Error("expected change notifications on submit and attach")
	}
}

func TestProcessSourceCommitsAndFansOut(t *testing.T) {
	f := newFixture(t, "osx_x64", "win_x64")
	ctx := context.Background()

	rec := submitWithSource(t, f, "wall_n.png")

	next, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version)
	if err != nil {
		t.Fatalf("ProcessSource: %v", err)
	}

	if next.Version != 0 {
		t.Errorf("source commit must not bump version, got %d", next.Version)
	}

	if !next.StageBuilt(model.StageSource) {
		t.Error("source stage not marked built")
	}

	if h := model.GetPath(next.Metadata, "source.height"); h != 8 {
		t.Errorf("source.height = %v, want 8", h)
	}

	if w := model.GetPath(next.Metadata, "source.width"); w != 16 {
		t.Errorf("source.width = %v, want 16", w)
	}

	if sem := model.GetPath(next.Metadata, "target.default.semantic"); sem != "normalmap" {
		t.Errorf("semantic = %v, want normalmap", sem)
	}

	if format := model.GetPath(next.Metadata, "target.default.format"); format != "dxt5" {
		t.Errorf("format = %v, want dxt5", format)
	}

	// 每个目标平台各一个编译作业
	if got := f.pub.count(queue.TopicAssetPlatformRequested); got != 2 {
		t.Errorf("expected 2 platform jobs, got %d", got)
	}
}

func TestProcessSourceKeepsExistingTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := submitWithSource(t, f, "bricks.png")

	// 编辑器先于源分析写入了目标配置
	rec, err := f.coord.ApplyDelta(ctx, model.AssetTypeTexture, rec.ID, map[string]any{
		"target": map[string]any{"default": map[string]any{"format": "dxt1"}},
	})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	next, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version)
	if err != nil {
		t.Fatalf("ProcessSource: %v", err)
	}

	if format := model.GetPath(next.Metadata, "target.default.format"); format != "dxt1" {
		t.Errorf("existing target overwritten: format = %v", format)
	}

	if sem := model.GetPath(next.Metadata, "target.default.semantic"); sem != nil {
		t.Errorf("defaults merged despite existing target: semantic = %v", sem)
	}
}

func TestProcessSourceIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := submitWithSource(t, f, "bricks.png")

	if _, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version); err != nil {
		t.Fatalf("ProcessSource: %v", err)
	}

	published := f.pub.count(queue.TopicAssetChanged(model.AssetTypeTexture))

	_, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version)
	if !pipeline.Discardable(err) {
		t.Fatalf("expected discardable error on replay, got %v", err)
	}

	if got := f.pub.count(queue.TopicAssetChanged(model.AssetTypeTexture)); got != published {
		t.Error("replay must not republish")
	}

	after, err := f.records.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if after.Version != 0 {
		t.Errorf("replay changed version to %d", after.Version)
	}
}

func TestCompilePlatformCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := submitWithSource(t, f, "bricks.png")

	rec, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version)
	if err != nil {
		t.Fatalf("ProcessSource: %v", err)
	}

	next, err := f.coord.CompilePlatform(ctx, model.AssetTypeTexture, rec.ID, "osx_x64", rec.Version)
	if err != nil {
		t.Fatalf("CompilePlatform: %v", err)
	}

	if !next.StageBuilt("osx_x64") {
		t.Error("platform not marked built")
	}

	ref := next.FileRefs["osx_x64"]
	if ref == "" {
		t.Fatal("platform ref missing")
	}

	data, err := blob.ReadAll(ctx, f.blobs, ref)
	if err != nil {
		t.Fatalf("read platform blob: %v", err)
	}

	if string(data[:4]) != "BTEX" {
		t.Errorf("unexpected platform blob header %q", data[:4])
	}

	// 重复投递同一编译作业是空操作
	_, err = f.coord.CompilePlatform(ctx, model.AssetTypeTexture, rec.ID, "osx_x64", rec.Version)
	if !pipeline.Discardable(err) {
		t.Fatalf("expected discardable error on replay, got %v", err)
	}
}

func TestCompilePlatformStaleBuildDiscarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := submitWithSource(t, f, "bricks.png")

	rec, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version)
	if err != nil {
		t.Fatalf("ProcessSource: %v", err)
	}

	blobsBefore := f.blobs.Len()

	// 平台产物写入 blob 存储的瞬间，编辑器并发推进了记录版本
	f.withBlobHook(func() {
		if _, err := f.coord.ApplyDelta(ctx, model.AssetTypeTexture, rec.ID, map[string]any{
			"target": map[string]any{"default": map[string]any{"height": 4}},
		}); err != nil {
			t.Errorf("concurrent ApplyDelta: %v", err)
		}
	})

	_, err = f.coord.CompilePlatform(ctx, model.AssetTypeTexture, rec.ID, "osx_x64", rec.Version)
	if !errors.Is(err, pipeline.ErrConflict) {
		t.Fatalf("expected ErrConflict for stale build, got %v", err)
	}

	// 陈旧产物必须被清理，不能留下无主 blob
	if f.blobs.Len() != blobsBefore {
		t.Errorf("stale blob not discarded: %d objects, want %d", f.blobs.Len(), blobsBefore)
	}

	after, err := f.records.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if after.StageBuilt("osx_x64") {
		t.Error("stale build must not mark platform built")
	}
}

func TestApplyDeltaInvalidatesPlatforms(t *testing.T) {
	f := newFixture(t, "osx_x64", "win_x64")
	ctx := context.Background()

	rec := submitWithSource(t, f, "bricks.png")

	rec, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version)
	if err != nil {
		t.Fatalf("ProcessSource: %v", err)
	}

	for _, platform := range []string{"osx_x64", "win_x64"} {
		rec, err = f.coord.CompilePlatform(ctx, model.AssetTypeTexture, rec.ID, platform, rec.Version)
		if err != nil {
			t.Fatalf("CompilePlatform(%s): %v", platform, err)
		}
	}

	jobsBefore := f.pub.count(queue.TopicAssetPlatformRequested)

	next, err := f.coord.ApplyDelta(ctx, model.AssetTypeTexture, rec.ID, map[string]any{
		"target": map[string]any{"default": map[string]any{"height": 4, "width": 4}},
	})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	if next.Version != rec.Version+1 {
		t.Errorf("version = %d, want %d", next.Version, rec.Version+1)
	}

	for _, platform := range []string{"osx_x64", "win_x64"} {
		if next.StageBuilt(platform) {
			t.Errorf("platform %s still marked built", platform)
		}

		if _, ok := next.FileRefs[platform]; ok {
			t.Errorf("platform %s ref not removed", platform)
		}
	}

	// 源阶段不受目标变更影响
	if !next.StageBuilt(model.StageSource) {
		t.Error("source stage must survive a target delta")
	}

	if got := f.pub.count(queue.TopicAssetPlatformRequested) - jobsBefore; got != 2 {
		t.Errorf("expected 2 re-enqueued platform jobs, got %d", got)
	}

	// 重新入队的作业携带新版本
	env, err := queue.ParsePlatformJob(f.pub.last(queue.TopicAssetPlatformRequested))
	if err != nil {
		t.Fatalf("ParsePlatformJob: %v", err)
	}

	if env.Payload.MinVersion != next.Version {
		t.Errorf("job min_version = %d, want %d", env.Payload.MinVersion, next.Version)
	}
}

func TestApplyDeltaPlatformOverrideScopesInvalidation(t *testing.T) {
	f := newFixture(t, "osx_x64", "win_x64")
	ctx := context.Background()

	rec := submitWithSource(t, f, "bricks.png")

	rec, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version)
	if err != nil {
		t.Fatalf("ProcessSource: %v", err)
	}

	for _, platform := range []string{"osx_x64", "win_x64"} {
		rec, err = f.coord.CompilePlatform(ctx, model.AssetTypeTexture, rec.ID, platform, rec.Version)
		if err != nil {
			t.Fatalf("CompilePlatform(%s): %v", platform, err)
		}
	}

	// 平台专属覆盖只会作废该平台
	next, err := f.coord.ApplyDelta(ctx, model.AssetTypeTexture, rec.ID, map[string]any{
		"target": map[string]any{"win_x64": map[string]any{"format": "dxt1"}},
	})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	if next.StageBuilt("win_x64") {
		t.Error("win_x64 should be invalidated")
	}

	if !next.StageBuilt("osx_x64") {
		t.Error("osx_x64 must be untouched by a win_x64 override")
	}

	// 重建 win_x64，验证后续 default 上同一键的变更不再影响它
	rec, err = f.coord.CompilePlatform(ctx, model.AssetTypeTexture, rec.ID, "win_x64", next.Version)
	if err != nil {
		t.Fatalf("CompilePlatform(win_x64): %v", err)
	}

	next, err = f.coord.ApplyDelta(ctx, model.AssetTypeTexture, rec.ID, map[string]any{
		"target": map[string]any{"default": map[string]any{"format": "rgba8"}},
	})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	if next.StageBuilt("osx_x64") {
		t.Error("osx_x64 should be invalidated by default format change")
	}

	if !next.StageBuilt("win_x64") {
		t.Error("win_x64 has an override for format and must not be re-invalidated")
	}
}

func TestApplyDeltaNonTargetKeysOnlyBumpVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := submitWithSource(t, f, "bricks.png")

	rec, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version)
	if err != nil {
		t.Fatalf("ProcessSource: %v", err)
	}

	rec, err = f.coord.CompilePlatform(ctx, model.AssetTypeTexture, rec.ID, "osx_x64", rec.Version)
	if err != nil {
		t.Fatalf("CompilePlatform: %v", err)
	}

	next, err := f.coord.ApplyDelta(ctx, model.AssetTypeTexture, rec.ID, map[string]any{
		"tags": map[string]any{"note": "hero asset"},
	})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	if next.Version != rec.Version+1 {
		t.Errorf("version = %d, want %d", next.Version, rec.Version+1)
	}

	if !next.StageBuilt("osx_x64") {
		t.Error("non-target delta must not invalidate platforms")
	}

	if note := model.GetPath(next.Metadata, "tags.note"); note != "hero asset" {
		t.Errorf("tags.note = %v", note)
	}
}

func TestApplyDeltaNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.ApplyDelta(context.Background(), model.AssetTypeTexture, "deadbeef", map[string]any{
		"target": map[string]any{"default": map[string]any{"height": 4}},
	})
	if !errors.Is(err, pipeline.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttachSourceReuploadInvalidatesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := submitWithSource(t, f, "bricks.png")

	rec, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version)
	if err != nil {
		t.Fatalf("ProcessSource: %v", err)
	}

	rec, err = f.coord.CompilePlatform(ctx, model.AssetTypeTexture, rec.ID, "osx_x64", rec.Version)
	if err != nil {
		t.Fatalf("CompilePlatform: %v", err)
	}

	data := pngBytes(t, 32, 32)

	next, err := f.coord.AttachSource(ctx, model.AssetTypeTexture, rec.ID, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("AttachSource: %v", err)
	}

	if next.Version != rec.Version+1 {
		t.Errorf("re-upload must bump version, got %d", next.Version)
	}

	if next.StageBuilt(model.StageSource) || next.StageBuilt("osx_x64") {
		t.Errorf("re-upload must reset all stages, got %v", next.Status)
	}

	if _, ok := next.FileRefs["osx_x64"]; ok {
		t.Error("platform ref must be removed on re-upload")
	}

	// 旧版本的编译作业此时已无法提交
	_, err = f.coord.CompilePlatform(ctx, model.AssetTypeTexture, rec.ID, "osx_x64", rec.Version)
	if !pipeline.Discardable(err) {
		t.Fatalf("stale compile job should be discardable, got %v", err)
	}
}

func TestCompilePlatformMissingDefaultIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := submitWithSource(t, f, "bricks.png")

	rec, err := f.coord.ProcessSource(ctx, model.AssetTypeTexture, rec.ID, rec.Version)
	if err != nil {
		t.Fatalf("ProcessSource: %v", err)
	}

	// 删除 default.format 后该平台的有效目标无法解析
	rec, err = f.coord.ApplyDelta(ctx, model.AssetTypeTexture, rec.ID, map[string]any{
		"target": map[string]any{"default": map[string]any{"format": nil}},
	})
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	_, err = f.coord.CompilePlatform(ctx, model.AssetTypeTexture, rec.ID, "osx_x64", rec.Version)
	if !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
