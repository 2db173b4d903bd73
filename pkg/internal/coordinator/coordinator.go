// Package coordinator 实现资产构建的两阶段工作流：
// 源分析（提取固有属性、补齐默认目标元数据）与平台编译（产出平台二进制）.
// 所有跨 worker 的协调都经由记录存储的原子条件更新完成，阶段函数本身无锁.
package coordinator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/assetstore"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/assettype"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/blob"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/compressor"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/contentaddr"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
	nlog "github.com/gamepoet/blink-assetsrv/pkg/log"
	"github.com/gamepoet/blink-assetsrv/pkg/queue"
)

// Coordinator 驱动单类资产的构建流水线.
type Coordinator struct {
	records *assetstore.Store
	blobs   blob.Store
	comp    compressor.Compressor
	pub     message.Publisher
	cfg     *configs.PipelineConfig
}

// New 创建构建协调器.
func New(records *assetstore.Store, blobs blob.Store, comp compressor.Compressor,
	pub message.Publisher, cfg *configs.PipelineConfig) *Coordinator {
	return &Coordinator{
		records: records,
		blobs:   blobs,
		comp:    comp,
		pub:     pub,
		cfg:     cfg,
	}
}

// Submit 提交一个新资产：由规范化文件名派生 id，创建版本 0、全阶段未构建的记录.
// meta 是可选的初始元数据（如编辑器预设的目标配置）.
// 同一规范化文件名重复提交返回 ErrDuplicateID.
func (c *Coordinator) Submit(ctx context.Context, assetType, filename string, meta map[string]any) (*model.AssetRecord, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: empty filename", pipeline.ErrConfiguration)
	}

	if _, err := assettype.GetHandler(assetType); err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrConfiguration, err)
	}

	status := make(model.StatusMap, len(c.cfg.Platforms)+1)
	status[model.StageSource] = false

	for _, platform := range c.cfg.Platforms {
		status[platform] = false
	}

	metadata := make(model.MetaTree)
	for path, v := range model.Flatten(meta) {
		model.SetPath(metadata, path, v)
	}

	rec := &model.AssetRecord{
		ID:        contentaddr.ID(filename),
		AssetType: assetType,
		Filename:  filename,
		Version:   0,
		Status:    status,
		FileRefs:  make(model.RefMap),
		Metadata:  metadata,
	}

	if err := c.records.Create(ctx, rec); err != nil {
		return nil, err
	}

	nlog.Logger().Info().
		Str("asset_type", assetType).
		Str("id", rec.ID).
		Str("filename", filename).
		Msg("asset submitted")

	c.publishChanged(rec)

	return rec, nil
}

// AttachSource 存储资产的源字节并挂到记录上，然后入队源分析作业.
//
// 首次挂载不改版本号（记录还只是壳，没有人基于它构建过）；重新上传源文件
// 则作废全部平台产物并把版本加一，让仍在排队的旧编译作业自行失效.
func (c *Coordinator) AttachSource(ctx context.Context, assetType, id string, r io.Reader, size int64) (*model.AssetRecord, error) {
	rec, err := c.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ref, err := c.blobs.Put(ctx, blob.Key{AssetType: assetType, AssetID: id, Stage: model.StageSource}, r, size)
	if err != nil {
		return nil, fmt.Errorf("store source blob: %w", err)
	}

	reupload := rec.FileRefs[model.StageSource] != ""

	up := assetstore.Update{
		SetStatus: map[string]bool{model.StageSource: false},
		SetRefs:   map[string]string{model.StageSource: ref},
	}

	if reupload {
		up.IncVersion = true

		for _, platform := range c.cfg.Platforms {
			up.SetStatus[platform] = false
			up.UnsetRefs = append(up.UnsetRefs, platform)
		}
	}

	next, err := c.records.ConditionalUpdate(ctx, id, rec.Version, up)
	if err != nil {
		return nil, err
	}

	c.publishChanged(next)

	if err := queue.PublishSourceJob(c.pub, queue.SourceJobPayload{
		AssetType:  assetType,
		ID:         id,
		MinVersion: next.Version,
	}, queue.WithProducer(configs.AppName)); err != nil {
		return nil, fmt.Errorf("enqueue source job: %w", err)
	}

	return next, nil
}

// ProcessSource 执行源分析阶段.
//
// 记录缺失、版本落后或源阶段已完成时返回可丢弃错误，作业静默结束；
// 解码失败保持记录原状.提交成功后广播变更并为每个目标平台入队编译作业.
func (c *Coordinator) ProcessSource(ctx context.Context, assetType, id string, minVersion int64) (*model.AssetRecord, error) {
	rec, err := c.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.Version < minVersion {
		return nil, fmt.Errorf("asset %s at v%d, job wants >= v%d: %w",
			id, rec.Version, minVersion, pipeline.ErrConflict)
	}

	if rec.StageBuilt(model.StageSource) {
		// 重复投递：前置条件已不成立，幂等退出
		return nil, fmt.Errorf("asset %s source already built: %w", id, pipeline.ErrConflict)
	}

	handler, err := assettype.GetHandler(assetType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrConfiguration, err)
	}

	srcRef := rec.FileRefs[model.StageSource]
	if srcRef == "" {
		return nil, fmt.Errorf("asset %s has no source blob: %w", id, pipeline.ErrNotFound)
	}

	data, err := blob.ReadAll(ctx, c.blobs, srcRef)
	if err != nil {
		return nil, fmt.Errorf("load source blob: %w", err)
	}

	surface, err := c.comp.Decode(ctx, data)
	if err != nil {
		return nil, err
	}

	up := assetstore.Update{
		Guard: func(r *model.AssetRecord) bool { return !r.StageBuilt(model.StageSource) },
		SetStatus: map[string]bool{
			model.StageSource: true,
		},
		SetMeta: map[string]any{
			"source.height": surface.Height,
			"source.width":  surface.Width,
		},
	}

	// 目标元数据只在缺失时写入默认值，编辑器已写入的目标配置不被覆盖
	if _, hasTarget := rec.Metadata["target"]; !hasTarget {
		for key, value := range handler.DefaultTarget(rec.Filename, surface, c.cfg) {
			up.SetMeta["target.default."+key] = value
		}
	}

	next, err := c.records.ConditionalUpdate(ctx, id, rec.Version, up)
	if err != nil {
		return nil, err
	}

	c.publishChanged(next)

	for _, platform := range c.cfg.Platforms {
		if err := queue.PublishPlatformJob(c.pub, queue.PlatformJobPayload{
			AssetType:  assetType,
			ID:         id,
			Platform:   platform,
			MinVersion: next.Version,
		}, queue.WithProducer(configs.AppName)); err != nil {
			return nil, fmt.Errorf("enqueue platform job for %s: %w", platform, err)
		}
	}

	nlog.Logger().Info().
		Str("id", id).
		Int("height", surface.Height).
		Int("width", surface.Width).
		Msg("source analysis committed")

	return next, nil
}

// CompilePlatform 执行平台编译阶段.
//
// 以记录当前版本为基准产出平台二进制；提交时发现版本被推进则丢弃刚写入
// 的 blob 并静默退出，绝不把陈旧产物标记为已构建.
func (c *Coordinator) CompilePlatform(ctx context.Context, assetType, id, platform string, minVersion int64) (*model.AssetRecord, error) {
	rec, err := c.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.Version < minVersion {
		return nil, fmt.Errorf("asset %s at v%d, job wants >= v%d: %w",
			id, rec.Version, minVersion, pipeline.ErrConflict)
	}

	if !rec.StageBuilt(model.StageSource) {
		return nil, fmt.Errorf("asset %s source not built yet: %w", id, pipeline.ErrConflict)
	}

	if rec.StageBuilt(platform) {
		return nil, fmt.Errorf("asset %s already built for %s: %w", id, platform, pipeline.ErrConflict)
	}

	target, err := resolveTarget(rec, platform)
	if err != nil {
		return nil, err
	}

	srcRef := rec.FileRefs[model.StageSource]
	if srcRef == "" {
		return nil, fmt.Errorf("asset %s has no source blob: %w", id, pipeline.ErrNotFound)
	}

	data, err := blob.ReadAll(ctx, c.blobs, srcRef)
	if err != nil {
		return nil, fmt.Errorf("load source blob: %w", err)
	}

	surface, err := c.comp.Decode(ctx, data)
	if err != nil {
		return nil, err
	}

	encoded, err := c.comp.Encode(ctx, surface, target)
	if err != nil {
		return nil, err
	}

	ref, err := c.blobs.Put(ctx, blob.Key{AssetType: assetType, AssetID: id, Stage: platform},
		bytes.NewReader(encoded), int64(len(encoded)))
	if err != nil {
		return nil, fmt.Errorf("store platform blob: %w", err)
	}

	up := assetstore.Update{
		Guard: func(r *model.AssetRecord) bool {
			return r.StageBuilt(model.StageSource) && !r.StageBuilt(platform)
		},
		SetStatus: map[string]bool{platform: true},
		SetRefs:   map[string]string{platform: ref},
	}

	next, err := c.records.ConditionalUpdate(ctx, id, rec.Version, up)
	if err != nil {
		// 提交失败说明产物基于过期输入，清掉刚写入的 blob
		if delErr := c.blobs.Delete(ctx, ref); delErr != nil {
			nlog.Logger().Warn().Err(delErr).Str("ref", ref).Msg("failed to discard stale platform blob")
		}

		return nil, err
	}

	c.publishChanged(next)

	nlog.Logger().Info().
		Str("id", id).
		Str("platform", platform).
		Str("format", target.Format).
		Msg("platform build committed")

	return next, nil
}

// ApplyDelta 应用编辑器提交的元数据增量.
//
// 增量按点分路径并入 metadata，版本加一；任何有效目标值受影响的平台在
// 同一次原子更新里被置为未构建并移除其产物引用，随后以新版本重新入队.
func (c *Coordinator) ApplyDelta(ctx context.Context, assetType, id string, delta map[string]any) (*model.AssetRecord, error) {
	rec, err := c.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	flat := model.Flatten(delta)
	if len(flat) == 0 {
		return rec, nil
	}

	affected := c.affectedPlatforms(rec, flat)

	up := assetstore.Update{
		SetMeta:    flat,
		IncVersion: true,
	}

	if len(affected) > 0 {
		up.SetStatus = make(map[string]bool, len(affected))

		for _, platform := range affected {
			up.SetStatus[platform] = false
			up.UnsetRefs = append(up.UnsetRefs, platform)
		}
	}

	next, err := c.records.ConditionalUpdate(ctx, id, rec.Version, up)
	if err != nil {
		return nil, err
	}

	c.publishChanged(next)

	for _, platform := range affected {
		if err := queue.PublishPlatformJob(c.pub, queue.PlatformJobPayload{
			AssetType:  assetType,
			ID:         id,
			Platform:   platform,
			MinVersion: next.Version,
		}, queue.WithProducer(configs.AppName)); err != nil {
			return nil, fmt.Errorf("enqueue platform job for %s: %w", platform, err)
		}
	}

	nlog.Logger().Info().
		Str("id", id).
		Int64("version", next.Version).
		Strs("invalidated", affected).
		Msg("metadata delta applied")

	return next, nil
}

// affectedPlatforms 计算增量会改变哪些平台的有效目标元数据.
// target.default.<k> 影响所有没有对该键做平台覆盖的平台；
// target.<platform>.<k> 只影响该平台；target 以外的键不触发失效.
func (c *Coordinator) affectedPlatforms(rec *model.AssetRecord, flat map[string]any) []string {
	set := make(map[string]bool)

	for path := range flat {
		parts := strings.Split(path, ".")
		if len(parts) < 3 || parts[0] != "target" {
			continue
		}

		scope, key := parts[1], parts[2]

		if scope == "default" {
			for _, platform := range c.cfg.Platforms {
				if overridden(rec, platform, key) {
					continue
				}

				set[platform] = true
			}

			continue
		}

		for _, platform := range c.cfg.Platforms {
			if platform == scope {
				set[platform] = true
			}
		}
	}

	out := make([]string, 0, len(set))

	for _, platform := range c.cfg.Platforms {
		if set[platform] {
			out = append(out, platform)
		}
	}

	return out
}

// overridden 判断平台是否已有针对 key 的覆盖值.
func overridden(rec *model.AssetRecord, platform, key string) bool {
	return model.GetPath(rec.Metadata, "target."+platform+"."+key) != nil
}

// resolveTarget 解析平台的有效目标元数据：平台覆盖优先，缺省回落 default，
// default 也缺失则判定为配置错误.
func resolveTarget(rec *model.AssetRecord, platform string) (compressor.Target, error) {
	var target compressor.Target

	format, err := resolveString(rec, platform, "format")
	if err != nil {
		return target, err
	}

	semantic, err := resolveString(rec, platform, "semantic")
	if err != nil {
		return target, err
	}

	height, err := resolveInt(rec, platform, "height")
	if err != nil {
		return target, err
	}

	width, err := resolveInt(rec, platform, "width")
	if err != nil {
		return target, err
	}

	levels, err := resolveInt(rec, platform, "levels")
	if err != nil {
		return target, err
	}

	target = compressor.Target{
		Format:   format,
		Height:   height,
		Width:    width,
		Levels:   levels,
		Semantic: semantic,
	}

	return target, nil
}

func resolveString(rec *model.AssetRecord, platform, key string) (string, error) {
	v, ok := rec.EffectiveTarget(platform, key)
	if !ok {
		return "", fmt.Errorf("%w: missing target key %q for platform %s", pipeline.ErrConfiguration, key, platform)
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: target key %q is %T, want string", pipeline.ErrConfiguration, key, v)
	}

	return s, nil
}

func resolveInt(rec *model.AssetRecord, platform, key string) (int, error) {
	v, ok := rec.EffectiveTarget(platform, key)
	if !ok {
		return 0, fmt.Errorf("%w: missing target key %q for platform %s", pipeline.ErrConfiguration, key, platform)
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		// JSON 反序列化后的数值
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: target key %q is %T, want number", pipeline.ErrConfiguration, key, v)
	}
}

// publishChanged 广播记录变更，尽力而为，失败只记日志.
func (c *Coordinator) publishChanged(rec *model.AssetRecord) {
	if c.pub == nil {
		return
	}

	err := queue.PublishAssetChanged(c.pub, queue.AssetChangedPayload{
		AssetType: rec.AssetType,
		ID:        rec.ID,
		Version:   rec.Version,
		Doc:       rec,
	}, queue.WithProducer(configs.AppName))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("id", rec.ID).Msg("failed to publish asset change")
	}
}
