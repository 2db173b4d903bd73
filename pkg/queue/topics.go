// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

import "fmt"

// 主题命名规范：blink.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：asset(资产构建)、session(编辑会话)
// 动作：构建相关(source/platform)、变更相关(changed)
// 状态：请求(requested)

const (
	// 资产构建领域.
	TopicAssetSourceRequested   = "blink.asset.source.requested"   // 请求对资产源文件进行分析（提取尺寸等源属性）
	TopicAssetPlatformRequested = "blink.asset.platform.requested" // 请求对指定平台进行资产编译

	// 变更通知领域.
	TopicAssetChangedPrefix = "blink.asset.changed" // 资产变更通知根主题，细分主题见 TopicAssetChanged
	TopicSessionChanged     = "blink.session.changed"
)

// TopicAssetChanged 返回指定资产类型的变更通知主题.
// 订阅方可按类型订阅（如 blink.asset.changed.texture）获取该类型全部资产的变更.
func TopicAssetChanged(assetType string) string {
	return fmt.Sprintf("%s.%s", TopicAssetChangedPrefix, assetType)
}

// TopicAssetChangedOne 返回单个资产的变更通知主题，
// 形如 blink.asset.changed.texture.0a1b2c3d，编辑器据此只监听当前打开的资产.
func TopicAssetChangedOne(assetType, id string) string {
	return fmt.Sprintf("%s.%s.%s", TopicAssetChangedPrefix, assetType, id)
}

// 主题分组，用于批量操作或权限控制.
var (
	// 构建作业相关主题集合.
	BuildTopics = []string{
		TopicAssetSourceRequested, TopicAssetPlatformRequested,
	}

	// 变更通知相关主题集合.
	NotifyTopics = []string{
		TopicAssetChangedPrefix, TopicSessionChanged,
	}
)
