package queue

import (
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"
)

// -------------------------- 基于业务封装 events --------------------------

// PublishSourceJob 发布 blink.asset.source.requested 作业。
// 消息 ID 由资产与版本确定性生成，同一版本重复入队会被 JetStream 折叠。
func PublishSourceJob(pub message.Publisher, payload SourceJobPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAssetSourceRequested, payload, opts...)
	if err != nil {
		return err
	}

	msg.UUID = JobMessageID(TopicAssetSourceRequested,
		payload.AssetType, payload.ID, strconv.FormatInt(payload.MinVersion, 10))

	return pub.Publish(TopicAssetSourceRequested, msg)
}

// ParseSourceJob 将 Watermill 消息解析为强类型 Envelope（SourceJobPayload）。
func ParseSourceJob(msg *message.Message) (Message[SourceJobPayload], error) {
	return ParseWatermillMessage[SourceJobPayload](msg)
}

// PublishPlatformJob 发布 blink.asset.platform.requested 作业。
func PublishPlatformJob(pub message.Publisher, payload PlatformJobPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAssetPlatformRequested, payload, opts...)
	if err != nil {
		return err
	}

	msg.UUID = JobMessageID(TopicAssetPlatformRequested,
		payload.AssetType, payload.ID, payload.Platform, strconv.FormatInt(payload.MinVersion, 10))

	return pub.Publish(TopicAssetPlatformRequested, msg)
}

// ParsePlatformJob 将 Watermill 消息解析为强类型 Envelope（PlatformJobPayload）。
func ParsePlatformJob(msg *message.Message) (Message[PlatformJobPayload], error) {
	return ParseWatermillMessage[PlatformJobPayload](msg)
}

// PublishAssetChanged 发布资产变更通知。
// 同一事件会发往两个主题：类型级（blink.asset.changed.<type>）与
// 资产级（blink.asset.changed.<type>.<id>），编辑器按需选择订阅粒度。
func PublishAssetChanged(pub message.Publisher, payload AssetChangedPayload, opts ...func(*EventHeader)) error {
	topics := []string{
		TopicAssetChanged(payload.AssetType),
		TopicAssetChangedOne(payload.AssetType, payload.ID),
	}

	for _, topic := range topics {
		msg, err := NewWatermillMessage(topic, payload, opts...)
		if err != nil {
			return err
		}

		if err := pub.Publish(topic, msg); err != nil {
			return err
		}
	}

	return nil
}

// ParseAssetChanged 将 Watermill 消息解析为强类型 Envelope（AssetChangedPayload）。
func ParseAssetChanged(msg *message.Message) (Message[AssetChangedPayload], error) {
	return ParseWatermillMessage[AssetChangedPayload](msg)
}

// PublishSessionChanged 发布会话文档变更通知。
func PublishSessionChanged(pub message.Publisher, payload SessionChangedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicSessionChanged, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicSessionChanged, msg)
}

// ParseSessionChanged 将 Watermill 消息解析为强类型 Envelope（SessionChangedPayload）。
func ParseSessionChanged(msg *message.Message) (Message[SessionChangedPayload], error) {
	return ParseWatermillMessage[SessionChangedPayload](msg)
}
