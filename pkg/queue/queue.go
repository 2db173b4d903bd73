// Package queue 定义资产管线的消息信封与主题.
//
// 发布/订阅解耦"提交、源分析、平台编译、变更广播"各环节；消息统一封装为
// Message[Payload] = EventHeader + Payload，JSON 编解码（bytedance/sonic）.
// 主题常量见 topics.go，负载结构见 payloads.go，发布助手见 events.go.
//
// 信封的 JSON 形如：
//
//	{
//	  "header": {
//	    "topic": "blink.asset.source.requested",
//	    "producer": "assetsrv",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于主题 ... }
//	}
//
// 构建作业消息的 ID 是 (topic, 资产, 平台, 版本) 的确定性哈希，配合
// JetStream 的 msg-id 去重，同一版本重复入队在 broker 端即被折叠；
// occurred_at 为 UTC RFC3339，version 供消费者做后向兼容.
package queue

import (
	"fmt"
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/cespare/xxhash/v2"
)

const PayloadVersionV1 = "v1"

// NewEventHeader 创建事件头，选项用于补充 trace/producer.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 信封编码为 JSON.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 解出信封.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// JobMessageID 构建作业的确定性消息 ID.
// 相同 (topic, parts...) 总是得到同一 ID，JetStream 按 msg-id 去重.
func JobMessageID(topic string, parts ...string) string {
	h := xxhash.New()
	_, _ = h.WriteString(topic)

	for _, p := range parts {
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(p)
	}

	return fmt.Sprintf("%016x", h.Sum64())
}

// NewWatermillMessage 把负载装进信封并转成 watermill 消息，头字段同步进 metadata.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)

	data, err := Encode(Message[T]{Header: header, Payload: payload})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)

	meta := map[string]string{
		"topic":       topic,
		"trace_id":    header.TraceID,
		"producer":    header.Producer,
		"occurred_at": header.OccurredAt.Format(time.RFC3339Nano),
		"version":     header.Version,
	}
	for k, v := range meta {
		if v != "" {
			msg.Metadata.Set(k, v)
		}
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
