// Package mq 统一作业队列与变更通知的消息通道，基于 watermill，后端经工厂注册.
//
// 两类流量共用这条通道：
//   - 作业队列：JetStream 持久化，at-least-once，worker 竞争消费
//   - 变更通知：fire-and-forget，订阅者尽力接收
package mq

import (
	"context"
	"fmt"
	"sync"

	watermill "github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	nlog "github.com/gamepoet/blink-assetsrv/pkg/log"
	"github.com/gamepoet/blink-assetsrv/pkg/metrics"
)

// Factory 构建某一后端的 Publisher 与 Subscriber.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册后端工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredMQTypes 返回编入本次构建的后端类型.
func GetRegisteredMQTypes() []configs.MQType {
	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	return types
}

// Client 消息通道客户端.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

// Publish 依次发布消息，遇错即停.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	for _, m := range msgs {
		if err := c.publisher.Publish(topic, m); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}

	return nil
}

// Publisher 返回底层 Publisher，供 queue 包的类型化事件封装使用.
func (c *Client) Publisher() message.Publisher {
	if c == nil {
		return nil
	}

	return c.publisher
}

// Subscribe 订阅主题，消息经返回的 channel 投递，处理方负责 Ack/Nack.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Close 关闭发布与订阅两端，返回最后一个错误.
func (c *Client) Close() error {
	var last error

	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			last = err
		}
	}

	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			last = err
		}
	}

	return last
}

var (
	mqOnce sync.Once
	mqInst *Client
	mqErr  error
)

// New 初始化消息通道，进程内单例.
func New(ctx context.Context) (*Client, error) {
	mqOnce.Do(func() {
		cfg := configs.GetConfig().MQ

		factory, ok := factories[cfg.Type]
		if !ok {
			mqErr = fmt.Errorf("mq backend %s not built in", cfg.Type)
			return
		}

		pub, sub, err := factory(ctx, &cfg, &zerologAdapter{l: nlog.Logger()})
		if err != nil {
			mqErr = fmt.Errorf("init mq %s: %w", cfg.Type, err)
			return
		}

		if cfg.EnableMetrics && configs.GetConfig().Metrics.Enabled {
			pub, sub = decorateWithMetrics(pub, sub)
		}

		mqInst = &Client{publisher: pub, subscriber: sub}

		nlog.Logger().Info().Str("type", string(cfg.Type)).Msg("消息通道已初始化")
	})

	return mqInst, mqErr
}

// decorateWithMetrics 把发布/订阅挂上 watermill 的 prometheus 装饰器，指标进服务统一注册表.
func decorateWithMetrics(pub message.Publisher, sub message.Subscriber) (message.Publisher, message.Subscriber) {
	builder := wmetrics.NewPrometheusMetricsBuilder(metrics.GetRegistry(), configs.AppName, "mq")

	if decorated, err := builder.DecoratePublisher(pub); err == nil {
		pub = decorated
	}

	if decorated, err := builder.DecorateSubscriber(sub); err == nil {
		sub = decorated
	}

	return pub, sub
}
