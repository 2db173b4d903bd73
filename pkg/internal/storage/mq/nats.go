// NATS 后端：作业队列靠 JetStream 的持久化与重投递，变更通知走同一连接的普通 subject.

package mq

import (
	"context"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

const (
	drainTimeout   = 30 * time.Second
	flusherTimeout = 10 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

func natsFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter,
) (message.Publisher, message.Subscriber, error) {
	var (
		opts      = connectOptions(cfg)
		jsCfg     = jetStreamConfig(cfg, logger)
		marshaler = &nats.JSONMarshaler{}
		url       = serverURL(cfg)
	)

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         url,
		NatsOptions: opts,
		JetStream:   jsCfg,
		Marshaler:   marshaler,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	sub, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:            url,
		NatsOptions:    opts,
		JetStream:      jsCfg,
		Unmarshaler:    marshaler,
		AckWaitTimeout: time.Duration(cfg.ConsumerAckWait) * time.Second,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	return pub, sub, nil
}

func connectOptions(cfg *configs.MQConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(cfg.ClientID),
		nc.MaxReconnects(cfg.MaxReconnects),
		nc.ReconnectWait(time.Duration(cfg.ReconnectWait) * time.Second),
		nc.PingInterval(time.Duration(cfg.PingInterval) * time.Second),
		nc.ReconnectBufSize(cfg.BufferSize),
		nc.DrainTimeout(drainTimeout),
		nc.FlusherTimeout(flusherTimeout),
		nc.RetryOnFailedConnect(true),
	}

	switch {
	case cfg.JWT != "":
		opts = append(opts, nc.UserJWTAndSeed(cfg.JWT, cfg.NKey))
	case cfg.NKey != "":
		opts = append(opts, nc.Nkey(cfg.NKey, nil))
	case cfg.User != "":
		opts = append(opts, nc.UserInfo(cfg.User, cfg.Password))
	}

	return opts
}

func jetStreamConfig(cfg *configs.MQConfig, logger watermill.LoggerAdapter) nats.JetStreamConfig {
	if !cfg.JetStreamEnabled {
		return nats.JetStreamConfig{Disabled: true}
	}

	logger.Info("JetStream enabled", watermill.LogFields{
		"auto_provision": cfg.JetStreamAutoProvision,
		"track_msg_id":   cfg.JetStreamTrackMsgID,
		"durable_prefix": cfg.JetStreamDurablePrefix,
	})

	return nats.JetStreamConfig{
		AutoProvision: cfg.JetStreamAutoProvision,
		// 作业消息用确定性 ID，重复入队在 broker 端被吸收
		TrackMsgId:    cfg.JetStreamTrackMsgID,
		AckAsync:      cfg.JetStreamAckAsync,
		DurablePrefix: cfg.JetStreamDurablePrefix,
	}
}

func serverURL(cfg *configs.MQConfig) string {
	if len(cfg.ClusterURLs) > 0 {
		return strings.Join(cfg.ClusterURLs, ",")
	}

	return cfg.URL
}
