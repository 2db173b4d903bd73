package configs

import (
	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS MQType = "nats"

	DefaultMQURL         = "localhost:4222"
	DefaultMQUser        = ""
	DefaultMQPassword    = ""
	DefaultMaxReconnects = 5               // 默认最大重连次数.
	DefaultReconnectWait = 5               // 默认重连等待时间（秒）.
	DefaultMQClientID    = "assetsrv-app"  // 默认客户端ID

	// JetStream 流配置常量.

	DefaultStreamMaxMsgs  = 1000000            // 默认流最大消息数
	DefaultStreamMaxBytes = 1024 * 1024 * 1024 // 默认流最大字节数 (1GB)
	DefaultStreamMaxAge   = 24                 // 默认流最大年龄 (小时)

	// 消费者配置常量.

	DefaultConsumerAckWait    = 30 // 默认消费者确认等待时间 (秒)
	DefaultConsumerMaxDeliver = 3  // 默认消费者最大投递次数

	// 连接配置常量.

	DefaultPingInterval = 20    // 默认ping间隔 (秒)
	DefaultBufferSize   = 32768 // 默认缓冲区大小 (32KB)
)

// MQConfig 消息队列配置，承载构建作业队列与变更通知两类流量.
type MQConfig struct {
	Type MQType `mapstructure:"type" rule:"oneof=nats"`

	URL           string   `mapstructure:"url"            rule:"hostname_port"`
	ClusterURLs   []string `mapstructure:"cluster_urls"`
	User          string   `mapstructure:"user"`
	Password      string   `mapstructure:"password"`
	JWT           string   `mapstructure:"jwt"`
	NKey          string   `mapstructure:"nkey"`
	ClientID      string   `mapstructure:"client_id"`
	MaxReconnects int      `mapstructure:"max_reconnects" rule:"min=0,max=100"`
	ReconnectWait int      `mapstructure:"reconnect_wait" rule:"min=1,max=300"`
	PingInterval  int      `mapstructure:"ping_interval"  rule:"min=1,max=300"`
	BufferSize    int      `mapstructure:"buffer_size"    rule:"min=1024,max=1048576"`
	EnableMetrics bool     `mapstructure:"enable_metrics"`

	JetStreamEnabled       bool   `mapstructure:"jetstream_enabled"`
	JetStreamAutoProvision bool   `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool   `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool   `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string `mapstructure:"jetstream_durable_prefix"`
	ConsumerAckWait        int    `mapstructure:"consumer_ack_wait"`
	ConsumerMaxDeliver     int    `mapstructure:"consumer_max_deliver"`
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// setDefaults 设置MQ配置的默认值.
func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeNATS)

	v.SetDefault("mq.url", DefaultMQURL)
	v.SetDefault("mq.cluster_urls", []string{})
	v.SetDefault("mq.user", DefaultMQUser)
	v.SetDefault("mq.password", DefaultMQPassword)
	v.SetDefault("mq.jwt", "")
	v.SetDefault("mq.nkey", "")
	v.SetDefault("mq.client_id", DefaultMQClientID)
	v.SetDefault("mq.max_reconnects", DefaultMaxReconnects)
	v.SetDefault("mq.reconnect_wait", DefaultReconnectWait)
	v.SetDefault("mq.ping_interval", DefaultPingInterval)
	v.SetDefault("mq.buffer_size", DefaultBufferSize)
	v.SetDefault("mq.enable_metrics", false)

	// 作业队列要求 at-least-once 投递，默认开启 JetStream
	v.SetDefault("mq.jetstream_enabled", true)
	v.SetDefault("mq.jetstream_auto_provision", true)
	v.SetDefault("mq.jetstream_track_msg_id", true)
	v.SetDefault("mq.jetstream_ack_async", true)
	v.SetDefault("mq.jetstream_durable_prefix", "assetsrv-durable")
	v.SetDefault("mq.consumer_ack_wait", DefaultConsumerAckWait)
	v.SetDefault("mq.consumer_max_deliver", DefaultConsumerMaxDeliver)
}
