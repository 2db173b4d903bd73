package configs

import "github.com/spf13/viper"

// KVConfig 会话存储配置，承载编辑器共享的会话文档（当前选中资产等 UI 状态）.
// memory 只适合单实例；多实例部署用 redis，或与作业队列共用 NATS 时用 nats.
type KVConfig struct {
	Type  string        `mapstructure:"type"  rule:"oneof=memory redis nats"`
	Redis RedisKVConfig `mapstructure:"redis"`
	NATS  NATSKVConfig  `mapstructure:"nats"`
}

// RedisKVConfig Redis 后端.
type RedisKVConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// NATSKVConfig NATS JetStream KV 后端.
type NATSKVConfig struct {
	URL      string `mapstructure:"url"    rule:"hostname_port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Bucket   string `mapstructure:"bucket"`
}

// GetKVType 当前配置的后端类型.
func (c *KVConfig) GetKVType() string {
	return c.Type
}

func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", "memory")

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)

	v.SetDefault("kv.nats.url", "localhost:4222")
	v.SetDefault("kv.nats.user", "")
	v.SetDefault("kv.nats.password", "")
	v.SetDefault("kv.nats.bucket", "blink-session")
}
