package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	DefaultS3Endpoint = "localhost:9000"
	DefaultS3Bucket   = "blink-assets"
	DefaultS3Region   = "us-east-1"
)

// S3Config 对象存储配置，桶里存资产源文件和各平台的编译产物.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"          rule:"hostname_port"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"            rule:"required"`
	Region          string `mapstructure:"region"`
}

// GetEndpointURL 带 scheme 的完整端点.
func (c *S3Config) GetEndpointURL() string {
	if c.UseSSL {
		return fmt.Sprintf("https://%s", c.Endpoint)
	}

	return fmt.Sprintf("http://%s", c.Endpoint)
}

func (c *S3Config) setDefaults(v *viper.Viper) {
	v.SetDefault("s3.endpoint", DefaultS3Endpoint)
	v.SetDefault("s3.access_key_id", "minioadmin")
	v.SetDefault("s3.secret_access_key", "minioadmin")
	v.SetDefault("s3.use_ssl", false)
	v.SetDefault("s3.bucket", DefaultS3Bucket)
	v.SetDefault("s3.region", DefaultS3Region)
}
