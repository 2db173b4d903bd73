// Package s3 对象存储客户端，桶里存资产源文件与各平台编译产物.
package s3

import (
	"context"
	"fmt"
	"net/url"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	nlog "github.com/gamepoet/blink-assetsrv/pkg/log"
)

// Client MinIO 客户端.
type Client struct {
	*minio.Client
}

// New 建立连接并确保资产桶存在.
func New(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig().S3

	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	if err := ensureBucket(ctx, cli, cfg.Bucket, cfg.Region); err != nil {
		return nil, err
	}

	nlog.Logger().Info().
		Str("endpoint", cfg.Endpoint).
		Str("bucket", cfg.Bucket).
		Msg("对象存储连接成功")

	return &Client{Client: cli}, nil
}

// splitEndpoint 兼容带 scheme 的 endpoint 写法，https 时强制开 TLS.
func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint, useSSL
	}

	return u.Host, useSSL || u.Scheme == "https"
}

func ensureBucket(ctx context.Context, cli *minio.Client, bucket, region string) error {
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}

	if exists {
		return nil
	}

	if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}

	nlog.Logger().Info().Str("bucket", bucket).Msg("bucket created")

	return nil
}

// HealthCheck 列一次桶验证连接可用.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ListBuckets(ctx)

	return err
}

// Close 无实际资源需要释放，保持与其他客户端一致的接口.
func (c *Client) Close() error {
	return nil
}

// GetConfig 返回生效的 S3 配置.
func (c *Client) GetConfig() configs.S3Config {
	return configs.GetConfig().S3
}
