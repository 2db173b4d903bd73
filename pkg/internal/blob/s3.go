package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	minio "github.com/minio/minio-go/v7"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
	s3c "github.com/gamepoet/blink-assetsrv/pkg/internal/storage/s3"
)

// S3Store MinIO 后端的 blob 存储.
type S3Store struct {
	cli    *s3c.Client
	bucket string
}

// NewS3 创建 MinIO 后端的 blob 存储.
func NewS3(cli *s3c.Client, bucket string) *S3Store {
	return &S3Store{cli: cli, bucket: bucket}
}

// Put 写入新对象，对象键为 <type>/<id>/<stage>/<ulid>.
func (s *S3Store) Put(ctx context.Context, key Key, r io.Reader, size int64) (string, error) {
	ref := newRef(key)

	_, err := s.cli.PutObject(ctx, s.bucket, ref, r, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("put blob %s: %w", ref, err)
	}

	return ref, nil
}

// Get 按引用读取对象.
func (s *S3Store) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	// GetObject 是惰性的，先 Stat 把 NotFound 显式化
	_, err := s.cli.StatObject(ctx, s.bucket, ref, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("blob %s: %w", ref, pipeline.ErrNotFound)
		}

		return nil, fmt.Errorf("stat blob %s: %w", ref, err)
	}

	obj, err := s.cli.GetObject(ctx, s.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", ref, err)
	}

	return obj, nil
}

// Delete 按引用删除对象.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	err := s.cli.RemoveObject(ctx, s.bucket, ref, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("delete blob %s: %w", ref, err)
	}

	return nil
}

// ReadAll 便捷读取整个 blob 到内存；编译阶段需要完整的源字节.
func ReadAll(ctx context.Context, s Store, ref string) ([]byte, error) {
	rc, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read blob %s: %w", ref, err)
	}

	return buf.Bytes(), nil
}
