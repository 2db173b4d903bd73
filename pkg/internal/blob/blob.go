// Package blob 提供按资产 id 与阶段寻址的二进制存储.
//
// 对象一经写入即视为不可变：新版本的构建产生新的引用，旧对象被替代而不是被编辑.
// 引用本身携带 ulid 后缀，保证被替代的构建永远不会与在用引用串号.
package blob

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

// Key 标识一个 blob 槽位：资产类型 / 资产 id / 阶段名.
type Key struct {
	AssetType string
	AssetID   string
	Stage     string
}

// Prefix 返回槽位的对象键前缀.
func (k Key) Prefix() string {
	return fmt.Sprintf("%s/%s/%s", k.AssetType, k.AssetID, k.Stage)
}

// Store 内容可寻址二进制存储.
type Store interface {
	// Put 写入一个新对象并返回不透明引用.
	Put(ctx context.Context, key Key, r io.Reader, size int64) (string, error)
	// Get 按引用读取对象；不存在时返回 pipeline.ErrNotFound.
	Get(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete 按引用删除对象；删除缺失对象是空操作.
	Delete(ctx context.Context, ref string) error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newRef 生成槽位下唯一的对象键.
func newRef(key Key) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()

	return key.Prefix() + "/" + id.String()
}
