// Package contentaddr 从资产的逻辑文件名派生稳定的内容地址 id.
//
// 同一规范化文件名永远得到同一 id；不同文件名按 murmur3 的自然碰撞率冲突，
// 碰撞视为已知风险，不做特殊处理.
package contentaddr

import (
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Seed 与引擎端保持一致，改动会使全部已有资产 id 失效.
const Seed = 0xdeadbeef

// Normalize 规范化逻辑文件名：小写并统一路径分隔符.
func Normalize(filename string) string {
	return strings.ToLower(strings.ReplaceAll(filename, `\`, "/"))
}

// Hash 计算规范化文件名的 32 位 murmur3 哈希.
func Hash(filename string) uint32 {
	return murmur3.Sum32WithSeed([]byte(Normalize(filename)), Seed)
}

// ID 返回资产 id：8 位零填充小写十六进制.
func ID(filename string) string {
	return fmt.Sprintf("%08x", Hash(filename))
}
