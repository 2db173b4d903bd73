package model

import (
	"sort"
	"strings"
)

// 文档树工具：所有元数据变更以点分路径表达（如 target.default.width），
// 与存储介质无关地在嵌套 map 上合并.

// GetPath 取出点分路径上的值；路径任意一段缺失时返回 nil.
func GetPath(tree map[string]any, path string) any {
	if tree == nil {
		return nil
	}

	parts := strings.Split(path, ".")
	cur := tree

	for i, part := range parts {
		v, ok := cur[part]
		if !ok {
			return nil
		}

		if i == len(parts)-1 {
			return v
		}

		sub, ok := v.(map[string]any)
		if !ok {
			return nil
		}

		cur = sub
	}

	return nil
}

// SetPath 在点分路径处写入值，按需创建中间节点；
// 中间节点若已是标量则被替换为子树.
func SetPath(tree map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := tree

	for _, part := range parts[:len(parts)-1] {
		sub, ok := cur[part].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			cur[part] = sub
		}

		cur = sub
	}

	cur[parts[len(parts)-1]] = value
}

// UnsetPath 删除点分路径上的叶子；路径缺失时为空操作.
func UnsetPath(tree map[string]any, path string) {
	parts := strings.Split(path, ".")
	cur := tree

	for _, part := range parts[:len(parts)-1] {
		sub, ok := cur[part].(map[string]any)
		if !ok {
			return
		}

		cur = sub
	}

	delete(cur, parts[len(parts)-1])
}

// Flatten 把嵌套树展开为 "点分路径 -> 叶子值" 的平面映射，键按字典序稳定.
func Flatten(tree map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", tree)

	return out
}

func flattenInto(out map[string]any, prefix string, tree map[string]any) {
	for k, v := range tree {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}

		if sub, ok := v.(map[string]any); ok {
			flattenInto(out, path, sub)
			continue
		}

		out[path] = v
	}
}

// FlattenKeys 返回树中全部叶子路径，排序后返回，便于确定性遍历.
func FlattenKeys(tree map[string]any) []string {
	flat := Flatten(tree)
	keys := make([]string, 0, len(flat))

	for k := range flat {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// CloneTree 深拷贝嵌套树；标量叶子按值复制.
func CloneTree(tree map[string]any) map[string]any {
	if tree == nil {
		return nil
	}

	out := make(map[string]any, len(tree))

	for k, v := range tree {
		if sub, ok := v.(map[string]any); ok {
			out[k] = CloneTree(sub)
			continue
		}

		out[k] = v
	}

	return out
}
