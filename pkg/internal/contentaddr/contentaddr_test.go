package contentaddr_test

import (
	"regexp"
	"testing"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/contentaddr"
)

// TestNormalize 测试文件名规范化：小写 + 反斜杠转正斜杠.
func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Wall_N.PNG":            "wall_n.png",
		`textures\env\Rock.png`: "textures/env/rock.png",
		"already/normal.png":    "already/normal.png",
	}

	for in, want := range cases {
		if got := contentaddr.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestIDDeterministic 测试 id 的确定性与规范化不变性.
func TestIDDeterministic(t *testing.T) {
	a := contentaddr.ID("wall_n.png")
	b := contentaddr.ID("wall_n.png")

	if a != b {
		t.Fatalf("ID not stable across calls: %s vs %s", a, b)
	}

	// 规范化后的等价文件名必须得到同一 id
	if got := contentaddr.ID(`WALL_N.PNG`); got != a {
		t.Errorf("ID(upper-case) = %s, want %s", got, a)
	}

	if got := contentaddr.ID(contentaddr.Normalize("wall_n.png")); got != a {
		t.Errorf("ID(Normalize(f)) = %s, want %s", got, a)
	}
}

// TestIDFormat 测试 id 格式：8 位小写十六进制.
func TestIDFormat(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{8}$`)

	for _, f := range []string{"wall_n.png", "a", "some/deep/path/texture_s.tga", ""} {
		id := contentaddr.ID(f)
		if !re.MatchString(id) {
			t.Errorf("ID(%q) = %q, not 8 hex digits", f, id)
		}
	}
}

// TestIDDistinct 不同文件名通常得到不同 id（冒烟检查，不是碰撞证明）.
func TestIDDistinct(t *testing.T) {
	if contentaddr.ID("wall_n.png") == contentaddr.ID("floor_s.png") {
		t.Error("distinct filenames hashed to the same id")
	}
}
