package model_test

import (
	"reflect"
	"testing"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
)

func sampleTree() map[string]any {
	return map[string]any{
		"source": map[string]any{"height": 512, "width": 512},
		"target": map[string]any{
			"default": map[string]any{"format": "dxt5", "width": 512},
			"osx_x64": map[string]any{"width": 256},
		},
	}
}

// TestGetPath 测试点分路径取值.
func TestGetPath(t *testing.T) {
	tree := sampleTree()

	if got := model.GetPath(tree, "target.default.format"); got != "dxt5" {
		t.Errorf("GetPath(target.default.format) = %v, want dxt5", got)
	}

	if got := model.GetPath(tree, "target.osx_x64.width"); got != 256 {
		t.Errorf("GetPath(target.osx_x64.width) = %v, want 256", got)
	}

	// 缺失路径与穿过标量的路径都返回 nil
	if got := model.GetPath(tree, "target.ps5.format"); got != nil {
		t.Errorf("GetPath(missing) = %v, want nil", got)
	}

	if got := model.GetPath(tree, "source.height.deeper"); got != nil {
		t.Errorf("GetPath(through scalar) = %v, want nil", got)
	}
}

// TestSetUnsetPath 测试写入与删除.
func TestSetUnsetPath(t *testing.T) {
	tree := map[string]any{}

	model.SetPath(tree, "target.default.levels", 1)

	if got := model.GetPath(tree, "target.default.levels"); got != 1 {
		t.Fatalf("SetPath then GetPath = %v, want 1", got)
	}

	model.UnsetPath(tree, "target.default.levels")

	if got := model.GetPath(tree, "target.default.levels"); got != nil {
		t.Errorf("after UnsetPath got %v, want nil", got)
	}

	// 删除缺失路径是空操作
	model.UnsetPath(tree, "no.such.path")
}

// TestFlatten 测试展平为点分路径.
func TestFlatten(t *testing.T) {
	flat := model.Flatten(sampleTree())

	want := map[string]any{
		"source.height":          512,
		"source.width":           512,
		"target.default.format":  "dxt5",
		"target.default.width":   512,
		"target.osx_x64.width":   256,
	}

	if !reflect.DeepEqual(flat, want) {
		t.Errorf("Flatten = %v, want %v", flat, want)
	}
}

// TestCloneTree 深拷贝后修改副本不影响原树.
func TestCloneTree(t *testing.T) {
	orig := sampleTree()
	dup := model.CloneTree(orig)

	model.SetPath(dup, "target.default.format", "dxt1")

	if got := model.GetPath(orig, "target.default.format"); got != "dxt5" {
		t.Errorf("mutating clone leaked into original: %v", got)
	}
}

// TestEffectiveTarget 平台覆盖优先，缺失退回 default.
func TestEffectiveTarget(t *testing.T) {
	rec := &model.AssetRecord{Metadata: sampleTree()}

	if v, ok := rec.EffectiveTarget("osx_x64", "width"); !ok || v != 256 {
		t.Errorf("EffectiveTarget(osx_x64, width) = %v/%v, want 256/true", v, ok)
	}

	if v, ok := rec.EffectiveTarget("osx_x64", "format"); !ok || v != "dxt5" {
		t.Errorf("EffectiveTarget(osx_x64, format) = %v/%v, want dxt5/true", v, ok)
	}

	if _, ok := rec.EffectiveTarget("osx_x64", "semantic"); ok {
		t.Error("EffectiveTarget for absent key should report !ok")
	}
}
