package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/gamepoet/blink-assetsrv/pkg/rule"
)

// pipelineSection 模拟管线配置里的校验规则.
type pipelineSection struct {
	Platforms []string `rule:"min=1"`
	Levels    int      `rule:"min=1"`
}

func TestEngine(t *testing.T) {
	if rule.Engine() == nil {
		t.Error("Engine() returned nil")
	}
}

func TestValidateStruct(t *testing.T) {
	valid := pipelineSection{Platforms: []string{"osx_x64"}, Levels: 1}
	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("expected no error for valid config, got %v", err)
	}

	noPlatforms := pipelineSection{Platforms: nil, Levels: 1}
	if err := rule.ValidateStruct(noPlatforms); err == nil {
		t.Error("expected error for empty platform list")
	}

	badLevels := pipelineSection{Platforms: []string{"osx_x64"}, Levels: 0}
	if err := rule.ValidateStruct(badLevels); err == nil {
		t.Error("expected error for zero mip levels")
	}
}

func TestValidateVar(t *testing.T) {
	if err := rule.ValidateVar("localhost:4222", "hostname_port"); err != nil {
		t.Errorf("expected no error for valid addr, got %v", err)
	}

	if err := rule.ValidateVar("not a host port", "hostname_port"); err == nil {
		t.Error("expected error for invalid addr")
	}
}

func TestRegisterValidation(t *testing.T) {
	// 资产 id 是 8 位小写十六进制
	err := rule.RegisterValidation("asset_id", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok || len(s) != 8 {
			return false
		}

		for _, ch := range s {
			if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
				return false
			}
		}

		return true
	})
	if err != nil {
		t.Fatalf("RegisterValidation: %v", err)
	}

	if err := rule.ValidateVar("0a1b2c3d", "asset_id"); err != nil {
		t.Errorf("expected no error for valid id, got %v", err)
	}

	if err := rule.ValidateVar("XYZ", "asset_id"); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("platform_name", "required,min=3")

	if err := rule.ValidateVar("osx_x64", "platform_name"); err != nil {
		t.Errorf("expected no error for valid platform, got %v", err)
	}

	if err := rule.ValidateVar("", "platform_name"); err == nil {
		t.Error("expected error for empty platform")
	}
}
