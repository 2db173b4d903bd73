// Package rule 基于 go-playground/validator 做请求与配置校验，tag 名统一为 rule.
package rule

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

// setup 优先复用 gin binding 的引擎，这样 ShouldBind 系列和手动校验共享同一套规则.
func setup() {
	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok && engine != nil {
		inst = engine
	} else {
		inst = validator.New()
	}

	inst.SetTagName("rule")
}

// Engine 返回全局 *validator.Validate，按需初始化.
func Engine() *validator.Validate {
	once.Do(setup)

	return inst
}

// RegisterValidation 注册自定义规则函数.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	return Engine().RegisterValidation(tag, fn, opts...)
}

// RegisterAlias 注册规则别名.
func RegisterAlias(alias, rules string) {
	Engine().RegisterAlias(alias, rules)
}

// ValidateStruct 按字段 rule tag 校验整个结构体.
func ValidateStruct(s any) error {
	return Engine().Struct(s)
}

// ValidateVar 按规则串校验单个值，如 ValidateVar(addr, "hostname_port").
func ValidateVar(field any, tag string) error {
	return Engine().Var(field, tag)
}
