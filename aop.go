/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package aop assembles dynamic proxies from interceptor definitions.
//
// Interceptors are components registered in Registry by type. An advisor
// definition names the component, its configuration and the methods it
// advises:
//
//	{
//	  "name": "person",
//	  "flags": {"exposeProxy": true},
//	  "advisors": [
//	    {"type": "metrics", "patterns": [".*"]},
//	    {"type": "retry", "methods": ["Set*"], "configuration": {"maxAttempts": 3}},
//	    {"type": "debug", "expr": "args[0] > 18", "methods": ["SetAge"]}
//	  ]
//	}
//
// Targets and proxied interfaces are Go values, they are passed as options:
//
//	p, err := aop.Load(config, def, engine.WithTarget(employee), engine.WithInterfaces(types.InterfaceOf[Person]()))
package aop

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rulego/aop/advisor"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/pointcut"
	"github.com/rulego/aop/utils/fs"
	"github.com/rulego/aop/utils/json"
)

// AdvisorDef 顾问定义
type AdvisorDef struct {
	// Type 拦截器组件类型，例如：metrics
	Type string `json:"type"`
	// Configuration 拦截器组件配置
	Configuration types.Configuration `json:"configuration,omitempty"`
	// Methods 方法名通配符，例如：Set*
	Methods []string `json:"methods,omitempty"`
	// Patterns 方法全名正则表达式，例如：.*\.Person\.Get.*
	Patterns []string `json:"patterns,omitempty"`
	// Excluded 排除的正则表达式，只在 Patterns 不为空时生效
	Excluded []string `json:"excluded,omitempty"`
	// Expr 运行时匹配表达式
	Expr string `json:"expr,omitempty"`
	// Script 运行时匹配 js 脚本
	Script string `json:"script,omitempty"`
	// Order 合并顺序，为空使用组件默认顺序
	Order *int `json:"order,omitempty"`
}

// ProxyDef 代理定义
type ProxyDef struct {
	// Name 代理名称
	Name string `json:"name"`
	// Flags 代理标志，见 types.ProxyConfig
	Flags types.Configuration `json:"flags,omitempty"`
	// Advisors 顾问列表，按调用链顺序
	Advisors []AdvisorDef `json:"advisors"`
}

// ParseProxyDef 解析 JSON 代理定义
func ParseProxyDef(def []byte) (ProxyDef, error) {
	var proxyDef ProxyDef
	if err := json.Unmarshal(def, &proxyDef); err != nil {
		return proxyDef, errors.Wrap(err, "invalid proxy definition")
	}
	return proxyDef, nil
}

// ParseAdvisorDefs 解析 JSON 顾问定义列表
func ParseAdvisorDefs(def []byte) ([]AdvisorDef, error) {
	var defs []AdvisorDef
	if err := json.Unmarshal(def, &defs); err != nil {
		return nil, errors.Wrap(err, "invalid advisor definitions")
	}
	return defs, nil
}

// LoadAdvisorDefFiles reads the advisor definitions of every file matching
// pattern, e.g. "./advisors/*.json". Each file holds a JSON array; the
// definitions are concatenated in path order.
func LoadAdvisorDefFiles(pattern string) ([]AdvisorDef, error) {
	paths, err := fs.GetFilePaths(pattern)
	if err != nil {
		return nil, err
	}
	var defs []AdvisorDef
	for _, path := range paths {
		b := fs.LoadFile(path)
		if b == nil {
			return nil, fmt.Errorf("read advisor definitions %s", path)
		}
		items, err := ParseAdvisorDefs(b)
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		defs = append(defs, items...)
	}
	return defs, nil
}

// NewAdvisor creates the interceptor of def from Registry and wraps it in an
// advisor. Without methods, patterns, expr and script the advisor matches
// every method. Methods and patterns are combined as a union, expr and script
// restrict the result at call time.
func NewAdvisor(config types.Config, def AdvisorDef) (types.Advisor, error) {
	return newAdvisor(Registry, config, def)
}

func newAdvisor(registry types.ComponentRegistry, config types.Config, def AdvisorDef) (types.Advisor, error) {
	if def.Type == "" {
		return nil, errors.Wrap(types.ErrMissingProperty, "advisor type is required")
	}
	interceptor, err := registry.NewInterceptor(config, def.Type, def.Configuration)
	if err != nil {
		return nil, err
	}
	pc, err := newPointcut(config, def)
	if err != nil {
		return nil, fmt.Errorf("advisor %s: %w", def.Type, err)
	}
	a := advisor.NewPointcutAdvisor(pc, interceptor)
	if def.Order != nil {
		a.WithOrder(*def.Order)
	} else if ordered, ok := interceptor.(interface{ Order() int }); ok {
		a.WithOrder(ordered.Order())
	}
	return a, nil
}

func newPointcut(config types.Config, def AdvisorDef) (types.Pointcut, error) {
	var static []types.MethodMatcher
	if len(def.Methods) > 0 {
		nameMatch, err := pointcut.NewNameMatchMethodPointcut(def.Methods...)
		if err != nil {
			return nil, err
		}
		static = append(static, nameMatch)
	}
	if len(def.Patterns) > 0 {
		regexpMatch, err := pointcut.NewRegexpMethodPointcut(def.Patterns, def.Excluded...)
		if err != nil {
			return nil, err
		}
		static = append(static, regexpMatch)
	}
	var matchers []types.MethodMatcher
	if len(static) > 0 {
		matchers = append(matchers, pointcut.UnionMethodMatcher(static...))
	}
	if def.Expr != "" {
		exprMatch, err := pointcut.NewExprMethodMatcher(def.Expr)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, exprMatch)
	}
	if def.Script != "" {
		jsMatch, err := pointcut.NewJsMethodMatcher(config, def.Script)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, jsMatch)
	}
	switch len(matchers) {
	case 0:
		return pointcut.New(pointcut.TrueClassFilter, pointcut.TrueMethodMatcher), nil
	case 1:
		return pointcut.New(pointcut.TrueClassFilter, matchers[0]), nil
	default:
		return pointcut.New(pointcut.TrueClassFilter, pointcut.IntersectionMethodMatcher(matchers...)), nil
	}
}

// NewAdvisors creates the advisors of defs, in order.
func NewAdvisors(config types.Config, defs ...AdvisorDef) ([]types.Advisor, error) {
	var advisors []types.Advisor
	for i, def := range defs {
		a, err := NewAdvisor(config, def)
		if err != nil {
			return nil, errors.Wrapf(err, "advisors[%d]", i)
		}
		advisors = append(advisors, a)
	}
	return advisors, nil
}

// Load creates a proxy from a JSON proxy definition and stores it in the
// default pool. opts supply the target and interfaces, they are applied after
// the definition.
func Load(config types.Config, def []byte, opts ...engine.ProxyOption) (*engine.NamedProxy, error) {
	proxyDef, err := ParseProxyDef(def)
	if err != nil {
		return nil, err
	}
	return NewFromDef(config, proxyDef, opts...)
}

// NewFromDef creates a proxy from a proxy definition and stores it in the
// default pool.
func NewFromDef(config types.Config, def ProxyDef, opts ...engine.ProxyOption) (*engine.NamedProxy, error) {
	advisors, err := NewAdvisors(config, def.Advisors...)
	if err != nil {
		return nil, err
	}
	all := []engine.ProxyOption{
		engine.WithConfig(config),
		engine.WithConfiguration(def.Flags),
		engine.WithAdvisors(advisors...),
	}
	return engine.DefaultPool.New(def.Name, append(all, opts...)...)
}

// New creates a named proxy in the default pool.
func New(name string, opts ...engine.ProxyOption) (*engine.NamedProxy, error) {
	return engine.New(name, opts...)
}

// Get returns a proxy of the default pool.
func Get(name string) (types.NamedProxy, bool) {
	return engine.Get(name)
}

// Del removes a proxy of the default pool and destroys its target source.
func Del(name string) {
	engine.Del(name)
}

// Stop destroys every proxy of the default pool.
func Stop() {
	engine.Stop()
}
