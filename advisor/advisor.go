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
// Package advisor provides the advisors pairing advice with pointcuts, the
// introduction support and the adapter registry turning every advice kind
// into a MethodInterceptor.
//
// Package advisor 顾问：增强 + 切入点，引入（mixin）支持，以及把各种增强适配成拦截器的适配器注册表
package advisor

import (
	"fmt"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/pointcut"
)

// Ordered holds an advisor order. The zero value is unordered.
type Ordered struct {
	order    int
	hasOrder bool
}

// SetOrder sets the merge order, lower values come first.
func (o *Ordered) SetOrder(order int) {
	o.order = order
	o.hasOrder = true
}

func (o *Ordered) Order() int {
	if !o.hasOrder {
		return types.Unordered
	}
	return o.order
}

// DefaultPointcutAdvisor is the general purpose advisor: any advice, any pointcut.
// DefaultPointcutAdvisor 通用顾问
type DefaultPointcutAdvisor struct {
	Ordered
	pointcut types.Pointcut
	advice   types.Advice
}

var _ types.PointcutAdvisor = (*DefaultPointcutAdvisor)(nil)

// NewAdvisor creates an advisor applying advice to every method.
func NewAdvisor(advice types.Advice) *DefaultPointcutAdvisor {
	return NewPointcutAdvisor(pointcut.TruePointcut, advice)
}

// NewPointcutAdvisor creates an advisor applying advice where pc matches.
// A nil pointcut matches every method.
func NewPointcutAdvisor(pc types.Pointcut, advice types.Advice) *DefaultPointcutAdvisor {
	if pc == nil {
		pc = pointcut.TruePointcut
	}
	return &DefaultPointcutAdvisor{pointcut: pc, advice: advice}
}

func (a *DefaultPointcutAdvisor) Advice() types.Advice {
	return a.advice
}

func (a *DefaultPointcutAdvisor) Pointcut() types.Pointcut {
	return a.pointcut
}

// WithOrder sets the order and returns the advisor.
func (a *DefaultPointcutAdvisor) WithOrder(order int) *DefaultPointcutAdvisor {
	a.SetOrder(order)
	return a
}

func (a *DefaultPointcutAdvisor) String() string {
	return fmt.Sprintf("DefaultPointcutAdvisor: pointcut [%v]; advice [%T]", a.pointcut, a.advice)
}

// NameMatchAdvisor applies advice to methods matched by name patterns.
// NameMatchAdvisor 按方法名匹配的顾问，例如 "Set*"
type NameMatchAdvisor struct {
	DefaultPointcutAdvisor
	names *pointcut.NameMatchMethodPointcut
}

// NewNameMatchAdvisor creates the advisor. Patterns accept "*" wildcards.
func NewNameMatchAdvisor(advice types.Advice, names ...string) (*NameMatchAdvisor, error) {
	pc, err := pointcut.NewNameMatchMethodPointcut(names...)
	if err != nil {
		return nil, err
	}
	return &NameMatchAdvisor{
		DefaultPointcutAdvisor: DefaultPointcutAdvisor{pointcut: pc, advice: advice},
		names:                  pc,
	}, nil
}

// MappedNames returns the name patterns.
func (a *NameMatchAdvisor) MappedNames() []string {
	return a.names.MappedNames()
}

// SetClassFilter restricts the advisor to some target types.
func (a *NameMatchAdvisor) SetClassFilter(cf types.ClassFilter) {
	a.names.Filter = cf
}

func (a *NameMatchAdvisor) String() string {
	return fmt.Sprintf("NameMatchAdvisor: names %v; advice [%T]", a.names.MappedNames(), a.advice)
}

// NewRegexpAdvisor applies advice to methods whose qualified name matches a pattern.
func NewRegexpAdvisor(advice types.Advice, patterns ...string) (*DefaultPointcutAdvisor, error) {
	pc, err := pointcut.NewRegexpMethodPointcut(patterns)
	if err != nil {
		return nil, err
	}
	return NewPointcutAdvisor(pc, advice), nil
}
