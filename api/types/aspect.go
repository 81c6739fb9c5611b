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

package types

import (
	"context"
	"math"
	"reflect"
)

// The interfaces in this file provide the AOP (Aspect Oriented Programming) model of the proxy engine.
//
//   - Advice is a unit of cross-cutting behavior (before, after-returning, after-throwing, around, introduction).
//   - Advisor pairs an Advice with the Pointcut deciding where it applies.
//   - Every kind of advice is translated into a MethodInterceptor before it is placed in an interceptor chain.
//
// 该文件定义代理引擎的 AOP(面向切面编程，Aspect Oriented Programming)模型。
//
//   - Advice 增强：一段横切逻辑（前置、返回后、异常后、环绕、引入）。
//   - Advisor 顾问：增强 + 决定增强在哪里生效的切入点。
//   - 所有类型的增强在放入拦截器链之前都会被转换成 MethodInterceptor。

// Unordered is the order value of an advisor that does not declare one.
// Unordered 未声明顺序的顾问的默认顺序值
const Unordered = math.MaxInt32

// Advice is the marker for every advice kind. The concrete kind is detected
// by the interfaces the value implements.
// Advice 增强标记接口，具体类型通过实现的接口识别
type Advice interface{}

// MethodInterceptor is the around advice. It wraps everything further down the
// chain by choosing when (and whether) to call MethodInvocation.Proceed.
// MethodInterceptor 环绕增强，通过决定何时（以及是否）调用 Proceed 包裹后续整条链
type MethodInterceptor interface {
	Invoke(mi MethodInvocation) ([]interface{}, error)
}

// MethodInterceptorFunc adapts a function to a MethodInterceptor.
type MethodInterceptorFunc func(mi MethodInvocation) ([]interface{}, error)

func (f MethodInterceptorFunc) Invoke(mi MethodInvocation) ([]interface{}, error) {
	return f(mi)
}

// MethodBeforeAdvice is invoked before the joinpoint. Returning an error aborts
// the call and the error is returned to the caller unchanged.
// MethodBeforeAdvice 前置增强，返回错误则中止调用
type MethodBeforeAdvice interface {
	Before(ctx context.Context, method *Method, args []interface{}, target interface{}) error
}

// BeforeAdviceFunc adapts a function to a MethodBeforeAdvice.
type BeforeAdviceFunc func(ctx context.Context, method *Method, args []interface{}, target interface{}) error

func (f BeforeAdviceFunc) Before(ctx context.Context, method *Method, args []interface{}, target interface{}) error {
	return f(ctx, method, args, target)
}

// AfterReturningAdvice is invoked after the joinpoint returned without error.
// It observes the returned values but cannot replace them.
// AfterReturningAdvice 返回后增强，只能观察返回值，不能替换
type AfterReturningAdvice interface {
	AfterReturning(ctx context.Context, returnValues []interface{}, method *Method, args []interface{}, target interface{}) error
}

// AfterReturningAdviceFunc adapts a function to an AfterReturningAdvice.
type AfterReturningAdviceFunc func(ctx context.Context, returnValues []interface{}, method *Method, args []interface{}, target interface{}) error

func (f AfterReturningAdviceFunc) AfterReturning(ctx context.Context, returnValues []interface{}, method *Method, args []interface{}, target interface{}) error {
	return f(ctx, returnValues, method, args, target)
}

// ThrowsAdvice is invoked after the joinpoint returned an error. The original
// error is still returned to the caller unless the advice returns a different one.
// ThrowsAdvice 异常后增强，joinpoint 返回错误后调用
type ThrowsAdvice interface {
	AfterThrowing(ctx context.Context, method *Method, args []interface{}, target interface{}, err error) error
}

// DynamicIntroductionAdvice decides at runtime which interfaces it introduces.
type DynamicIntroductionAdvice interface {
	ImplementsInterface(iface reflect.Type) bool
}

// IntroductionInterceptor adds new interfaces to a proxy: calls on an introduced
// method are served by the interceptor itself instead of the target.
// IntroductionInterceptor 引入拦截器，为代理增加目标对象没有实现的接口
type IntroductionInterceptor interface {
	MethodInterceptor
	DynamicIntroductionAdvice
}

// Advisor holds an Advice. Order is only consulted when advisor lists coming from
// several sources are merged; it never reorders an already assembled chain.
// Advisor 顾问接口的基类
type Advisor interface {
	Advice() Advice
	//Order returns the merge order, the smaller the value, the higher the priority
	//Order 返回合并顺序，值越小，优先级越高
	Order() int
}

// PointcutAdvisor is an advisor driven by a pointcut.
// PointcutAdvisor 由切入点驱动的顾问
type PointcutAdvisor interface {
	Advisor
	Pointcut() Pointcut
}

// IntroductionAdvisor is an advisor introducing interfaces; it is filtered at
// type level only.
// IntroductionAdvisor 引入顾问，只在类型级别过滤
type IntroductionAdvisor interface {
	Advisor
	ClassFilter() ClassFilter
	// Interfaces returns the interfaces introduced by the advice.
	Interfaces() []reflect.Type
	// ValidateInterfaces checks the advice can implement every introduced interface.
	ValidateInterfaces() error
}

// AdvisorAdapter turns a non interceptor advice kind into a MethodInterceptor.
// AdvisorAdapter 把非拦截器类型的增强适配成 MethodInterceptor
type AdvisorAdapter interface {
	SupportsAdvice(advice Advice) bool
	Interceptor(advisor Advisor) MethodInterceptor
}

// AdvisorAdapterRegistry holds the adapters used to build interceptor chains.
// It is an explicit instance carried by Config, never a process-wide singleton.
// AdvisorAdapterRegistry 适配器注册表，通过 Config 显式传递
type AdvisorAdapterRegistry interface {
	// Wrap returns an Advisor for the given advice or advisor.
	Wrap(advice Advice) (Advisor, error)
	// Interceptors returns the interceptor of the advisor: the advice itself
	// if it is a MethodInterceptor, else the first supporting adapter's.
	Interceptors(advisor Advisor) ([]MethodInterceptor, error)
	// RegisterAdapter adds an adapter. Adapters registered later are consulted later.
	RegisterAdapter(adapter AdvisorAdapter)
}

// ChainElement is one entry of an interceptor chain. A nil MethodMatcher means
// the interceptor always applies; otherwise it applies only when
// MethodMatcher.MatchesArgs accepts the actual arguments of the call.
// ChainElement 拦截器链元素，MethodMatcher 不为空时在调用时根据实参动态判断
type ChainElement struct {
	Interceptor   MethodInterceptor
	MethodMatcher MethodMatcher
}

// Dynamic reports whether the element defers its match decision to call time.
func (e ChainElement) Dynamic() bool {
	return e.MethodMatcher != nil
}

// AdvisorChainFactory computes the interceptor chain of a method.
// AdvisorChainFactory 计算某个方法的拦截器链
type AdvisorChainFactory interface {
	InterceptorsAndDynamicInterceptionAdvice(config Advised, method *Method, targetType reflect.Type) ([]ChainElement, error)
}

// MethodInvocation is the per-call cursor driving the interceptor chain.
// It is single use and never shared between goroutines.
// MethodInvocation 单次调用的链游标，不可复用，不可跨协程共享
type MethodInvocation interface {
	// Context returns the invocation context. If the target method takes a
	// context.Context as first parameter, this context is injected there.
	Context() context.Context
	// SetContext replaces the invocation context for the rest of the chain.
	SetContext(ctx context.Context)
	// ID returns the unique id of the invocation.
	ID() string
	Method() *Method
	Arguments() []interface{}
	// SetArguments replaces the arguments seen by the rest of the chain.
	SetArguments(args ...interface{})
	// Proxy returns the proxy reference the call came through.
	Proxy() interface{}
	// Target returns the resolved target, nil for advice-only proxies.
	Target() interface{}
	TargetType() reflect.Type
	// Proceed advances to the next interceptor, or invokes the joinpoint when
	// every interceptor has been consumed.
	Proceed() ([]interface{}, error)
	// Clone returns an independent cursor positioned at the current interceptor,
	// so that Proceed can be driven more than once (e.g. retries).
	Clone() MethodInvocation
	Attribute(key string) interface{}
	SetAttribute(key string, value interface{})
}
