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
	"reflect"
)

// ProxyConfig holds the proxy flags.
// ProxyConfig 代理标志
type ProxyConfig struct {
	// ProxyTargetClass proxies the whole exported method set of the target type
	// instead of the configured interfaces only.
	// ProxyTargetClass 代理目标类型的所有导出方法，而不只是配置的接口
	ProxyTargetClass bool `json:"proxyTargetClass"`
	// Optimize allows the proxy to skip re-reading the configuration on every call.
	// Only honoured together with Frozen.
	Optimize bool `json:"optimize"`
	// Opaque prevents proxies from implementing Advised.
	// Opaque 代理不实现 Advised 接口
	Opaque bool `json:"opaque"`
	// ExposeProxy publishes the proxy on the invocation context, so that advice
	// and targets can retrieve it with engine.CurrentProxy.
	// ExposeProxy 把代理放到调用上下文，通知和目标对象可以通过 engine.CurrentProxy 获取
	ExposeProxy bool `json:"exposeProxy"`
	// Frozen rejects every later change of the advice.
	// Frozen 冻结配置，不允许再修改增强
	Frozen bool `json:"frozen"`
}

// Advised is implemented by the proxy configuration and by every non opaque
// proxy. It allows a caller holding a proxy to inspect and, before the
// configuration is frozen, change its advice.
// Advised 代理配置接口，非 opaque 代理都实现该接口，可以查看和修改代理的增强
type Advised interface {
	IsFrozen() bool
	IsProxyTargetClass() bool
	IsExposeProxy() bool
	IsOptimize() bool
	IsOpaque() bool
	// IsPreFiltered reports whether the advisors were already filtered for the
	// target type, so class filters can be skipped.
	IsPreFiltered() bool

	// GetProxiedInterfaces returns the interfaces proxied by the proxy.
	GetProxiedInterfaces() []reflect.Type
	IsInterfaceProxied(iface reflect.Type) bool

	GetTargetSource() TargetSource
	SetTargetSource(targetSource TargetSource) error

	// GetAdvisors returns a copy of the advisors, in chain order.
	GetAdvisors() []Advisor
	AddAdvisor(advisor Advisor) error
	AddAdvisorAt(pos int, advisor Advisor) error
	// RemoveAdvisor removes the advisor, reporting whether it was found.
	RemoveAdvisor(advisor Advisor) (bool, error)
	RemoveAdvisorAt(index int) error
	IndexOf(advisor Advisor) int
	ReplaceAdvisor(a, b Advisor) (bool, error)

	// AddAdvice wraps the advice in an advisor matching every method.
	AddAdvice(advice Advice) error
	AddAdviceAt(pos int, advice Advice) error
	RemoveAdvice(advice Advice) (bool, error)
	IndexOfAdvice(advice Advice) int

	// ToProxyConfigString returns a description of the configuration.
	ToProxyConfigString() string
}

// Identity is the equality contract of proxies. Its methods are served by the
// proxy itself unless a proxied interface declares a method of the same name.
// Identity 代理相等性接口，除非代理接口自己声明了同名方法，否则由代理自身处理
type Identity interface {
	// Equals reports whether other is a proxy with an equal configuration:
	// same advisors, same proxied interfaces and an equal target source.
	Equals(other interface{}) bool
	// HashCode returns a hash consistent with Equals.
	HashCode() uint64
}

// Proxy is the dynamic proxy handle. Every call made through Invoke, or through
// a struct populated by Bind, is routed through the interceptor chain.
// Proxy 动态代理，通过 Invoke 或者 Bind 绑定的函数发起的调用都会经过拦截器链
type Proxy interface {
	// Invoke calls the named method. If the method takes a context.Context as
	// first parameter, ctx is passed there and must not appear in args.
	// Invoke 调用指定方法。如果方法第一个参数是 context.Context，ctx 会传给该参数，args 中不需要包含它
	Invoke(ctx context.Context, method string, args ...interface{}) ([]interface{}, error)
	// Bind populates the exported func-typed fields of the struct ptr points to
	// with functions routing through the proxy.
	// Bind 把结构体中导出的函数字段绑定为通过代理调用的函数
	Bind(ptr interface{}) error
	Identity
	// Methods returns the methods the proxy accepts.
	Methods() []*Method
}

// NamedProxy is a proxy registered in a proxy pool.
type NamedProxy interface {
	Name() string
	Proxy() Proxy
	Advised() Advised
	// Destroy tears the target source down, if it holds resources.
	Destroy()
}

// ProxyPool is a registry of named proxies.
// ProxyPool 命名代理注册表
type ProxyPool interface {
	Get(name string) (NamedProxy, bool)
	Del(name string)
	Stop()
	Range(f func(key, value any) bool)
}
