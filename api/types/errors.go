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

import "errors"

// Configuration errors are returned while a proxy is assembled. They are
// wrapped with context, use errors.Is to match them.
// 配置错误，在组装代理时返回
var (
	// ErrNoAdvisorsOrTarget 既没有顾问也没有目标对象
	ErrNoAdvisorsOrTarget = errors.New("no advisors and no target source specified")
	// ErrNoInterfaces 没有可代理的接口，也无法确定目标类型
	ErrNoInterfaces = errors.New("no interfaces to proxy and no target type to derive methods from")
	// ErrConfigFrozen 配置已冻结，不允许修改
	ErrConfigFrozen = errors.New("proxy configuration is frozen")
	// ErrUnknownAdviceType 没有适配器支持该增强类型
	ErrUnknownAdviceType = errors.New("unknown advice type")
	// ErrInvalidSwapTarget 热替换目标为空或者类型不兼容
	ErrInvalidSwapTarget = errors.New("invalid hot swap target")
	// ErrNotInterface 引入或者代理的类型不是接口
	ErrNotInterface = errors.New("type is not an interface")
	// ErrIntroductionNotImplemented 引入增强没有实现引入的接口
	ErrIntroductionNotImplemented = errors.New("introduction advice does not implement interface")
	// ErrAdvisorNotFound 顾问不存在
	ErrAdvisorNotFound = errors.New("advisor not found")
	// ErrBeanNotFound bean 未注册
	ErrBeanNotFound = errors.New("bean not found")
	// ErrBeanExists bean 已注册
	ErrBeanExists = errors.New("bean already exists")
	// ErrMissingProperty 必需的属性没有设置
	ErrMissingProperty = errors.New("required property is missing")
	// ErrBindSignature 绑定的函数字段签名与代理方法不一致
	ErrBindSignature = errors.New("func field signature does not match proxied method")
	// ErrComponentNotFound 组件类型未注册
	ErrComponentNotFound = errors.New("component not found")
	// ErrComponentExists 组件类型已存在
	ErrComponentExists = errors.New("component already exists")
)

// Dispatch errors raised by the proxy itself, never by targets or advice.
// 代理自身在调度期间产生的错误
var (
	// ErrMethodNotFound 代理没有该方法
	ErrMethodNotFound = errors.New("method not found")
	// ErrArgumentMismatch 参数个数或者类型不匹配
	ErrArgumentMismatch = errors.New("argument mismatch")
	// ErrNoTarget 调用链到达目标方法，但是没有目标对象
	ErrNoTarget = errors.New("no target to invoke")
	// ErrProxyNotExposed 代理没有开启 ExposeProxy
	ErrProxyNotExposed = errors.New("proxy is not exposed on the context, set ExposeProxy to make it available")
	// ErrInvocationNotExposed 没有配置 ExposeInvocation 拦截器
	ErrInvocationNotExposed = errors.New("no method invocation on the context, add the exposeInvocation interceptor first")
	// ErrPoolExhausted 目标对象池已耗尽
	ErrPoolExhausted = errors.New("target pool exhausted")
	// ErrPoolClosed 目标对象池已关闭
	ErrPoolClosed = errors.New("target pool closed")
	// ErrConcurrencyLimitReached 并发数达到上限
	ErrConcurrencyLimitReached = errors.New("concurrency limit reached")
	// ErrRateLimited 调用频率超过限制
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrTimeout 调用超时
	ErrTimeout = errors.New("invocation timeout")
)
