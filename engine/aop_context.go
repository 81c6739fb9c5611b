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
package engine

import (
	"context"

	"github.com/rulego/aop/api/types"
)

type proxyKey struct{}

type invocationKey struct{}

// WithProxy returns a context carrying proxy as the current proxy.
func WithProxy(ctx context.Context, proxy interface{}) context.Context {
	return context.WithValue(ctx, proxyKey{}, proxy)
}

// CurrentProxy returns the proxy handling the current call: the types.Proxy
// for calls made through Invoke, the bound struct for calls made through a
// function populated by Bind. It fails with types.ErrProxyNotExposed unless the
// proxy was created with ExposeProxy.
// CurrentProxy 获取处理当前调用的代理，需要开启 ExposeProxy
func CurrentProxy(ctx context.Context) (interface{}, error) {
	if ctx != nil {
		if p := ctx.Value(proxyKey{}); p != nil {
			return p, nil
		}
	}
	return nil, types.ErrProxyNotExposed
}

// WithInvocation returns a context carrying mi as the current invocation.
func WithInvocation(ctx context.Context, mi types.MethodInvocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, mi)
}

// CurrentInvocation returns the invocation published by the exposeInvocation
// interceptor.
func CurrentInvocation(ctx context.Context) (types.MethodInvocation, error) {
	if ctx != nil {
		if mi, ok := ctx.Value(invocationKey{}).(types.MethodInvocation); ok {
			return mi, nil
		}
	}
	return nil, types.ErrInvocationNotExposed
}
