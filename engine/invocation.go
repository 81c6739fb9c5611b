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
	"reflect"

	"github.com/gofrs/uuid/v5"
	"github.com/rulego/aop/api/types"
)

// ReflectiveMethodInvocation is the chain cursor of one proxied call.
// Proceed advances through the interceptors, skipping runtime matched
// elements whose matcher rejects the arguments, and finally calls the target
// method by reflection. Calling Proceed again once the chain is exhausted calls
// the target method again.
// ReflectiveMethodInvocation 单次调用的拦截器链游标
type ReflectiveMethodInvocation struct {
	ctx        context.Context
	id         string
	proxy      interface{}
	target     interface{}
	targetType reflect.Type
	method     *types.Method
	args       []interface{}
	chain      []types.ChainElement
	// index of the current interceptor, -1 before the first Proceed
	index int
	attrs map[string]interface{}
}

var _ types.MethodInvocation = (*ReflectiveMethodInvocation)(nil)

// NewReflectiveMethodInvocation creates a cursor positioned before the first element of chain.
func NewReflectiveMethodInvocation(ctx context.Context, proxy, target interface{}, targetType reflect.Type,
	method *types.Method, args []interface{}, chain []types.ChainElement) *ReflectiveMethodInvocation {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ReflectiveMethodInvocation{
		ctx:        ctx,
		proxy:      proxy,
		target:     target,
		targetType: targetType,
		method:     method,
		args:       args,
		chain:      chain,
		index:      -1,
	}
}

func (mi *ReflectiveMethodInvocation) Context() context.Context {
	return mi.ctx
}

func (mi *ReflectiveMethodInvocation) SetContext(ctx context.Context) {
	if ctx != nil {
		mi.ctx = ctx
	}
}

func (mi *ReflectiveMethodInvocation) ID() string {
	if mi.id == "" {
		if id, err := uuid.NewV4(); err == nil {
			mi.id = id.String()
		}
	}
	return mi.id
}

func (mi *ReflectiveMethodInvocation) Method() *types.Method {
	return mi.method
}

func (mi *ReflectiveMethodInvocation) Arguments() []interface{} {
	return mi.args
}

func (mi *ReflectiveMethodInvocation) SetArguments(args ...interface{}) {
	mi.args = args
}

func (mi *ReflectiveMethodInvocation) Proxy() interface{} {
	return mi.proxy
}

func (mi *ReflectiveMethodInvocation) Target() interface{} {
	return mi.target
}

func (mi *ReflectiveMethodInvocation) TargetType() reflect.Type {
	return mi.targetType
}

func (mi *ReflectiveMethodInvocation) Proceed() ([]interface{}, error) {
	for mi.index < len(mi.chain)-1 {
		mi.index++
		element := mi.chain[mi.index]
		if element.MethodMatcher != nil && !element.MethodMatcher.MatchesArgs(mi.method, mi.targetType, mi.args) {
			continue
		}
		return element.Interceptor.Invoke(mi)
	}
	return mi.invokeJoinpoint()
}

func (mi *ReflectiveMethodInvocation) invokeJoinpoint() ([]interface{}, error) {
	return mi.method.Call(mi.ctx, mi.target, mi.args)
}

// Clone returns a cursor at the same position with its own copy of the
// arguments and attributes.
func (mi *ReflectiveMethodInvocation) Clone() types.MethodInvocation {
	c := *mi
	c.args = append([]interface{}(nil), mi.args...)
	if mi.attrs != nil {
		c.attrs = make(map[string]interface{}, len(mi.attrs))
		for k, v := range mi.attrs {
			c.attrs[k] = v
		}
	}
	return &c
}

func (mi *ReflectiveMethodInvocation) Attribute(key string) interface{} {
	return mi.attrs[key]
}

func (mi *ReflectiveMethodInvocation) SetAttribute(key string, value interface{}) {
	if mi.attrs == nil {
		mi.attrs = make(map[string]interface{})
	}
	if value == nil {
		delete(mi.attrs, key)
		return
	}
	mi.attrs[key] = value
}

// CurrentInterceptorIndex returns the position of the cursor, -1 before the first Proceed.
func (mi *ReflectiveMethodInvocation) CurrentInterceptorIndex() int {
	return mi.index
}
