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

package aspect

import (
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
)

var _ types.Component = (*ExposeInvocation)(nil)

// ExposeInvocation publishes the current invocation on the invocation
// context, where advice and targets find it with engine.CurrentInvocation.
// It must be the first interceptor of the chain.
//
// ExposeInvocation 把当前调用放到调用上下文，必须是第一个拦截器
type ExposeInvocation struct {
}

func (a *ExposeInvocation) Order() int {
	return 0
}

func (a *ExposeInvocation) New() types.Component {
	return &ExposeInvocation{}
}

func (a *ExposeInvocation) Type() string {
	return "exposeInvocation"
}

func (a *ExposeInvocation) Init(config types.Config, configuration types.Configuration) error {
	return nil
}

func (a *ExposeInvocation) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	mi.SetContext(engine.WithInvocation(mi.Context(), mi))
	return mi.Proceed()
}
