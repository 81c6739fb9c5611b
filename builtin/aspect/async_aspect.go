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
	"context"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/maps"
	"github.com/rulego/aop/utils/runtime"
)

var _ types.Component = (*Async)(nil)

// Async runs methods declaring no results on the goroutine pool of the config,
// or on a new goroutine without pool, and returns immediately. Other methods
// proceed synchronously. The asynchronous invocation keeps the values of the
// caller context but not its cancellation.
//
// The target is released when the call returns, so Async fits static target
// sources; pooled or prototype targets may be reused while the method runs.
//
// Async 异步拦截器，没有返回值的方法提交到协程池执行，调用立即返回
type Async struct {
	pool   types.Pool
	logger types.Logger
}

func (a *Async) Order() int {
	return 50
}

func (a *Async) New() types.Component {
	return &Async{pool: a.pool, logger: a.logger}
}

func (a *Async) Type() string {
	return "async"
}

func (a *Async) Init(config types.Config, configuration types.Configuration) error {
	a.pool = config.Pool
	a.logger = config.Logger
	return maps.Map2Struct(configuration, a)
}

func (a *Async) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	if mi.Method().Type.NumOut() > 0 {
		return mi.Proceed()
	}
	mi.SetContext(context.WithoutCancel(mi.Context()))
	task := func() {
		defer func() {
			if e := recover(); e != nil {
				a.getLogger().Printf("async invocation %s panic=%s", mi.Method(), runtime.Recovered(e))
			}
		}()
		if _, err := mi.Proceed(); err != nil {
			a.getLogger().Printf("async invocation %s err=%v", mi.Method(), err)
		}
	}
	if a.pool != nil {
		if err := a.pool.Submit(task); err != nil {
			return nil, err
		}
	} else {
		go task()
	}
	return nil, nil
}

func (a *Async) getLogger() types.Logger {
	if a.logger == nil {
		a.logger = types.DefaultLogger()
	}
	return a.logger
}
