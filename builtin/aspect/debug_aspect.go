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
	"sync/atomic"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/utils/maps"
)

var _ types.Component = (*Debug)(nil)

// Debug is a debug interceptor reporting every method entry (flow IN) and exit
// (flow OUT) through the OnDebug callback of the config.
//
// Debug 调试拦截器，方法进入(IN)和离开(OUT)时调用配置的 OnDebug 回调。
//
// Usage:
// 使用方法：
//
//	config := engine.NewConfig(types.WithOnDebug(func(proxyName, flowType string, method *types.Method, args, results []interface{}, err error) {
//		log.Printf("%s %s %s %v", proxyName, flowType, method, args)
//	}))
//	p, err := engine.NewProxy(engine.WithConfig(config), engine.WithAdvice(&aspect.Debug{}), ...)
type Debug struct {
	// Log 是否同时打印日志
	Log bool `json:"log"`

	config types.Config
	logger types.Logger
	count  int64
}

// Order returns 900, Debug sits close to the target.
func (aspect *Debug) Order() int {
	return 900
}

func (aspect *Debug) New() types.Component {
	return &Debug{Log: aspect.Log}
}

func (aspect *Debug) Type() string {
	return "debug"
}

func (aspect *Debug) Init(config types.Config, configuration types.Configuration) error {
	aspect.config = config
	aspect.logger = config.Logger
	return maps.Map2Struct(configuration, aspect)
}

func (aspect *Debug) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	atomic.AddInt64(&aspect.count, 1)
	proxyName := engine.NameOf(mi.Proxy())
	aspect.onDebug(proxyName, types.In, mi, nil, nil)
	results, err := mi.Proceed()
	aspect.onDebug(proxyName, types.Out, mi, results, err)
	return results, err
}

// Count returns the number of intercepted invocations.
func (aspect *Debug) Count() int64 {
	return atomic.LoadInt64(&aspect.count)
}

func (aspect *Debug) onDebug(proxyName, flowType string, mi types.MethodInvocation, results []interface{}, err error) {
	if aspect.Log {
		if aspect.logger == nil {
			aspect.logger = types.DefaultLogger()
		}
		if flowType == types.In {
			aspect.logger.Printf("[%s] %s %s args=%v", proxyName, flowType, mi.Method(), mi.Arguments())
		} else {
			aspect.logger.Printf("[%s] %s %s results=%v err=%v", proxyName, flowType, mi.Method(), results, err)
		}
	}
	if aspect.config.OnDebug != nil {
		aspect.config.OnDebug(proxyName, flowType, mi.Method(), mi.Arguments(), results, err)
	}
}
