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

import "time"

// flow direction of a debug event
// 调试事件方向：进入方法、离开方法
const (
	In  = "IN"
	Out = "OUT"
)

// Configuration is a configuration map decoded into structs with mapstructure.
// Configuration 配置，通过 mapstructure 解析到结构体
type Configuration map[string]interface{}

// Pool is a goroutine pool.
// Pool 协程池
type Pool interface {
	// Submit submits a task, returning an error if the pool is full.
	Submit(task func()) error
	// Release stops the pool.
	Release()
}

// Config is the engine configuration shared by every proxy built from it.
// Config 引擎配置，由它创建的所有代理共享
type Config struct {
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	Logger Logger
	// AdapterRegistry converts advice into interceptors. Proxies never consult a
	// global registry, so tests can register adapters without leaking them.
	// AdapterRegistry 增强适配器注册表
	AdapterRegistry AdvisorAdapterRegistry
	// ChainFactory computes interceptor chains.
	ChainFactory AdvisorChainFactory
	// Pool runs asynchronous interceptors. If nil, `go func` is used.
	Pool Pool
	// Cache is the default store of the cache interceptor.
	Cache Cache
	// ScriptMaxExecutionTime bounds the execution time of script pointcuts.
	ScriptMaxExecutionTime time.Duration
	// OnDebug is called by the debug interceptor when a method is entered (flowType IN)
	// and left (flowType OUT).
	// OnDebug 调试回调，方法进入(IN)和离开(OUT)时调用
	OnDebug func(proxyName string, flowType string, method *Method, args []interface{}, results []interface{}, err error)
}

// NewConfig creates a Config with the logger and script defaults. The engine
// package fills in the adapter registry and chain factory, use engine.NewConfig.
func NewConfig(opts ...Option) Config {
	c := &Config{
		Logger:                 DefaultLogger(),
		ScriptMaxExecutionTime: time.Millisecond * 2000,
	}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}
