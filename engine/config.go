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
	"github.com/rulego/aop/advisor"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/cache"
)

// DefaultCache is the cache shared by configs created without one.
var DefaultCache = cache.NewMemoryCache(0)

// NewConfig creates a new Config and applies the options.
// It fills in the advisor adapter registry, the chain factory and the cache
// when the options leave them empty. Every config gets its own adapter
// registry, so adapters registered on one config never leak into another.
// NewConfig 创建配置，并填充默认的适配器注册表、拦截器链工厂和缓存
func NewConfig(opts ...types.Option) types.Config {
	c := types.NewConfig(opts...)
	if c.AdapterRegistry == nil {
		c.AdapterRegistry = advisor.NewDefaultAdapterRegistry()
	}
	if c.ChainFactory == nil {
		c.ChainFactory = NewDefaultAdvisorChainFactory(c.AdapterRegistry)
	}
	if c.Cache == nil {
		c.Cache = DefaultCache
	}
	return c
}
