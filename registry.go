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

package aop

import (
	"errors"
	"fmt"
	"plugin"
	"sort"
	"sync"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/builtin/aspect"
)

// PluginsSymbol 插件检查点 Symbol
const PluginsSymbol = "Plugins"

// Registry 默认拦截器组件注册器
var Registry = new(ComponentRegistry)

// 注册内置拦截器
func init() {
	components := []types.Component{
		&aspect.Debug{},
		&aspect.ConcurrencyThrottle{},
		&aspect.SkipFallback{},
		&aspect.Metrics{},
		&aspect.RateLimiter{},
		&aspect.Cache{},
		&aspect.Validator{},
		&aspect.Transaction{},
		&aspect.Async{},
		&aspect.Timeout{},
		&aspect.Retry{},
		&aspect.Trace{},
		&aspect.ExposeInvocation{},
	}
	for _, component := range components {
		_ = Registry.Register(component)
	}
}

var _ types.ComponentRegistry = (*ComponentRegistry)(nil)

// ComponentRegistry 拦截器组件注册器
type ComponentRegistry struct {
	//拦截器组件列表
	components map[string]types.Component
	//插件名称 -> 插件中的组件
	plugins map[string][]types.Component
	sync.RWMutex
}

// Register 注册拦截器组件，类型已存在返回 ErrComponentExists
func (r *ComponentRegistry) Register(component types.Component) error {
	r.Lock()
	defer r.Unlock()
	if r.components == nil {
		r.components = make(map[string]types.Component)
	}
	if _, ok := r.components[component.Type()]; ok {
		return fmt.Errorf("%w. componentType=%s", types.ErrComponentExists, component.Type())
	}
	r.components[component.Type()] = component
	return nil
}

// RegisterPlugin 注册 go plugin 中的拦截器组件
// file plugin 文件路径，name 插件名称，卸载时使用
func (r *ComponentRegistry) RegisterPlugin(name string, file string) error {
	pluginRegistry, err := loadPlugin(file)
	if err != nil {
		return err
	}
	components := pluginRegistry.Components()
	r.RLock()
	for _, component := range components {
		if _, ok := r.components[component.Type()]; ok {
			r.RUnlock()
			return fmt.Errorf("%w. componentType=%s", types.ErrComponentExists, component.Type())
		}
	}
	r.RUnlock()
	for _, component := range components {
		if err := r.Register(component); err != nil {
			return err
		}
	}
	r.Lock()
	defer r.Unlock()
	if r.plugins == nil {
		r.plugins = make(map[string][]types.Component)
	}
	r.plugins[name] = components
	return nil
}

// Unregister 删除组件，componentType 也可以是插件名称，删除插件中的所有组件
func (r *ComponentRegistry) Unregister(componentType string) error {
	r.Lock()
	defer r.Unlock()
	var removed = false
	if components, ok := r.plugins[componentType]; ok {
		for _, component := range components {
			delete(r.components, component.Type())
		}
		delete(r.plugins, componentType)
		removed = true
	}
	if _, ok := r.components[componentType]; ok {
		delete(r.components, componentType)
		removed = true
	}
	if !removed {
		return fmt.Errorf("%w. componentType=%s", types.ErrComponentNotFound, componentType)
	}
	return nil
}

// NewInterceptor 创建并初始化一个新的拦截器实例
func (r *ComponentRegistry) NewInterceptor(config types.Config, componentType string, configuration types.Configuration) (types.Component, error) {
	r.RLock()
	component, ok := r.components[componentType]
	r.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w. componentType=%s", types.ErrComponentNotFound, componentType)
	}
	interceptor := component.New()
	if err := interceptor.Init(config, configuration); err != nil {
		return nil, fmt.Errorf("init %s interceptor: %w", componentType, err)
	}
	return interceptor, nil
}

func (r *ComponentRegistry) GetComponents() map[string]types.Component {
	r.RLock()
	defer r.RUnlock()
	var components = map[string]types.Component{}
	for k, v := range r.components {
		components[k] = v
	}
	return components
}

// Types returns the registered component types, sorted.
func (r *ComponentRegistry) Types() []string {
	r.RLock()
	defer r.RUnlock()
	names := make([]string, 0, len(r.components))
	for k := range r.components {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// loadPlugin 加载插件
func loadPlugin(file string) (types.PluginRegistry, error) {
	p, err := plugin.Open(file)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup(PluginsSymbol)
	if err != nil {
		return nil, err
	}
	pluginRegistry, ok := sym.(types.PluginRegistry)
	if !ok {
		return nil, errors.New("invalid plugin")
	}
	return pluginRegistry, nil
}
