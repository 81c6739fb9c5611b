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

// Component is an interceptor that can be created from a configuration map,
// so that interceptor chains can be assembled from configuration.
//
// 实现方式参考`builtin/aspect`包，然后注册到默认注册器
// aop.Registry.Register(&MyInterceptor{})
type Component interface {
	MethodInterceptor
	//New 创建一个组件新实例，每个代理都会创建新的实例，数据是独立的
	New() Component
	//Type 组件类型，类型不能重复
	Type() string
	//Init 组件初始化，解析组件配置
	Init(config Config, configuration Configuration) error
}

// ComponentRegistry holds interceptor components by type.
// ComponentRegistry 拦截器组件注册器
type ComponentRegistry interface {
	//Register 注册组件，如果`component.Type()`已经存在则返回一个`已存在`错误
	Register(component Component) error
	//Unregister 删除组件
	Unregister(componentType string) error
	//NewInterceptor 通过组件类型创建并初始化一个新的拦截器实例
	NewInterceptor(config Config, componentType string, configuration Configuration) (Component, error)
	//GetComponents 获取所有注册组件列表
	GetComponents() map[string]Component
}

// PluginRegistry is the symbol exported by Go plugins providing interceptor
// components, under the name "Plugins".
// PluginRegistry 插件组件注册器，插件需要导出名为 Plugins 的变量
type PluginRegistry interface {
	//Components 插件中的组件列表
	Components() []Component
}
