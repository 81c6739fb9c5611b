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

import (
	"context"
	"reflect"
)

// TargetSource supplies the object that finally receives a proxied call.
//
// Every successful GetTarget on a non static source is paired with exactly one
// ReleaseTarget on the same object, including when the call fails.
// TargetSource 目标对象来源。非静态来源每次成功的 GetTarget 都会对应一次 ReleaseTarget。
type TargetSource interface {
	// TargetType returns the type of the targets, nil if unknown.
	TargetType() reflect.Type
	// IsStatic reports whether GetTarget always returns the same object, in which
	// case ReleaseTarget is never called.
	IsStatic() bool
	// GetTarget returns a target, which may be nil for advice-only proxies.
	GetTarget(ctx context.Context) (interface{}, error)
	// ReleaseTarget hands a target obtained from GetTarget back to the source.
	ReleaseTarget(target interface{}) error
}

// Disposable is implemented by targets and target sources holding resources
// that must be released on container shutdown.
// Disposable 需要在容器关闭时释放资源的对象
type Disposable interface {
	Destroy() error
}

// BeanFactory creates named objects. It is the prototype creation callback used
// by prototype, thread-local, pooled and refreshable target sources.
// BeanFactory 根据名称创建对象，原型、线程绑定、池化目标来源通过它创建目标对象
type BeanFactory interface {
	// GetBean returns an instance of the named bean. Prototype beans return a
	// new instance on every call.
	GetBean(ctx context.Context, name string) (interface{}, error)
	// GetType returns the type of the named bean, nil if unknown.
	GetType(name string) reflect.Type
}

// PoolingConfig exposes pool statistics. Pooled target sources introduce it on
// their proxies.
// PoolingConfig 目标对象池统计
type PoolingConfig interface {
	MaxSize() int
	ActiveCount() int
	IdleCount() int
}

// ThreadLocalTargetSourceStats exposes goroutine bound target statistics.
// ThreadLocalTargetSourceStats 协程绑定目标来源统计
type ThreadLocalTargetSourceStats interface {
	// InvocationCount 调用 GetTarget 的次数
	InvocationCount() int64
	// HitCount 命中已绑定目标的次数
	HitCount() int64
	// ObjectCount 创建的目标对象数量
	ObjectCount() int
}
