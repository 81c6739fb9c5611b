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
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/utils/maps"
)

// FallbackErr is returned instead of calling a method whose circuit is open.
//
// FallbackErr 方法熔断期间返回该错误
var FallbackErr = errors.New("skip fallback error")

var _ types.Component = (*SkipFallback)(nil)

// SkipFallback is a per method circuit breaker. After ErrorCountLimit
// consecutive failures of a method of a proxy, the method is skipped and
// FallbackErr returned for LimitDuration. The first call after that period is
// tried again; a success resets the error count.
//
// SkipFallback 按方法熔断的拦截器。某个代理的某个方法连续失败 ErrorCountLimit 次后，
// 在 LimitDuration 时间内直接返回 FallbackErr，不再调用目标方法。
//
// Usage:
// 使用方法：
//
//	fallback := &aspect.SkipFallback{
//		ErrorCountLimit: 5,
//		LimitDuration:   time.Minute * 2,
//	}
type SkipFallback struct {
	// ErrorCountLimit 触发熔断的连续错误数，默认 3
	ErrorCountLimit int64 `json:"errorCountLimit"`
	// LimitDuration 熔断时长，默认 10 秒
	LimitDuration time.Duration `json:"limitDuration"`
	// IgnoreErrors 不计入错误数的错误
	IgnoreErrors []error `json:"-"`

	// methodErrors Key: methodKey, Value: *MethodError
	methodErrors sync.Map
}

type methodKey struct {
	proxy  string
	method string
}

// MethodError holds the consecutive errors of one method.
type MethodError struct {
	errorCount int64
	// lastErrorTime 最后一次错误时间，毫秒
	lastErrorTime int64
}

// Order returns 10, so that skipped calls never reach later interceptors.
func (aspect *SkipFallback) Order() int {
	return 10
}

// New creates a circuit breaker with the same settings and no error records.
func (aspect *SkipFallback) New() types.Component {
	fallback := &SkipFallback{
		ErrorCountLimit: aspect.ErrorCountLimit,
		LimitDuration:   aspect.LimitDuration,
		IgnoreErrors:    aspect.IgnoreErrors,
	}
	fallback.defaults()
	return fallback
}

func (aspect *SkipFallback) Type() string {
	return "fallback"
}

func (aspect *SkipFallback) Init(config types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, aspect); err != nil {
		return err
	}
	aspect.defaults()
	return nil
}

func (aspect *SkipFallback) defaults() {
	if aspect.ErrorCountLimit == 0 {
		aspect.ErrorCountLimit = 3
	}
	if aspect.LimitDuration == 0 {
		aspect.LimitDuration = time.Second * 10
	}
}

func (aspect *SkipFallback) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	key := methodKey{proxy: engine.NameOf(mi.Proxy()), method: mi.Method().String()}
	if methodError, ok := aspect.getMethodError(key); ok &&
		atomic.LoadInt64(&methodError.errorCount) >= aspect.limit() {
		if atomic.LoadInt64(&methodError.lastErrorTime)+aspect.duration().Milliseconds() < time.Now().UnixMilli() {
			//超过时间，清除错误记录
			aspect.methodErrors.Delete(key)
		} else {
			//出错次数达到阈值，执行降级
			return nil, FallbackErr
		}
	}
	results, err := mi.Proceed()
	if err != nil && !aspect.ignored(err) {
		aspect.onError(key)
	} else if err == nil {
		aspect.methodErrors.Delete(key)
	}
	return results, err
}

// ErrorCount returns the consecutive errors of a method, named Owner.Name.
func (aspect *SkipFallback) ErrorCount(proxyName, method string) int64 {
	if methodError, ok := aspect.getMethodError(methodKey{proxy: proxyName, method: method}); ok {
		return atomic.LoadInt64(&methodError.errorCount)
	}
	return 0
}

// Reset clears the error records of a proxy, e.g. after its target was replaced.
func (aspect *SkipFallback) Reset(proxyName string) {
	aspect.methodErrors.Range(func(key, value any) bool {
		if key.(methodKey).proxy == proxyName {
			aspect.methodErrors.Delete(key)
		}
		return true
	})
}

func (aspect *SkipFallback) onError(key methodKey) {
	now := time.Now().UnixMilli()
	v, loaded := aspect.methodErrors.LoadOrStore(key, &MethodError{errorCount: 1, lastErrorTime: now})
	if loaded {
		methodError := v.(*MethodError)
		atomic.AddInt64(&methodError.errorCount, 1)
		atomic.StoreInt64(&methodError.lastErrorTime, now)
	}
}

func (aspect *SkipFallback) getMethodError(key methodKey) (*MethodError, bool) {
	if v, ok := aspect.methodErrors.Load(key); ok {
		return v.(*MethodError), true
	}
	return nil, false
}

func (aspect *SkipFallback) ignored(err error) bool {
	for _, ignore := range aspect.IgnoreErrors {
		if errors.Is(err, ignore) {
			return true
		}
	}
	return false
}

func (aspect *SkipFallback) limit() int64 {
	if aspect.ErrorCountLimit <= 0 {
		return 3
	}
	return aspect.ErrorCountLimit
}

func (aspect *SkipFallback) duration() time.Duration {
	if aspect.LimitDuration <= 0 {
		return time.Second * 10
	}
	return aspect.LimitDuration
}
