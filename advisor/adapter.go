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
package advisor

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
)

// DefaultAdapterRegistry converts advice into interceptors. It knows
// MethodInterceptor, MethodBeforeAdvice, AfterReturningAdvice and ThrowsAdvice;
// more kinds are added with RegisterAdapter.
//
// Every Config carries its own registry, so adapters registered by one
// engine or test are invisible to the others.
// DefaultAdapterRegistry 默认适配器注册表，每个 Config 持有自己的实例
type DefaultAdapterRegistry struct {
	mu       sync.RWMutex
	adapters []types.AdvisorAdapter
}

var _ types.AdvisorAdapterRegistry = (*DefaultAdapterRegistry)(nil)

// NewDefaultAdapterRegistry creates a registry with the built-in adapters.
func NewDefaultAdapterRegistry() *DefaultAdapterRegistry {
	r := &DefaultAdapterRegistry{}
	r.RegisterAdapter(BeforeAdviceAdapter{})
	r.RegisterAdapter(AfterReturningAdviceAdapter{})
	r.RegisterAdapter(ThrowsAdviceAdapter{})
	return r
}

func (r *DefaultAdapterRegistry) RegisterAdapter(adapter types.AdvisorAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, adapter)
}

// Wrap returns advice itself if it is an Advisor, otherwise an advisor
// applying it to every method.
func (r *DefaultAdapterRegistry) Wrap(advice types.Advice) (types.Advisor, error) {
	if a, ok := advice.(types.Advisor); ok {
		return a, nil
	}
	if _, ok := advice.(types.MethodInterceptor); ok {
		return NewAdvisor(advice), nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, adapter := range r.adapters {
		if adapter.SupportsAdvice(advice) {
			return NewAdvisor(advice), nil
		}
	}
	return nil, errors.Wrapf(types.ErrUnknownAdviceType, "%T", advice)
}

// Interceptors returns the advice itself if it is an interceptor, otherwise
// the interceptor of the first adapter supporting it. An advice implementing
// several kinds is therefore invoked once per call.
func (r *DefaultAdapterRegistry) Interceptors(advisor types.Advisor) ([]types.MethodInterceptor, error) {
	advice := advisor.Advice()
	if mi, ok := advice.(types.MethodInterceptor); ok {
		return []types.MethodInterceptor{mi}, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, adapter := range r.adapters {
		if adapter.SupportsAdvice(advice) {
			return []types.MethodInterceptor{adapter.Interceptor(advisor)}, nil
		}
	}
	return nil, errors.Wrapf(types.ErrUnknownAdviceType, "%T", advice)
}

// BeforeAdviceAdapter adapts MethodBeforeAdvice.
type BeforeAdviceAdapter struct{}

func (BeforeAdviceAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(types.MethodBeforeAdvice)
	return ok
}

func (BeforeAdviceAdapter) Interceptor(advisor types.Advisor) types.MethodInterceptor {
	return &MethodBeforeAdviceInterceptor{Advice: advisor.Advice().(types.MethodBeforeAdvice)}
}

// MethodBeforeAdviceInterceptor calls the before advice, then proceeds.
// An error returned by the advice aborts the call.
type MethodBeforeAdviceInterceptor struct {
	Advice types.MethodBeforeAdvice
}

func (i *MethodBeforeAdviceInterceptor) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	if err := i.Advice.Before(mi.Context(), mi.Method(), mi.Arguments(), mi.Target()); err != nil {
		return nil, err
	}
	return mi.Proceed()
}

// AfterReturningAdviceAdapter adapts AfterReturningAdvice.
type AfterReturningAdviceAdapter struct{}

func (AfterReturningAdviceAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(types.AfterReturningAdvice)
	return ok
}

func (AfterReturningAdviceAdapter) Interceptor(advisor types.Advisor) types.MethodInterceptor {
	return &AfterReturningAdviceInterceptor{Advice: advisor.Advice().(types.AfterReturningAdvice)}
}

// AfterReturningAdviceInterceptor proceeds, then calls the advice if the
// call succeeded. An error returned by the advice replaces the results.
type AfterReturningAdviceInterceptor struct {
	Advice types.AfterReturningAdvice
}

func (i *AfterReturningAdviceInterceptor) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	results, err := mi.Proceed()
	if err != nil {
		return results, err
	}
	if err := i.Advice.AfterReturning(mi.Context(), results, mi.Method(), mi.Arguments(), mi.Target()); err != nil {
		return nil, err
	}
	return results, nil
}

// ThrowsAdviceAdapter adapts ThrowsAdvice.
type ThrowsAdviceAdapter struct{}

func (ThrowsAdviceAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(types.ThrowsAdvice)
	return ok
}

func (ThrowsAdviceAdapter) Interceptor(advisor types.Advisor) types.MethodInterceptor {
	return &ThrowsAdviceInterceptor{Advice: advisor.Advice().(types.ThrowsAdvice)}
}

// ThrowsAdviceInterceptor proceeds and, if the call returned an error, calls
// the advice. The original error is returned unless the advice returns another.
type ThrowsAdviceInterceptor struct {
	Advice types.ThrowsAdvice
}

func (i *ThrowsAdviceInterceptor) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	results, err := mi.Proceed()
	if err == nil {
		return results, nil
	}
	if e := i.Advice.AfterThrowing(mi.Context(), mi.Method(), mi.Arguments(), mi.Target(), err); e != nil {
		return results, e
	}
	return results, err
}
