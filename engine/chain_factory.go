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
	"reflect"

	"github.com/rulego/aop/advisor"
	"github.com/rulego/aop/api/types"
)

// DefaultAdvisorChainFactory computes interceptor chains by walking the
// advisors in configuration order. Static method matchers are decided here,
// runtime matchers are carried in the chain element and decided per call.
// DefaultAdvisorChainFactory 默认拦截器链工厂，按顾问顺序计算拦截器链
type DefaultAdvisorChainFactory struct {
	registry types.AdvisorAdapterRegistry
}

var _ types.AdvisorChainFactory = (*DefaultAdvisorChainFactory)(nil)

// NewDefaultAdvisorChainFactory creates a chain factory translating advice with
// registry. A nil registry gets the default adapters.
func NewDefaultAdvisorChainFactory(registry types.AdvisorAdapterRegistry) *DefaultAdvisorChainFactory {
	if registry == nil {
		registry = advisor.NewDefaultAdapterRegistry()
	}
	return &DefaultAdvisorChainFactory{registry: registry}
}

func (f *DefaultAdvisorChainFactory) InterceptorsAndDynamicInterceptionAdvice(config types.Advised, method *types.Method, targetType reflect.Type) ([]types.ChainElement, error) {
	advisors := config.GetAdvisors()
	preFiltered := config.IsPreFiltered()
	chain := make([]types.ChainElement, 0, len(advisors))
	var hasIntroductions *bool

	for _, a := range advisors {
		switch adv := a.(type) {
		case types.PointcutAdvisor:
			pc := adv.Pointcut()
			if !preFiltered && !pc.ClassFilter().Matches(targetType) {
				continue
			}
			mm := pc.MethodMatcher()
			var match bool
			if iamm, ok := mm.(types.IntroductionAwareMethodMatcher); ok {
				if hasIntroductions == nil {
					v := hasMatchingIntroductions(advisors, targetType)
					hasIntroductions = &v
				}
				match = iamm.MatchesWithIntroductions(method, targetType, *hasIntroductions)
			} else {
				match = mm.Matches(method, targetType)
			}
			if !match {
				continue
			}
			interceptors, err := f.registry.Interceptors(a)
			if err != nil {
				return nil, err
			}
			for _, interceptor := range interceptors {
				if mm.IsRuntime() {
					//调用时根据实参再判断
					chain = append(chain, types.ChainElement{Interceptor: interceptor, MethodMatcher: mm})
				} else {
					chain = append(chain, types.ChainElement{Interceptor: interceptor})
				}
			}
		case types.IntroductionAdvisor:
			if !preFiltered && !adv.ClassFilter().Matches(targetType) {
				continue
			}
			interceptors, err := f.registry.Interceptors(a)
			if err != nil {
				return nil, err
			}
			for _, interceptor := range interceptors {
				chain = append(chain, types.ChainElement{Interceptor: interceptor})
			}
		default:
			interceptors, err := f.registry.Interceptors(a)
			if err != nil {
				return nil, err
			}
			for _, interceptor := range interceptors {
				chain = append(chain, types.ChainElement{Interceptor: interceptor})
			}
		}
	}
	return chain, nil
}

// hasMatchingIntroductions reports whether an introduction advisor applies to targetType.
func hasMatchingIntroductions(advisors []types.Advisor, targetType reflect.Type) bool {
	for _, a := range advisors {
		if ia, ok := a.(types.IntroductionAdvisor); ok && ia.ClassFilter().Matches(targetType) {
			return true
		}
	}
	return false
}
