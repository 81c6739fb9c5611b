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
package pointcut

import (
	"reflect"

	"github.com/rulego/aop/api/types"
)

// TrueMethodMatcher matches every method, statically.
var TrueMethodMatcher types.MethodMatcher = trueMethodMatcher{}

type trueMethodMatcher struct{}

func (trueMethodMatcher) Matches(*types.Method, reflect.Type) bool {
	return true
}

func (trueMethodMatcher) IsRuntime() bool {
	return false
}

func (trueMethodMatcher) MatchesArgs(*types.Method, reflect.Type, []interface{}) bool {
	return true
}

func (trueMethodMatcher) String() string {
	return "MethodMatcher.TRUE"
}

// StaticMethodMatcher is embedded by matchers deciding on the method alone.
type StaticMethodMatcher struct{}

func (StaticMethodMatcher) IsRuntime() bool {
	return false
}

// MatchesArgs is never consulted for static matchers.
func (StaticMethodMatcher) MatchesArgs(*types.Method, reflect.Type, []interface{}) bool {
	return true
}

// DynamicMethodMatcher is embedded by matchers deciding on the arguments.
// The static check accepts every method.
type DynamicMethodMatcher struct{}

func (DynamicMethodMatcher) Matches(*types.Method, reflect.Type) bool {
	return true
}

func (DynamicMethodMatcher) IsRuntime() bool {
	return true
}

// MethodMatcherFunc adapts a function to a static MethodMatcher.
type MethodMatcherFunc func(method *types.Method, targetType reflect.Type) bool

func (f MethodMatcherFunc) Matches(method *types.Method, targetType reflect.Type) bool {
	return f(method, targetType)
}

func (f MethodMatcherFunc) IsRuntime() bool {
	return false
}

func (f MethodMatcherFunc) MatchesArgs(*types.Method, reflect.Type, []interface{}) bool {
	return true
}

// ArgsMatcherFunc adapts a function to a runtime MethodMatcher.
type ArgsMatcherFunc func(method *types.Method, targetType reflect.Type, args []interface{}) bool

func (f ArgsMatcherFunc) Matches(*types.Method, reflect.Type) bool {
	return true
}

func (f ArgsMatcherFunc) IsRuntime() bool {
	return true
}

func (f ArgsMatcherFunc) MatchesArgs(method *types.Method, targetType reflect.Type, args []interface{}) bool {
	return f(method, targetType, args)
}

// matchesWithIntroductions delegates to IntroductionAwareMethodMatcher when mm
// implements it.
func matchesWithIntroductions(mm types.MethodMatcher, method *types.Method, targetType reflect.Type, hasIntroductions bool) bool {
	if ia, ok := mm.(types.IntroductionAwareMethodMatcher); ok {
		return ia.MatchesWithIntroductions(method, targetType, hasIntroductions)
	}
	return mm.Matches(method, targetType)
}

// UnionMethodMatcher matches if any matcher matches. It is a runtime matcher
// if any of the matchers is; at call time only the matchers that passed the
// static check are asked again.
func UnionMethodMatcher(matchers ...types.MethodMatcher) types.MethodMatcher {
	return unionMethodMatcher(matchers)
}

type unionMethodMatcher []types.MethodMatcher

func (u unionMethodMatcher) Matches(method *types.Method, targetType reflect.Type) bool {
	return u.MatchesWithIntroductions(method, targetType, false)
}

func (u unionMethodMatcher) MatchesWithIntroductions(method *types.Method, targetType reflect.Type, hasIntroductions bool) bool {
	for _, m := range u {
		if matchesWithIntroductions(m, method, targetType, hasIntroductions) {
			return true
		}
	}
	return false
}

func (u unionMethodMatcher) IsRuntime() bool {
	for _, m := range u {
		if m.IsRuntime() {
			return true
		}
	}
	return false
}

func (u unionMethodMatcher) MatchesArgs(method *types.Method, targetType reflect.Type, args []interface{}) bool {
	for _, m := range u {
		if !m.Matches(method, targetType) {
			continue
		}
		if !m.IsRuntime() || m.MatchesArgs(method, targetType, args) {
			return true
		}
	}
	return false
}

// IntersectionMethodMatcher matches if every matcher matches.
func IntersectionMethodMatcher(matchers ...types.MethodMatcher) types.MethodMatcher {
	return intersectionMethodMatcher(matchers)
}

type intersectionMethodMatcher []types.MethodMatcher

func (i intersectionMethodMatcher) Matches(method *types.Method, targetType reflect.Type) bool {
	return i.MatchesWithIntroductions(method, targetType, false)
}

func (i intersectionMethodMatcher) MatchesWithIntroductions(method *types.Method, targetType reflect.Type, hasIntroductions bool) bool {
	for _, m := range i {
		if !matchesWithIntroductions(m, method, targetType, hasIntroductions) {
			return false
		}
	}
	return true
}

func (i intersectionMethodMatcher) IsRuntime() bool {
	for _, m := range i {
		if m.IsRuntime() {
			return true
		}
	}
	return false
}

func (i intersectionMethodMatcher) MatchesArgs(method *types.Method, targetType reflect.Type, args []interface{}) bool {
	for _, m := range i {
		if m.IsRuntime() && !m.MatchesArgs(method, targetType, args) {
			return false
		}
	}
	return true
}

// NegateMethodMatcher matches the methods mm does not match, statically.
func NegateMethodMatcher(mm types.MethodMatcher) types.MethodMatcher {
	return MethodMatcherFunc(func(method *types.Method, targetType reflect.Type) bool {
		return !mm.Matches(method, targetType)
	})
}
