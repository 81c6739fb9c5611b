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

import "reflect"

// ClassFilter restricts a pointcut to a set of target types.
// ClassFilter 类型过滤器，把切入点限制在某些目标类型上
type ClassFilter interface {
	// Matches reports whether the advice applies to the given target type.
	// targetType is nil when the proxy has no target.
	Matches(targetType reflect.Type) bool
}

// MethodMatcher decides whether a method is advised.
//
// A static matcher (IsRuntime false) is evaluated once when the chain is built.
// A runtime matcher is evaluated twice: Matches at chain build time, and, if it
// passed, MatchesArgs with the actual arguments on every call.
// MethodMatcher 方法匹配器。静态匹配器在构建拦截器链时判断一次，
// 动态匹配器在每次调用时根据实参再判断一次。
type MethodMatcher interface {
	Matches(method *Method, targetType reflect.Type) bool
	IsRuntime() bool
	MatchesArgs(method *Method, targetType reflect.Type, args []interface{}) bool
}

// IntroductionAwareMethodMatcher is a MethodMatcher that takes the presence of
// introductions into account.
type IntroductionAwareMethodMatcher interface {
	MethodMatcher
	MatchesWithIntroductions(method *Method, targetType reflect.Type, hasIntroductions bool) bool
}

// Pointcut is a (class filter, method matcher) pair.
// Pointcut 切入点：类型过滤器 + 方法匹配器
type Pointcut interface {
	ClassFilter() ClassFilter
	MethodMatcher() MethodMatcher
}
