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
// Package pointcut provides the predicates deciding where advice applies:
// class filters, method matchers and the pointcuts combining them.
//
// Static matchers (name, regexp) are evaluated once when an interceptor chain is
// built. Runtime matchers (expr, js) are re-evaluated on every call with the
// actual arguments.
//
// Package pointcut 切入点：类型过滤器、方法匹配器以及它们的组合。
// 静态匹配器在构建拦截器链时判断一次，动态匹配器（expr、js）在每次调用时根据实参判断。
package pointcut

import (
	"reflect"
	"regexp"
	"sync"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
)

// TruePointcut matches every method of every type.
var TruePointcut types.Pointcut = &DefaultPointcut{
	Filter:  TrueClassFilter,
	Matcher: TrueMethodMatcher,
}

// DefaultPointcut is a plain (ClassFilter, MethodMatcher) pair. Nil members
// match everything.
type DefaultPointcut struct {
	Filter  types.ClassFilter
	Matcher types.MethodMatcher
}

// New creates a pointcut from a class filter and a method matcher.
func New(cf types.ClassFilter, mm types.MethodMatcher) *DefaultPointcut {
	return &DefaultPointcut{Filter: cf, Matcher: mm}
}

func (p *DefaultPointcut) ClassFilter() types.ClassFilter {
	if p.Filter == nil {
		return TrueClassFilter
	}
	return p.Filter
}

func (p *DefaultPointcut) MethodMatcher() types.MethodMatcher {
	if p.Matcher == nil {
		return TrueMethodMatcher
	}
	return p.Matcher
}

// NameMatchMethodPointcut matches methods by name. Names may contain "*"
// wildcards, e.g. "set*", "*Age", "*Name*".
// NameMatchMethodPointcut 按方法名匹配，支持 * 通配符
type NameMatchMethodPointcut struct {
	StaticMethodMatcher
	// Filter restricts the target types, nil matches all.
	Filter types.ClassFilter

	mu    sync.RWMutex
	names []string
	globs []glob.Glob
}

// NewNameMatchMethodPointcut compiles the name patterns.
func NewNameMatchMethodPointcut(names ...string) (*NameMatchMethodPointcut, error) {
	p := &NameMatchMethodPointcut{}
	if err := p.SetMappedNames(names...); err != nil {
		return nil, err
	}
	return p, nil
}

// SetMappedNames replaces the name patterns.
func (p *NameMatchMethodPointcut) SetMappedNames(names ...string) error {
	globs := make([]glob.Glob, 0, len(names))
	for _, name := range names {
		g, err := glob.Compile(name)
		if err != nil {
			return errors.Wrapf(err, "invalid method name pattern %q", name)
		}
		globs = append(globs, g)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append([]string(nil), names...)
	p.globs = globs
	return nil
}

// AddMethodName adds a name pattern.
func (p *NameMatchMethodPointcut) AddMethodName(name string) error {
	g, err := glob.Compile(name)
	if err != nil {
		return errors.Wrapf(err, "invalid method name pattern %q", name)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, name)
	p.globs = append(p.globs, g)
	return nil
}

// MappedNames returns the name patterns.
func (p *NameMatchMethodPointcut) MappedNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.names...)
}

func (p *NameMatchMethodPointcut) Matches(method *types.Method, targetType reflect.Type) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, g := range p.globs {
		if g.Match(method.Name) {
			return true
		}
	}
	return false
}

func (p *NameMatchMethodPointcut) ClassFilter() types.ClassFilter {
	if p.Filter == nil {
		return TrueClassFilter
	}
	return p.Filter
}

func (p *NameMatchMethodPointcut) MethodMatcher() types.MethodMatcher {
	return p
}

// RegexpMethodPointcut matches the qualified method name ("pkg.Owner.Name")
// against regular expressions. A method matches if any pattern matches and no
// exclusion pattern does.
// RegexpMethodPointcut 正则表达式匹配 "包名.类型.方法名"
type RegexpMethodPointcut struct {
	StaticMethodMatcher
	Filter types.ClassFilter

	patterns []*regexp.Regexp
	excluded []*regexp.Regexp
}

// NewRegexpMethodPointcut compiles the patterns.
func NewRegexpMethodPointcut(patterns []string, excludedPatterns ...string) (*RegexpMethodPointcut, error) {
	p := &RegexpMethodPointcut{}
	var err error
	if p.patterns, err = compileAll(patterns); err != nil {
		return nil, err
	}
	if p.excluded, err = compileAll(excludedPatterns); err != nil {
		return nil, err
	}
	return p, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		r, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid method pattern %q", pattern)
		}
		res = append(res, r)
	}
	return res, nil
}

func (p *RegexpMethodPointcut) Matches(method *types.Method, targetType reflect.Type) bool {
	name := method.String()
	// 目标类型上的同名方法也参与匹配
	var targetName string
	if targetType != nil && method.Owner != targetType {
		targetName = typeName(targetType) + "." + method.Name
	}
	for _, r := range p.patterns {
		if r.MatchString(name) || (targetName != "" && r.MatchString(targetName)) {
			return !p.isExcluded(name, targetName)
		}
	}
	return false
}

func (p *RegexpMethodPointcut) isExcluded(name, targetName string) bool {
	for _, r := range p.excluded {
		if r.MatchString(name) || (targetName != "" && r.MatchString(targetName)) {
			return true
		}
	}
	return false
}

func (p *RegexpMethodPointcut) ClassFilter() types.ClassFilter {
	if p.Filter == nil {
		return TrueClassFilter
	}
	return p.Filter
}

func (p *RegexpMethodPointcut) MethodMatcher() types.MethodMatcher {
	return p
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// ComposablePointcut builds pointcuts with union and intersection operations.
// The methods mutate the receiver and return it for chaining:
//
//	pc := pointcut.NewComposable(filter, nameMatcher).Union(otherPointcut)
type ComposablePointcut struct {
	filter  types.ClassFilter
	matcher types.MethodMatcher
}

// NewComposable creates a composable pointcut, nil members match everything.
func NewComposable(cf types.ClassFilter, mm types.MethodMatcher) *ComposablePointcut {
	if cf == nil {
		cf = TrueClassFilter
	}
	if mm == nil {
		mm = TrueMethodMatcher
	}
	return &ComposablePointcut{filter: cf, matcher: mm}
}

// UnionClassFilter widens the class filter.
func (c *ComposablePointcut) UnionClassFilter(other types.ClassFilter) *ComposablePointcut {
	c.filter = UnionClassFilter(c.filter, other)
	return c
}

// IntersectionClassFilter narrows the class filter.
func (c *ComposablePointcut) IntersectionClassFilter(other types.ClassFilter) *ComposablePointcut {
	c.filter = IntersectionClassFilter(c.filter, other)
	return c
}

// UnionMethodMatcher widens the method matcher.
func (c *ComposablePointcut) UnionMethodMatcher(other types.MethodMatcher) *ComposablePointcut {
	c.matcher = UnionMethodMatcher(c.matcher, other)
	return c
}

// IntersectionMethodMatcher narrows the method matcher.
func (c *ComposablePointcut) IntersectionMethodMatcher(other types.MethodMatcher) *ComposablePointcut {
	c.matcher = IntersectionMethodMatcher(c.matcher, other)
	return c
}

// Union matches what either pointcut matches. Each method matcher only counts
// for the types its own class filter accepts.
func (c *ComposablePointcut) Union(other types.Pointcut) *ComposablePointcut {
	c.matcher = UnionMethodMatcher(
		classFilteredMatcher{filter: c.filter, matcher: c.matcher},
		classFilteredMatcher{filter: other.ClassFilter(), matcher: other.MethodMatcher()},
	)
	c.filter = UnionClassFilter(c.filter, other.ClassFilter())
	return c
}

// Intersection matches what both pointcuts match.
func (c *ComposablePointcut) Intersection(other types.Pointcut) *ComposablePointcut {
	c.filter = IntersectionClassFilter(c.filter, other.ClassFilter())
	c.matcher = IntersectionMethodMatcher(c.matcher, other.MethodMatcher())
	return c
}

func (c *ComposablePointcut) ClassFilter() types.ClassFilter {
	return c.filter
}

func (c *ComposablePointcut) MethodMatcher() types.MethodMatcher {
	return c.matcher
}

// classFilteredMatcher applies matcher only to types accepted by filter.
type classFilteredMatcher struct {
	filter  types.ClassFilter
	matcher types.MethodMatcher
}

func (m classFilteredMatcher) Matches(method *types.Method, targetType reflect.Type) bool {
	return m.MatchesWithIntroductions(method, targetType, false)
}

func (m classFilteredMatcher) MatchesWithIntroductions(method *types.Method, targetType reflect.Type, hasIntroductions bool) bool {
	return m.filter.Matches(targetType) && matchesWithIntroductions(m.matcher, method, targetType, hasIntroductions)
}

func (m classFilteredMatcher) IsRuntime() bool {
	return m.matcher.IsRuntime()
}

func (m classFilteredMatcher) MatchesArgs(method *types.Method, targetType reflect.Type, args []interface{}) bool {
	return m.matcher.MatchesArgs(method, targetType, args)
}

// Matches reports whether pc applies to the method on targetType, evaluating
// runtime matchers with args. Intended for tests and tooling, the engine never
// calls it on the dispatch path.
func Matches(pc types.Pointcut, method *types.Method, targetType reflect.Type, args ...interface{}) bool {
	if !pc.ClassFilter().Matches(targetType) {
		return false
	}
	mm := pc.MethodMatcher()
	if !mm.Matches(method, targetType) {
		return false
	}
	if mm.IsRuntime() {
		return mm.MatchesArgs(method, targetType, args)
	}
	return true
}
