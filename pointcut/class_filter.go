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

// TrueClassFilter matches every target type, including a nil one.
var TrueClassFilter types.ClassFilter = trueClassFilter{}

type trueClassFilter struct{}

func (trueClassFilter) Matches(reflect.Type) bool {
	return true
}

func (trueClassFilter) String() string {
	return "ClassFilter.TRUE"
}

// TypeClassFilter matches target types assignable to Type. If Type is an
// interface, the target type must implement it.
// TypeClassFilter 目标类型必须可以赋值给 Type（接口则需要实现该接口）
type TypeClassFilter struct {
	Type reflect.Type
}

// NewTypeClassFilter returns a filter for the type of v. Pass a nil pointer to
// an interface to filter by interface: NewTypeClassFilter((*Person)(nil)).
func NewTypeClassFilter(v interface{}) *TypeClassFilter {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	return &TypeClassFilter{Type: t}
}

func (f *TypeClassFilter) Matches(targetType reflect.Type) bool {
	if targetType == nil || f.Type == nil {
		return false
	}
	if f.Type.Kind() == reflect.Interface {
		return targetType.Implements(f.Type)
	}
	return targetType.AssignableTo(f.Type)
}

// ClassFilterFunc adapts a function to a ClassFilter.
type ClassFilterFunc func(targetType reflect.Type) bool

func (f ClassFilterFunc) Matches(targetType reflect.Type) bool {
	return f(targetType)
}

// UnionClassFilter matches if any of the filters matches.
func UnionClassFilter(filters ...types.ClassFilter) types.ClassFilter {
	return unionClassFilter(filters)
}

type unionClassFilter []types.ClassFilter

func (u unionClassFilter) Matches(targetType reflect.Type) bool {
	for _, f := range u {
		if f.Matches(targetType) {
			return true
		}
	}
	return false
}

// IntersectionClassFilter matches if every filter matches.
func IntersectionClassFilter(filters ...types.ClassFilter) types.ClassFilter {
	return intersectionClassFilter(filters)
}

type intersectionClassFilter []types.ClassFilter

func (i intersectionClassFilter) Matches(targetType reflect.Type) bool {
	for _, f := range i {
		if !f.Matches(targetType) {
			return false
		}
	}
	return true
}
