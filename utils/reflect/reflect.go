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

// Package reflect provides reflection helpers used by the proxy engine:
// panic free equality of arbitrary values, identity checks and type naming.
package reflect

import (
	"reflect"
)

// Equal reports whether a and b are equal without panicking on values whose
// dynamic type is not comparable. Values implementing `Equals(interface{}) bool`
// decide for themselves; funcs are equal when they share the same code
// pointer; other incomparable values fall back to reflect.DeepEqual.
func Equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if eq, ok := a.(interface{ Equals(interface{}) bool }); ok {
		return eq.Equals(b)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	return reflect.DeepEqual(a, b)
}

// Same reports whether a and b refer to the same object: pointers, maps,
// channels and funcs with the same address, or slices sharing the same backing
// array and length. Values of other kinds are copies and never the same.
// It never panics.
func Same(a, b interface{}) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.UnsafePointer, reflect.Func:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	return false
}

// TypeName returns a readable name of v's type, "<nil>" for nil.
func TypeName(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

// Implements reports whether t implements (or, for non interface iface, is
// assignable to) iface.
func Implements(t reflect.Type, iface reflect.Type) bool {
	if t == nil || iface == nil {
		return false
	}
	if iface.Kind() == reflect.Interface {
		return t.Implements(iface)
	}
	return t.AssignableTo(iface)
}
