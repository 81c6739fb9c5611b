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
// Package assert provides the test assertions used across the module.
// Failures report a go-cmp diff of expected and actual values.
package assert

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Equal asserts that expected and actual are deeply equal.
func Equal(t testing.TB, expected, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if !ObjectsAreEqual(expected, actual) {
		t.Errorf("Not equal: %s\nexpected: %#v\nactual  : %#v\n%s", message(msgAndArgs), expected, actual, diff(expected, actual))
	}
}

// NotEqual asserts that expected and actual are not deeply equal.
func NotEqual(t testing.TB, expected, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if ObjectsAreEqual(expected, actual) {
		t.Errorf("Should not be: %#v %s", actual, message(msgAndArgs))
	}
}

// Nil asserts that object is nil, including typed nil pointers.
func Nil(t testing.TB, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if !isNil(object) {
		t.Errorf("Expected nil, but got: %#v %s", object, message(msgAndArgs))
	}
}

// NotNil asserts that object is not nil.
func NotNil(t testing.TB, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if isNil(object) {
		t.Errorf("Expected value not to be nil %s", message(msgAndArgs))
	}
}

// True asserts that value is true.
func True(t testing.TB, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	if !value {
		t.Errorf("Should be true %s", message(msgAndArgs))
	}
}

// False asserts that value is false.
func False(t testing.TB, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	if value {
		t.Errorf("Should be false %s", message(msgAndArgs))
	}
}

// NoError asserts that err is nil.
func NoError(t testing.TB, err error, msgAndArgs ...interface{}) {
	t.Helper()
	if err != nil {
		t.Errorf("Received unexpected error: %+v %s", err, message(msgAndArgs))
	}
}

// EqualError asserts that err is not nil and its message equals expected.
func EqualError(t testing.TB, err error, expected string, msgAndArgs ...interface{}) {
	t.Helper()
	if err == nil {
		t.Errorf("Expected error %q, got nil %s", expected, message(msgAndArgs))
		return
	}
	if err.Error() != expected {
		t.Errorf("Error message not equal:\nexpected: %q\nactual  : %q %s", expected, err.Error(), message(msgAndArgs))
	}
}

// ErrorIs asserts that errors.Is(err, target).
func ErrorIs(t testing.TB, err, target error, msgAndArgs ...interface{}) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("Error chain does not contain target:\nexpected: %v\nactual  : %v %s", target, err, message(msgAndArgs))
	}
}

// Panics asserts that f panics.
func Panics(t testing.TB, f func(), msgAndArgs ...interface{}) {
	t.Helper()
	panicked := func() (p bool) {
		defer func() {
			if recover() != nil {
				p = true
			}
		}()
		f()
		return
	}()
	if !panicked {
		t.Errorf("Function should panic %s", message(msgAndArgs))
	}
}

// Fail reports a failure.
func Fail(t testing.TB, failureMessage string, msgAndArgs ...interface{}) {
	t.Helper()
	t.Errorf("%s %s", failureMessage, message(msgAndArgs))
}

// ObjectsAreEqual reports whether expected and actual are equal. []byte values
// are compared by content.
func ObjectsAreEqual(expected, actual interface{}) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}
	if exp, ok := expected.([]byte); ok {
		act, ok := actual.([]byte)
		return ok && string(exp) == string(act)
	}
	return reflect.DeepEqual(expected, actual)
}

func isNil(object interface{}) bool {
	if object == nil {
		return true
	}
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

// diff returns a go-cmp diff, or "" when the values cannot be diffed
// (e.g. structs with unexported fields).
func diff(expected, actual interface{}) (d string) {
	defer func() {
		if recover() != nil {
			d = ""
		}
	}()
	if reflect.TypeOf(expected) != reflect.TypeOf(actual) {
		return fmt.Sprintf("types differ: %T != %T", expected, actual)
	}
	return "diff (-expected +actual):\n" + cmp.Diff(expected, actual)
}

func message(msgAndArgs []interface{}) string {
	switch len(msgAndArgs) {
	case 0:
		return ""
	case 1:
		return fmt.Sprint(msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
