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

	"github.com/pkg/errors"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Method describes a method that can be invoked through a proxy.
// Method 可以通过代理调用的方法描述
type Method struct {
	// Name 方法名
	Name string
	// Type is the method signature without receiver.
	// Type 方法签名，不包含接收者
	Type reflect.Type
	// Owner is the interface (or concrete type) declaring the method.
	// Owner 声明该方法的接口或者具体类型
	Owner reflect.Type
	// TakesContext reports whether the first parameter is a context.Context.
	// The context parameter is not part of the invocation arguments.
	TakesContext bool
	// ReturnsError reports whether the last result is an error.
	ReturnsError bool
}

// NewMethod creates a method descriptor. t must be a func type without receiver.
func NewMethod(owner reflect.Type, name string, t reflect.Type) *Method {
	m := &Method{Name: name, Type: t, Owner: owner}
	if t.NumIn() > 0 && t.In(0) == contextType {
		m.TakesContext = true
	}
	if t.NumOut() > 0 && t.Out(t.NumOut()-1) == errorType {
		m.ReturnsError = true
	}
	return m
}

// MethodsOf returns the exported methods of t. For interface types the declared
// methods are returned, for other types the method set of t.
// MethodsOf 返回类型的导出方法
func MethodsOf(t reflect.Type) []*Method {
	if t == nil {
		return nil
	}
	var methods []*Method
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if m.PkgPath != "" {
			continue
		}
		ft := m.Type
		if t.Kind() != reflect.Interface {
			ft = dropReceiver(ft)
		}
		methods = append(methods, NewMethod(t, m.Name, ft))
	}
	return methods
}

// dropReceiver removes the receiver from a method expression type.
func dropReceiver(t reflect.Type) reflect.Type {
	in := make([]reflect.Type, 0, t.NumIn()-1)
	for i := 1; i < t.NumIn(); i++ {
		in = append(in, t.In(i))
	}
	out := make([]reflect.Type, 0, t.NumOut())
	for i := 0; i < t.NumOut(); i++ {
		out = append(out, t.Out(i))
	}
	return reflect.FuncOf(in, out, t.IsVariadic())
}

// String returns Owner.Name.
func (m *Method) String() string {
	if m.Owner == nil {
		return m.Name
	}
	return m.Owner.String() + "." + m.Name
}

// NumArgs returns the number of invocation arguments, the context parameter excluded.
func (m *Method) NumArgs() int {
	if m.TakesContext {
		return m.Type.NumIn() - 1
	}
	return m.Type.NumIn()
}

// ArgType returns the type of the i-th invocation argument.
func (m *Method) ArgType(i int) reflect.Type {
	if m.TakesContext {
		i++
	}
	return m.Type.In(i)
}

// NumResults returns the number of result values, the trailing error excluded.
func (m *Method) NumResults() int {
	if m.ReturnsError {
		return m.Type.NumOut() - 1
	}
	return m.Type.NumOut()
}

// ResultType returns the type of the i-th result value.
func (m *Method) ResultType(i int) reflect.Type {
	return m.Type.Out(i)
}

// SameSignature reports whether o has the same name and signature.
func (m *Method) SameSignature(o *Method) bool {
	return o != nil && m.Name == o.Name && m.Type == o.Type
}

// In converts ctx and args to the reflect values used to call the method.
// nil arguments become zero values and convertible arguments are converted
// (e.g. an untyped int constant passed to an int32 parameter).
func (m *Method) In(ctx context.Context, args []interface{}) ([]reflect.Value, error) {
	n := m.NumArgs()
	variadic := m.Type.IsVariadic()
	if (!variadic && len(args) != n) || (variadic && len(args) < n-1) {
		return nil, errors.Wrapf(ErrArgumentMismatch, "%s expects %d arguments, got %d", m, n, len(args))
	}
	in := make([]reflect.Value, 0, len(args)+1)
	if m.TakesContext {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, arg := range args {
		var t reflect.Type
		if variadic && i >= n-1 {
			t = m.ArgType(n - 1).Elem()
		} else {
			t = m.ArgType(i)
		}
		v, err := valueOf(arg, t)
		if err != nil {
			return nil, errors.Wrapf(err, "%s argument %d", m, i)
		}
		in = append(in, v)
	}
	return in, nil
}

// Out splits the reflect results of a call into the result values and the
// trailing error, if the method declares one.
func (m *Method) Out(out []reflect.Value) ([]interface{}, error) {
	n := len(out)
	var err error
	if m.ReturnsError && n > 0 {
		if e := out[n-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
		n--
	}
	if n == 0 {
		return nil, err
	}
	results := make([]interface{}, n)
	for i := 0; i < n; i++ {
		results[i] = out[i].Interface()
	}
	return results, err
}

// Values converts result values back to reflect values of the declared types.
// errValue is placed in the error slot when the method returns an error.
func (m *Method) Values(results []interface{}, errValue error) ([]reflect.Value, error) {
	out := make([]reflect.Value, m.Type.NumOut())
	for i := 0; i < m.NumResults(); i++ {
		var r interface{}
		if i < len(results) {
			r = results[i]
		}
		v, err := valueOf(r, m.Type.Out(i))
		if err != nil {
			return nil, errors.Wrapf(err, "%s result %d", m, i)
		}
		out[i] = v
	}
	if m.ReturnsError {
		if errValue == nil {
			out[len(out)-1] = reflect.Zero(errorType)
		} else {
			out[len(out)-1] = reflect.ValueOf(&errValue).Elem()
		}
	}
	return out, nil
}

func valueOf(v interface{}, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		if t.Kind() == reflect.Interface {
			iv := reflect.New(t).Elem()
			iv.Set(rv)
			return iv, nil
		}
		return rv, nil
	}
	if rv.Type().ConvertibleTo(t) && convertible(rv.Kind(), t.Kind()) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.Wrapf(ErrArgumentMismatch, "%s is not assignable to %s", rv.Type(), t)
}

// convertible limits implicit conversions to numeric kinds and identical kinds,
// so that an int is never silently turned into a string.
func convertible(from, to reflect.Kind) bool {
	if from == to {
		return true
	}
	return isNumber(from) && isNumber(to)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Call invokes the method on target by reflection. ctx is injected when the
// method takes a context. Panics raised by the target propagate unchanged.
// Call 通过反射调用目标对象的方法
func (m *Method) Call(ctx context.Context, target interface{}, args []interface{}) ([]interface{}, error) {
	if target == nil {
		return nil, errors.Wrapf(ErrNoTarget, "%s", m)
	}
	fn := reflect.ValueOf(target).MethodByName(m.Name)
	if !fn.IsValid() {
		return nil, errors.Wrapf(ErrMethodNotFound, "%T has no method %s", target, m.Name)
	}
	in, err := m.In(ctx, args)
	if err != nil {
		return nil, err
	}
	var out []reflect.Value
	if m.Type.IsVariadic() {
		out = fn.CallSlice(variadicIn(m, in))
	} else {
		out = fn.Call(in)
	}
	return m.Out(out)
}

// variadicIn packs the trailing variadic arguments into a slice for CallSlice.
func variadicIn(m *Method, in []reflect.Value) []reflect.Value {
	fixed := m.Type.NumIn() - 1
	rest := reflect.MakeSlice(m.Type.In(fixed), 0, len(in)-fixed)
	for _, v := range in[fixed:] {
		rest = reflect.Append(rest, v)
	}
	return append(in[:fixed:fixed], rest)
}

// InterfaceOf returns the reflect type of the interface T.
// Example: types.InterfaceOf[Person]()
func InterfaceOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
