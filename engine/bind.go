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
	"context"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
)

// Bind populates the exported func fields of the struct ptr points to with
// functions calling the proxy. The method of a field is named by its aop tag
// ("-" skips the field), else by the field name, else by the field name
// without its Func suffix. The field type must be the method signature.
// Fields of type types.Proxy are set to the proxy.
//
// Bound functions panic with the dispatch error when the method declares no
// error result. A target returning itself through a bound function returns ptr
// where the declared result type allows it.
//
//	type PersonStub struct {
//		Proxy       types.Proxy
//		GetNameFunc func() string
//		SetAgeFunc  func(int) error
//	}
func (p *DynamicProxy) Bind(ptr interface{}) error {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return errors.Wrapf(types.ErrBindSignature, "bind target must be a non nil struct pointer, got %T", ptr)
	}
	s := v.Elem()
	st := s.Type()
	self := reflect.ValueOf(&p.self).Elem()
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Type == proxyType {
			s.Field(i).Set(self)
			continue
		}
		if field.Type.Kind() != reflect.Func {
			continue
		}
		tag := field.Tag.Get("aop")
		if tag == "-" {
			continue
		}
		pm, err := p.bindMethod(field, tag)
		if err != nil {
			return err
		}
		s.Field(i).Set(reflect.MakeFunc(field.Type, p.trampoline(ptr, pm)))
	}
	return nil
}

func (p *DynamicProxy) bindMethod(field reflect.StructField, tag string) (*proxyMethod, error) {
	names := []string{field.Name, strings.TrimSuffix(field.Name, "Func")}
	if tag != "" {
		names = []string{tag}
	}
	for _, name := range names {
		if pm, ok := p.lookup[name]; ok {
			if pm.Type != field.Type {
				return nil, errors.Wrapf(types.ErrBindSignature, "field %s is %s, method %s is %s", field.Name, field.Type, pm.Method, pm.Type)
			}
			return pm, nil
		}
	}
	return nil, errors.Wrapf(types.ErrMethodNotFound, "no method for field %s", field.Name)
}

func (p *DynamicProxy) trampoline(ref interface{}, pm *proxyMethod) func(in []reflect.Value) []reflect.Value {
	variadic := pm.Type.IsVariadic()
	return func(in []reflect.Value) []reflect.Value {
		ctx := context.Background()
		if pm.TakesContext {
			if c, ok := in[0].Interface().(context.Context); ok && c != nil {
				ctx = c
			}
			in = in[1:]
		}
		args := make([]interface{}, 0, len(in))
		for i, arg := range in {
			if variadic && i == len(in)-1 {
				for j := 0; j < arg.Len(); j++ {
					args = append(args, arg.Index(j).Interface())
				}
				continue
			}
			args = append(args, arg.Interface())
		}
		results, err := p.invoke(ctx, ref, true, pm, args)
		if err != nil && !pm.ReturnsError {
			panic(err)
		}
		out, convErr := pm.Values(results, err)
		if convErr != nil {
			panic(convErr)
		}
		return out
	}
}
