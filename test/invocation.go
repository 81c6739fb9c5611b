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
package test

import (
	"context"
	"reflect"

	"github.com/rulego/aop/api/types"
)

// StubInvocation is a MethodInvocation whose Proceed calls ProceedFunc, or the
// method on TargetObj when ProceedFunc is nil. It lets interceptors be tested
// without building a proxy.
type StubInvocation struct {
	Ctx         context.Context
	M           *types.Method
	Args        []interface{}
	TargetObj   interface{}
	ProxyRef    interface{}
	ProceedFunc func() ([]interface{}, error)
	// Proceeded counts the Proceed calls.
	Proceeded int
	attrs     map[string]interface{}
}

var _ types.MethodInvocation = (*StubInvocation)(nil)

// NewStubInvocation creates an invocation of the named Person method on target.
func NewStubInvocation(target interface{}, name string, args ...interface{}) *StubInvocation {
	return &StubInvocation{
		Ctx:       context.Background(),
		M:         PersonMethod(name),
		Args:      args,
		TargetObj: target,
	}
}

// PersonMethod returns the descriptor of the named Person method.
func PersonMethod(name string) *types.Method {
	for _, m := range types.MethodsOf(PersonType) {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (s *StubInvocation) Context() context.Context {
	if s.Ctx == nil {
		return context.Background()
	}
	return s.Ctx
}

func (s *StubInvocation) SetContext(ctx context.Context) {
	s.Ctx = ctx
}

func (s *StubInvocation) ID() string {
	return "stub"
}

func (s *StubInvocation) Method() *types.Method {
	return s.M
}

func (s *StubInvocation) Arguments() []interface{} {
	return s.Args
}

func (s *StubInvocation) SetArguments(args ...interface{}) {
	s.Args = args
}

func (s *StubInvocation) Proxy() interface{} {
	return s.ProxyRef
}

func (s *StubInvocation) Target() interface{} {
	return s.TargetObj
}

func (s *StubInvocation) TargetType() reflect.Type {
	if s.TargetObj == nil {
		return nil
	}
	return reflect.TypeOf(s.TargetObj)
}

func (s *StubInvocation) Proceed() ([]interface{}, error) {
	s.Proceeded++
	if s.ProceedFunc != nil {
		return s.ProceedFunc()
	}
	return s.M.Call(s.Context(), s.TargetObj, s.Args)
}

func (s *StubInvocation) Clone() types.MethodInvocation {
	c := *s
	c.attrs = nil
	for k, v := range s.attrs {
		c.SetAttribute(k, v)
	}
	return &c
}

func (s *StubInvocation) Attribute(key string) interface{} {
	return s.attrs[key]
}

func (s *StubInvocation) SetAttribute(key string, value interface{}) {
	if s.attrs == nil {
		s.attrs = make(map[string]interface{})
	}
	s.attrs[key] = value
}
