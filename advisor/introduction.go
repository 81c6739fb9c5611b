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
package advisor

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/pointcut"
	reflectutil "github.com/rulego/aop/utils/reflect"
)

// DefaultIntroductionAdvisor introduces interfaces on proxies. It is filtered
// at type level only: every method of an introduced interface is routed to the
// introduction advice.
// DefaultIntroductionAdvisor 引入顾问，为代理增加新的接口
type DefaultIntroductionAdvisor struct {
	Ordered
	advice     types.Advice
	interfaces []reflect.Type
	filter     types.ClassFilter
}

var _ types.IntroductionAdvisor = (*DefaultIntroductionAdvisor)(nil)

// NewIntroductionAdvisor creates an advisor introducing ifaces. If ifaces is
// empty and the advice is a DelegatingIntroductionInterceptor, the interfaces
// of its delegate are introduced.
func NewIntroductionAdvisor(advice types.Advice, ifaces ...reflect.Type) (*DefaultIntroductionAdvisor, error) {
	if len(ifaces) == 0 {
		if d, ok := advice.(interface{ Interfaces() []reflect.Type }); ok {
			ifaces = d.Interfaces()
		}
	}
	a := &DefaultIntroductionAdvisor{
		advice:     advice,
		interfaces: append([]reflect.Type(nil), ifaces...),
		filter:     pointcut.TrueClassFilter,
	}
	if err := a.ValidateInterfaces(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *DefaultIntroductionAdvisor) Advice() types.Advice {
	return a.advice
}

func (a *DefaultIntroductionAdvisor) ClassFilter() types.ClassFilter {
	return a.filter
}

// SetClassFilter restricts the target types the introduction applies to.
func (a *DefaultIntroductionAdvisor) SetClassFilter(cf types.ClassFilter) {
	if cf == nil {
		cf = pointcut.TrueClassFilter
	}
	a.filter = cf
}

func (a *DefaultIntroductionAdvisor) Interfaces() []reflect.Type {
	return append([]reflect.Type(nil), a.interfaces...)
}

// ValidateInterfaces checks that every introduced type is an interface the
// advice implements.
func (a *DefaultIntroductionAdvisor) ValidateInterfaces() error {
	dia, ok := a.advice.(types.DynamicIntroductionAdvice)
	if !ok {
		return errors.Wrapf(types.ErrIntroductionNotImplemented, "%T is not an introduction advice", a.advice)
	}
	for _, iface := range a.interfaces {
		if iface == nil || iface.Kind() != reflect.Interface {
			return errors.Wrapf(types.ErrNotInterface, "%v cannot be introduced", iface)
		}
		if !dia.ImplementsInterface(iface) {
			return errors.Wrapf(types.ErrIntroductionNotImplemented, "%T does not implement %s", a.advice, iface)
		}
	}
	return nil
}

func (a *DefaultIntroductionAdvisor) String() string {
	return fmt.Sprintf("DefaultIntroductionAdvisor: interfaces %v; advice [%T]", a.interfaces, a.advice)
}

// DelegatingIntroductionInterceptor serves the methods of the introduced
// interfaces from a delegate object, and lets every other method proceed.
// A delegate method returning the delegate itself returns the proxy instead.
// DelegatingIntroductionInterceptor 引入接口的方法由 delegate 处理，其他方法继续执行拦截器链
type DelegatingIntroductionInterceptor struct {
	delegate   interface{}
	interfaces []reflect.Type
}

var _ types.IntroductionInterceptor = (*DelegatingIntroductionInterceptor)(nil)

// NewDelegatingIntroductionInterceptor creates the interceptor. Every given
// interface must be implemented by delegate.
func NewDelegatingIntroductionInterceptor(delegate interface{}, ifaces ...reflect.Type) (*DelegatingIntroductionInterceptor, error) {
	if delegate == nil {
		return nil, errors.Wrap(types.ErrMissingProperty, "delegate is nil")
	}
	t := reflect.TypeOf(delegate)
	for _, iface := range ifaces {
		if iface == nil || iface.Kind() != reflect.Interface {
			return nil, errors.Wrapf(types.ErrNotInterface, "%v cannot be introduced", iface)
		}
		if !t.Implements(iface) {
			return nil, errors.Wrapf(types.ErrIntroductionNotImplemented, "%s does not implement %s", t, iface)
		}
	}
	return &DelegatingIntroductionInterceptor{delegate: delegate, interfaces: ifaces}, nil
}

// Delegate returns the object serving the introduced methods.
func (d *DelegatingIntroductionInterceptor) Delegate() interface{} {
	return d.delegate
}

// Interfaces returns the introduced interfaces.
func (d *DelegatingIntroductionInterceptor) Interfaces() []reflect.Type {
	return append([]reflect.Type(nil), d.interfaces...)
}

func (d *DelegatingIntroductionInterceptor) ImplementsInterface(iface reflect.Type) bool {
	for _, i := range d.interfaces {
		if i == iface {
			return true
		}
	}
	return false
}

func (d *DelegatingIntroductionInterceptor) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	method := mi.Method()
	if method.Owner == nil || !d.ImplementsInterface(method.Owner) {
		return mi.Proceed()
	}
	results, err := method.Call(mi.Context(), d.delegate, mi.Arguments())
	for i, r := range results {
		if reflectutil.Same(r, d.delegate) {
			results[i] = mi.Proxy()
		}
	}
	return results, err
}
