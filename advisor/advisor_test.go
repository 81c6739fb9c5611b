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
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/pointcut"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
)

var employeeType = reflect.TypeOf(&test.Employee{})

func TestPointcutAdvisor(t *testing.T) {
	counter := &test.CountingBeforeAdvice{}
	a := NewAdvisor(counter)
	assert.Equal(t, types.Unordered, a.Order())
	assert.Equal(t, counter, a.Advice())
	assert.True(t, pointcut.Matches(a.Pointcut(), test.PersonMethod("GetAge"), employeeType))
	assert.Equal(t, 5, a.WithOrder(5).Order())

	a = NewPointcutAdvisor(nil, counter)
	assert.Equal(t, pointcut.TruePointcut, a.Pointcut())
}

func TestNameMatchAdvisor(t *testing.T) {
	a, err := NewNameMatchAdvisor(&test.CountingBeforeAdvice{}, "Set*")
	assert.Nil(t, err)
	assert.Equal(t, []string{"Set*"}, a.MappedNames())
	assert.True(t, pointcut.Matches(a.Pointcut(), test.PersonMethod("SetAge"), employeeType))
	assert.False(t, pointcut.Matches(a.Pointcut(), test.PersonMethod("GetAge"), employeeType))
	a.SetClassFilter(pointcut.NewTypeClassFilter(""))
	assert.False(t, pointcut.Matches(a.Pointcut(), test.PersonMethod("SetAge"), employeeType))

	_, err = NewNameMatchAdvisor(&test.CountingBeforeAdvice{}, "Set[")
	assert.NotNil(t, err)

	r, err := NewRegexpAdvisor(&test.CountingBeforeAdvice{}, `.*Person\.Get.*`)
	assert.Nil(t, err)
	assert.True(t, pointcut.Matches(r.Pointcut(), test.PersonMethod("GetAge"), employeeType))
}

func TestAdapterRegistry(t *testing.T) {
	registry := NewDefaultAdapterRegistry()

	interceptor := &test.CountingInterceptor{}
	a, err := registry.Wrap(interceptor)
	assert.Nil(t, err)
	assert.Equal(t, interceptor, a.Advice())

	advisor := NewAdvisor(interceptor)
	a, err = registry.Wrap(advisor)
	assert.Nil(t, err)
	assert.Equal(t, advisor, a)

	_, err = registry.Wrap(&test.CountingBeforeAdvice{})
	assert.Nil(t, err)

	_, err = registry.Wrap("not an advice")
	assert.ErrorIs(t, err, types.ErrUnknownAdviceType)
	_, err = registry.Interceptors(NewAdvisor(42))
	assert.ErrorIs(t, err, types.ErrUnknownAdviceType)

	interceptors, err := registry.Interceptors(NewAdvisor(interceptor))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(interceptors))
	assert.Equal(t, interceptor, interceptors[0])
}

// aroundBeforeAdvice is both an interceptor and a before advice.
type aroundBeforeAdvice struct {
	around, before int
}

func (a *aroundBeforeAdvice) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	a.around++
	return mi.Proceed()
}

func (a *aroundBeforeAdvice) Before(ctx context.Context, method *types.Method, args []interface{}, target interface{}) error {
	a.before++
	return nil
}

// beforeAfterAdvice is both a before and an after returning advice.
type beforeAfterAdvice struct {
	before, after int
}

func (a *beforeAfterAdvice) Before(ctx context.Context, method *types.Method, args []interface{}, target interface{}) error {
	a.before++
	return nil
}

func (a *beforeAfterAdvice) AfterReturning(ctx context.Context, returnValues []interface{}, method *types.Method, args []interface{}, target interface{}) error {
	a.after++
	return nil
}

func TestMultiKindAdvice(t *testing.T) {
	registry := NewDefaultAdapterRegistry()
	employee := test.NewEmployee("lala", 3)

	//拦截器优先，不再经过适配器
	around := &aroundBeforeAdvice{}
	interceptors, err := registry.Interceptors(NewAdvisor(around))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(interceptors))
	_, err = interceptors[0].Invoke(test.NewStubInvocation(employee, "GetName"))
	assert.Nil(t, err)
	assert.Equal(t, 1, around.around)
	assert.Equal(t, 0, around.before)

	//只使用第一个支持的适配器
	both := &beforeAfterAdvice{}
	interceptors, err = registry.Interceptors(NewAdvisor(both))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(interceptors))
	_, ok := interceptors[0].(*MethodBeforeAdviceInterceptor)
	assert.True(t, ok)
	_, err = interceptors[0].Invoke(test.NewStubInvocation(employee, "GetName"))
	assert.Nil(t, err)
	assert.Equal(t, 1, both.before)
	assert.Equal(t, 0, both.after)
}

// auditAdvice is a custom advice kind, adapted by auditAdapter.
type auditAdvice struct {
	calls []string
}

type auditAdapter struct{}

func (auditAdapter) SupportsAdvice(advice types.Advice) bool {
	_, ok := advice.(*auditAdvice)
	return ok
}

func (auditAdapter) Interceptor(advisor types.Advisor) types.MethodInterceptor {
	audit := advisor.Advice().(*auditAdvice)
	return types.MethodInterceptorFunc(func(mi types.MethodInvocation) ([]interface{}, error) {
		audit.calls = append(audit.calls, mi.Method().Name)
		return mi.Proceed()
	})
}

func TestRegisterAdapterIsolation(t *testing.T) {
	r1 := NewDefaultAdapterRegistry()
	r2 := NewDefaultAdapterRegistry()
	r1.RegisterAdapter(auditAdapter{})

	audit := &auditAdvice{}
	interceptors, err := r1.Interceptors(NewAdvisor(audit))
	assert.Nil(t, err)
	//其他注册表不受影响
	_, err = r2.Interceptors(NewAdvisor(audit))
	assert.ErrorIs(t, err, types.ErrUnknownAdviceType)

	mi := test.NewStubInvocation(test.NewEmployee("lala", 3), "GetAge")
	results, err := interceptors[0].Invoke(mi)
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{3}, results)
	assert.Equal(t, []string{"GetAge"}, audit.calls)
}

func TestBeforeAdviceInterceptor(t *testing.T) {
	employee := test.NewEmployee("lala", 3)
	counter := &test.CountingBeforeAdvice{}
	interceptors, err := NewDefaultAdapterRegistry().Interceptors(NewAdvisor(counter))
	assert.Nil(t, err)

	mi := test.NewStubInvocation(employee, "SetAge", 5)
	_, err = interceptors[0].Invoke(mi)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), counter.Count())
	assert.Equal(t, int64(1), employee.Counter())
	assert.Equal(t, 5, employee.GetAge())

	veto := errors.New("veto")
	before := &MethodBeforeAdviceInterceptor{Advice: types.BeforeAdviceFunc(func(ctx context.Context, method *types.Method, args []interface{}, target interface{}) error {
		return veto
	})}
	mi = test.NewStubInvocation(employee, "SetAge", 9)
	_, err = before.Invoke(mi)
	assert.Equal(t, veto, err)
	assert.Equal(t, 0, mi.Proceeded)
	assert.Equal(t, 5, employee.GetAge())
}

func TestAfterReturningAdviceInterceptor(t *testing.T) {
	var seen []interface{}
	after := &AfterReturningAdviceInterceptor{Advice: types.AfterReturningAdviceFunc(func(ctx context.Context, returnValues []interface{}, method *types.Method, args []interface{}, target interface{}) error {
		seen = returnValues
		return nil
	})}
	employee := test.NewEmployee("lala", 3)
	results, err := after.Invoke(test.NewStubInvocation(employee, "GetName"))
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"lala"}, results)
	assert.Equal(t, results, seen)

	//目标方法返回错误时不调用
	seen = nil
	_, err = after.Invoke(test.NewStubInvocation(employee, "SetAge", -1))
	assert.Equal(t, test.ErrNegativeAge, err)
	assert.Nil(t, seen)
}

type throwsRecorder struct {
	err     error
	replace error
}

func (r *throwsRecorder) AfterThrowing(ctx context.Context, method *types.Method, args []interface{}, target interface{}, err error) error {
	r.err = err
	return r.replace
}

func TestThrowsAdviceInterceptor(t *testing.T) {
	recorder := &throwsRecorder{}
	registry := NewDefaultAdapterRegistry()
	interceptors, err := registry.Interceptors(NewAdvisor(recorder))
	assert.Nil(t, err)
	employee := test.NewEmployee("lala", 3)

	_, err = interceptors[0].Invoke(test.NewStubInvocation(employee, "Fail", "x"))
	var ageErr *test.AgeError
	assert.True(t, errors.As(err, &ageErr))
	assert.Equal(t, err, recorder.err)

	recorder.replace = errors.New("translated")
	_, err = interceptors[0].Invoke(test.NewStubInvocation(employee, "Fail", "x"))
	assert.Equal(t, recorder.replace, err)

	recorder.err = nil
	_, err = interceptors[0].Invoke(test.NewStubInvocation(employee, "GetAge"))
	assert.Nil(t, err)
	assert.Nil(t, recorder.err)
}

func TestMerge(t *testing.T) {
	common1 := NewAdvisor(&test.CountingInterceptor{})
	common2 := NewAdvisor(&test.CountingInterceptor{}).WithOrder(1)
	specific1 := NewAdvisor(&test.CountingInterceptor{})
	specific2 := NewAdvisor(&test.CountingInterceptor{}).WithOrder(0)

	merged := Merge([]types.Advisor{common1, common2}, []types.Advisor{specific1, specific2}, true)
	assert.Equal(t, []types.Advisor{specific2, common2, common1, specific1}, merged)

	merged = Merge([]types.Advisor{common1}, []types.Advisor{specific1}, false)
	assert.Equal(t, []types.Advisor{specific1, common1}, merged)
	merged = Merge([]types.Advisor{common1}, []types.Advisor{specific1}, true)
	assert.Equal(t, []types.Advisor{common1, specific1}, merged)
}
