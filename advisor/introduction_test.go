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
	"reflect"
	"testing"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
)

// Lockable is introduced on proxies in tests.
type Lockable interface {
	Lock()
	Unlock()
	Locked() bool
	Me() Lockable
}

type lockMixin struct {
	locked bool
}

func (l *lockMixin) Lock()        { l.locked = true }
func (l *lockMixin) Unlock()      { l.locked = false }
func (l *lockMixin) Locked() bool { return l.locked }
func (l *lockMixin) Me() Lockable { return l }

var lockableType = types.InterfaceOf[Lockable]()

func lockableMethod(name string) *types.Method {
	for _, m := range types.MethodsOf(lockableType) {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func TestDelegatingIntroductionInterceptor(t *testing.T) {
	mixin := &lockMixin{}
	ii, err := NewDelegatingIntroductionInterceptor(mixin, lockableType)
	assert.Nil(t, err)
	assert.True(t, ii.ImplementsInterface(lockableType))
	assert.False(t, ii.ImplementsInterface(test.PersonType))
	assert.Equal(t, mixin, ii.Delegate())

	employee := test.NewEmployee("lala", 3)
	mi := test.NewStubInvocation(employee, "GetAge")
	mi.M = lockableMethod("Lock")
	_, err = ii.Invoke(mi)
	assert.Nil(t, err)
	assert.True(t, mixin.Locked())
	assert.Equal(t, 0, mi.Proceeded)

	//返回 delegate 自身时替换为代理
	mi.M = lockableMethod("Me")
	mi.ProxyRef = "proxy"
	results, err := ii.Invoke(mi)
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"proxy"}, results)

	//其他方法继续执行
	results, err = ii.Invoke(test.NewStubInvocation(employee, "GetAge"))
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{3}, results)

	_, err = NewDelegatingIntroductionInterceptor(mixin, test.PersonType)
	assert.ErrorIs(t, err, types.ErrIntroductionNotImplemented)
	_, err = NewDelegatingIntroductionInterceptor(mixin, reflect.TypeOf(mixin))
	assert.ErrorIs(t, err, types.ErrNotInterface)
	_, err = NewDelegatingIntroductionInterceptor(nil)
	assert.ErrorIs(t, err, types.ErrMissingProperty)
}

func TestIntroductionAdvisor(t *testing.T) {
	ii, _ := NewDelegatingIntroductionInterceptor(&lockMixin{}, lockableType)
	a, err := NewIntroductionAdvisor(ii)
	assert.Nil(t, err)
	assert.Equal(t, []reflect.Type{lockableType}, a.Interfaces())
	assert.True(t, a.ClassFilter().Matches(employeeType))
	assert.Equal(t, types.Unordered, a.Order())
	assert.Nil(t, a.ValidateInterfaces())

	_, err = NewIntroductionAdvisor(ii, test.PersonType)
	assert.ErrorIs(t, err, types.ErrIntroductionNotImplemented)
	_, err = NewIntroductionAdvisor(&test.CountingInterceptor{}, lockableType)
	assert.ErrorIs(t, err, types.ErrIntroductionNotImplemented)

	a.SetClassFilter(nil)
	assert.True(t, a.ClassFilter().Matches(nil))
}
