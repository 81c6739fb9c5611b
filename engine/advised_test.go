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
	"reflect"
	"strings"
	"testing"

	"github.com/rulego/aop/advisor"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/target"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
)

type poolStats struct{}

func (poolStats) MaxSize() int     { return 4 }
func (poolStats) ActiveCount() int { return 1 }
func (poolStats) IdleCount() int   { return 3 }

func TestAdvisorPositions(t *testing.T) {
	advised := NewAdvisedSupport(NewConfig())
	a := advisor.NewAdvisor(&test.CountingInterceptor{})
	b := advisor.NewAdvisor(&test.CountingInterceptor{})
	c := advisor.NewAdvisor(&test.CountingInterceptor{})
	assert.Nil(t, advised.AddAdvisors(a, b))
	assert.Nil(t, advised.AddAdvisorAt(1, c))
	assert.Equal(t, []types.Advisor{a, c, b}, advised.GetAdvisors())
	assert.Equal(t, 2, advised.IndexOf(b))

	assert.NotNil(t, advised.AddAdvisorAt(4, a))
	assert.NotNil(t, advised.AddAdvisorAt(-1, a))
	assert.ErrorIs(t, advised.AddAdvisor(nil), types.ErrMissingProperty)

	removed, err := advised.RemoveAdvisor(advisor.NewAdvisor(&test.CountingInterceptor{}))
	assert.Nil(t, err)
	assert.False(t, removed)
	assert.ErrorIs(t, advised.RemoveAdvisorAt(3), types.ErrAdvisorNotFound)

	d := advisor.NewAdvisor(&test.CountingInterceptor{})
	replaced, err := advised.ReplaceAdvisor(a, d)
	assert.Nil(t, err)
	assert.True(t, replaced)
	assert.Equal(t, 0, advised.IndexOf(d))
	assert.Equal(t, -1, advised.IndexOf(a))

	replaced, err = advised.ReplaceAdvisor(a, d)
	assert.Nil(t, err)
	assert.False(t, replaced)
	//替换失败时保留原顾问
	_, err = advised.ReplaceAdvisor(c, nil)
	assert.ErrorIs(t, err, types.ErrMissingProperty)
	assert.Equal(t, 1, advised.IndexOf(c))

	removed, err = advised.RemoveAdvisor(c)
	assert.Nil(t, err)
	assert.True(t, removed)
	assert.Equal(t, []types.Advisor{d, b}, advised.GetAdvisors())
}

func TestAdviceWrapping(t *testing.T) {
	advised := NewAdvisedSupport(NewConfig())
	before := &test.CountingBeforeAdvice{}
	interceptor := &test.CountingInterceptor{}
	assert.Nil(t, advised.AddAdvice(interceptor))
	assert.Nil(t, advised.AddAdviceAt(0, before))
	assert.Equal(t, 0, advised.IndexOfAdvice(before))
	assert.Equal(t, 1, advised.IndexOfAdvice(interceptor))
	assert.True(t, advised.GetAdvisors()[0].Advice() == types.Advice(before))

	assert.ErrorIs(t, advised.AddAdvice(nil), types.ErrMissingProperty)
	assert.ErrorIs(t, advised.AddAdvice(42), types.ErrUnknownAdviceType)

	removed, err := advised.RemoveAdvice(before)
	assert.Nil(t, err)
	assert.True(t, removed)
	assert.Equal(t, -1, advised.IndexOfAdvice(before))
}

func TestInterfaces(t *testing.T) {
	advised := NewAdvisedSupport(NewConfig())
	assert.ErrorIs(t, advised.SetInterfaces(reflect.TypeOf(0)), types.ErrNotInterface)
	assert.ErrorIs(t, advised.AddInterface(nil), types.ErrNotInterface)

	assert.Nil(t, advised.SetInterfaces(test.PersonType))
	assert.Nil(t, advised.AddInterface(test.PersonType))
	assert.Equal(t, 1, len(advised.GetProxiedInterfaces()))
	assert.True(t, advised.IsInterfaceProxied(test.PersonType))
	assert.False(t, advised.IsInterfaceProxied(nil))
	//已代理接口实现了更小的接口
	assert.True(t, advised.IsInterfaceProxied(reflect.TypeOf((*interface{ GetName() string })(nil)).Elem()))
	assert.True(t, advised.RemoveInterface(test.PersonType))
	assert.False(t, advised.RemoveInterface(test.PersonType))

	stats := types.InterfaceOf[types.PoolingConfig]()
	dii, err := advisor.NewDelegatingIntroductionInterceptor(poolStats{}, stats)
	assert.Nil(t, err)
	ia, err := advisor.NewIntroductionAdvisor(dii)
	assert.Nil(t, err)
	assert.Nil(t, advised.AddAdvisor(ia))
	assert.True(t, advised.IsInterfaceProxied(stats))
	removed, err := advised.RemoveAdvisor(ia)
	assert.Nil(t, err)
	assert.True(t, removed)
	assert.False(t, advised.IsInterfaceProxied(stats))
}

func TestFrozenConfiguration(t *testing.T) {
	advised := NewAdvisedSupport(NewConfig())
	assert.True(t, target.IsEmpty(advised.GetTargetSource()))
	assert.Nil(t, advised.SetTarget(test.NewEmployee("lala", 18)))
	assert.Equal(t, reflect.TypeOf(&test.Employee{}), advised.TargetType())
	assert.Nil(t, advised.SetTargetSource(nil))
	assert.True(t, target.IsEmpty(advised.GetTargetSource()))

	interceptor := &test.CountingInterceptor{}
	assert.Nil(t, advised.AddAdvice(interceptor))
	advised.SetProxyConfig(types.ProxyConfig{Frozen: true, Optimize: true})
	assert.True(t, advised.IsFrozen())
	assert.True(t, advised.IsOptimize())
	assert.False(t, advised.IsOpaque())

	assert.ErrorIs(t, advised.AddAdvice(&test.CountingInterceptor{}), types.ErrConfigFrozen)
	assert.ErrorIs(t, advised.RemoveAdvisorAt(0), types.ErrConfigFrozen)
	_, err := advised.RemoveAdvice(interceptor)
	assert.ErrorIs(t, err, types.ErrConfigFrozen)
	assert.Equal(t, 1, len(advised.GetAdvisors()))

	description := advised.ToProxyConfigString()
	assert.True(t, strings.Contains(description, "1 advisors"))
	assert.True(t, strings.Contains(description, "optimize=true; opaque=false; exposeProxy=false; frozen=true"))

	advised.SetFrozen(false)
	assert.Nil(t, advised.RemoveAdvisorAt(0))
}
