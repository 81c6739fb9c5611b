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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/target"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
)

func TestPool(t *testing.T) {
	pool := NewPool()
	var created, deleted int32
	pool.Callbacks = Callbacks{
		OnNew: func(name string) {
			atomic.AddInt32(&created, 1)
		},
		OnDeleted: func(name string) {
			atomic.AddInt32(&deleted, 1)
		},
	}
	factory := &test.EmployeeFactory{}
	pooled, err := target.NewPooled(factory, "employee")
	assert.Nil(t, err)

	item, err := pool.New("employees", WithTargetSource(pooled), WithInterfaces(test.PersonType))
	assert.Nil(t, err)
	assert.Equal(t, "employees", item.Name())
	assert.Equal(t, "employees", NameOf(item.Proxy()))
	assert.True(t, item.Advised().IsInterfaceProxied(test.PersonType))

	//同名返回已存在的代理
	again, err := pool.New("employees", WithTarget(test.NewEmployee("other", 1)))
	assert.Nil(t, err)
	assert.True(t, again == item)

	_, err = item.Proxy().Invoke(ctx, "GetName")
	assert.Nil(t, err)
	assert.Equal(t, 1, pooled.IdleCount())

	_, err = pool.New("", WithTarget(test.NewEmployee("other", 1)))
	assert.ErrorIs(t, err, types.ErrMissingProperty)
	_, err = pool.New("broken")
	assert.ErrorIs(t, err, types.ErrNoAdvisorsOrTarget)

	singleton, err := pool.New("singleton", WithTarget(test.NewEmployee("lala", 1)))
	assert.Nil(t, err)
	found, ok := pool.Get("singleton")
	assert.True(t, ok)
	assert.True(t, found == types.NamedProxy(singleton))

	count := 0
	pool.Range(func(key, value any) bool {
		count++
		return true
	})
	assert.Equal(t, 2, count)

	pool.Stop()
	_, ok = pool.Get("employees")
	assert.False(t, ok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&created))
	assert.Equal(t, int32(2), atomic.LoadInt32(&deleted))
	//销毁池化目标来源
	assert.Equal(t, 0, pooled.IdleCount())
	_, err = pooled.GetTarget(ctx)
	assert.ErrorIs(t, err, types.ErrPoolClosed)
}

func TestDefaultPool(t *testing.T) {
	defer Stop()
	threadLocal, err := target.NewThreadLocal(&test.EmployeeFactory{}, "employee", nil)
	assert.Nil(t, err)
	_, err = New("threadLocal", WithTargetSource(threadLocal), WithInterfaces(test.PersonType))
	assert.Nil(t, err)
	item, ok := Get("threadLocal")
	assert.True(t, ok)
	_, err = item.Proxy().Invoke(ctx, "SetAge", 3)
	assert.Nil(t, err)
	assert.Equal(t, 1, threadLocal.ObjectCount())
	Del("threadLocal")
	assert.Equal(t, 0, threadLocal.ObjectCount())
}

func TestPoolNewDestroysDiscardedTargetSource(t *testing.T) {
	pool := NewPool()
	defer pool.Stop()
	const n = 4
	factory := &test.EmployeeFactory{}
	sources := make([]*target.RefreshableTargetSource, n)
	items := make([]*NamedProxy, n)

	//所有协程都越过已存在检查后才继续创建，只有一个能存入
	var arrived, done sync.WaitGroup
	arrived.Add(n)
	for i := 0; i < n; i++ {
		ts, err := target.NewRefreshable(factory, "employee")
		assert.Nil(t, err)
		sources[i] = ts
		done.Add(1)
		go func(i int) {
			defer done.Done()
			items[i], _ = pool.New("racy", WithTargetSource(sources[i]), WithInterfaces(test.PersonType), func(*ProxyFactory) error {
				arrived.Done()
				arrived.Wait()
				return nil
			})
		}(i)
	}
	done.Wait()

	winner := items[0]
	assert.NotNil(t, winner)
	destroyed := 0
	for i, ts := range sources {
		assert.True(t, items[i] == winner)
		current, err := ts.GetTarget(ctx)
		assert.Nil(t, err)
		if types.TargetSource(ts) == winner.Advised().GetTargetSource() {
			assert.Equal(t, int32(0), current.(*test.Employee).Destroyed)
		} else if current.(*test.Employee).Destroyed == 1 {
			destroyed++
		}
	}
	assert.Equal(t, n-1, destroyed)
}
