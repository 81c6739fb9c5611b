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

package aspect

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
)

func TestConcurrencyThrottle(t *testing.T) {
	maxConcurrent := 2
	aspect := NewConcurrencyThrottle(maxConcurrent, false)
	assert.Equal(t, 10, aspect.Order())
	assert.Equal(t, "concurrencyThrottle", aspect.Type())

	throttle := aspect.New().(*ConcurrencyThrottle)
	assert.Equal(t, int64(maxConcurrent), throttle.Max)

	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < maxConcurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mi := test.NewStubInvocation(nil, "GetName")
			mi.ProceedFunc = func() ([]interface{}, error) {
				<-release
				return nil, nil
			}
			_, err := throttle.Invoke(mi)
			assert.Nil(t, err)
		}()
	}
	for throttle.Current() < int64(maxConcurrent) {
		time.Sleep(time.Millisecond)
	}
	mi := test.NewStubInvocation(test.NewEmployee("lala", 18), "GetName")
	_, err := throttle.Invoke(mi)
	assert.True(t, err == types.ErrConcurrencyLimitReached)
	assert.Equal(t, 0, mi.Proceeded)

	close(release)
	wg.Wait()
	assert.Equal(t, int64(0), throttle.Current())
	results, err := throttle.Invoke(mi)
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"lala"}, results)
}

func TestConcurrencyThrottleBlock(t *testing.T) {
	throttle := (&ConcurrencyThrottle{}).New().(*ConcurrencyThrottle)
	assert.Nil(t, throttle.Init(engine.NewConfig(), types.Configuration{"max": 1, "block": true}))
	assert.True(t, throttle.Block)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		mi := test.NewStubInvocation(nil, "GetName")
		mi.ProceedFunc = func() ([]interface{}, error) {
			close(started)
			<-release
			return nil, nil
		}
		_, _ = throttle.Invoke(mi)
	}()
	<-started

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	mi := test.NewStubInvocation(test.NewEmployee("lala", 18), "GetName")
	mi.Ctx = timeoutCtx
	_, err := throttle.Invoke(mi)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	//释放后等待的调用继续执行
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	mi.Ctx = context.Background()
	results, err := throttle.Invoke(mi)
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"lala"}, results)
}

func TestConcurrencyThrottleUnlimited(t *testing.T) {
	p, _ := newPerson(t, NewConcurrencyThrottle(0, false))
	results, err := p.Invoke(ctx, "GetAge")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{18}, results)
}

func TestRateLimiter(t *testing.T) {
	limiter := (&RateLimiter{}).New().(*RateLimiter)
	assert.Nil(t, limiter.Init(engine.NewConfig(), types.Configuration{"rate": 1, "burst": 1}))
	p, _ := newPerson(t, limiter)
	_, err := p.Invoke(ctx, "GetName")
	assert.Nil(t, err)
	_, err = p.Invoke(ctx, "GetName")
	assert.True(t, err == types.ErrRateLimited)

	waiting := NewRateLimiter(1, 1, true)
	p, _ = newPerson(t, waiting)
	_, err = p.Invoke(ctx, "GetName")
	assert.Nil(t, err)
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Invoke(timeoutCtx, "GetName")
	assert.NotNil(t, err)

	p, _ = newPerson(t, NewRateLimiter(1000, 10, true))
	for i := 0; i < 10; i++ {
		_, err = p.Invoke(ctx, "GetName")
		assert.Nil(t, err)
	}
}
