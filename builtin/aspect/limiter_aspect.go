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
	"sync"
	"sync/atomic"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/maps"
	"golang.org/x/sync/semaphore"
)

var _ types.Component = (*ConcurrencyThrottle)(nil)

// ConcurrencyThrottle limits the number of invocations running at the same
// time through the proxy. When the limit is reached it returns
// ErrConcurrencyLimitReached, or waits for a slot if Block is set.
//
// ConcurrencyThrottle 并发限制拦截器。达到上限时返回 ErrConcurrencyLimitReached，
// 如果 Block 为 true，则等待空闲位置，直到调用上下文结束。
//
// Usage:
// 使用方法：
//
//	// 最多 100 个并发调用
//	throttle := aspect.NewConcurrencyThrottle(100, false)
type ConcurrencyThrottle struct {
	// Max 最大并发数，<=0 不限制
	Max int64 `json:"max"`
	// Block 达到上限时是否阻塞等待
	Block bool `json:"block"`

	current int64
	once    sync.Once
	sem     *semaphore.Weighted
}

// NewConcurrencyThrottle creates a throttle allowing max concurrent invocations.
func NewConcurrencyThrottle(max int, block bool) *ConcurrencyThrottle {
	return &ConcurrencyThrottle{
		Max:   int64(max),
		Block: block,
	}
}

// Order returns 10, so that rejected calls skip the rest of the chain.
func (a *ConcurrencyThrottle) Order() int {
	return 10
}

// New creates a throttle with the same limit and its own counter.
func (a *ConcurrencyThrottle) New() types.Component {
	return &ConcurrencyThrottle{
		Max:   a.Max,
		Block: a.Block,
	}
}

func (a *ConcurrencyThrottle) Type() string {
	return "concurrencyThrottle"
}

func (a *ConcurrencyThrottle) Init(config types.Config, configuration types.Configuration) error {
	return maps.Map2Struct(configuration, a)
}

func (a *ConcurrencyThrottle) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	if a.Max <= 0 {
		return mi.Proceed()
	}
	a.once.Do(func() {
		a.sem = semaphore.NewWeighted(a.Max)
	})
	if a.Block {
		if err := a.sem.Acquire(mi.Context(), 1); err != nil {
			return nil, err
		}
	} else if !a.sem.TryAcquire(1) {
		return nil, types.ErrConcurrencyLimitReached
	}
	atomic.AddInt64(&a.current, 1)
	defer func() {
		atomic.AddInt64(&a.current, -1)
		a.sem.Release(1)
	}()
	return mi.Proceed()
}

// Current returns the number of invocations in flight.
func (a *ConcurrencyThrottle) Current() int64 {
	return atomic.LoadInt64(&a.current)
}
