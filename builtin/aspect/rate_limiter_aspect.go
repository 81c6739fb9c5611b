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

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/maps"
	"golang.org/x/time/rate"
)

var _ types.Component = (*RateLimiter)(nil)

// RateLimiter limits the invocation rate with a token bucket of Burst tokens
// refilled at Rate per second. Calls over the limit fail with ErrRateLimited,
// or wait for a token when Wait is set.
//
// RateLimiter 令牌桶限流拦截器
type RateLimiter struct {
	// Rate 每秒产生的令牌数，<=0 不限制
	Rate float64 `json:"rate"`
	// Burst 桶容量，默认 1
	Burst int `json:"burst"`
	// Wait 没有令牌时是否等待
	Wait bool `json:"wait"`

	once    sync.Once
	limiter *rate.Limiter
}

func NewRateLimiter(r float64, burst int, wait bool) *RateLimiter {
	return &RateLimiter{Rate: r, Burst: burst, Wait: wait}
}

func (a *RateLimiter) Order() int {
	return 10
}

func (a *RateLimiter) New() types.Component {
	return &RateLimiter{Rate: a.Rate, Burst: a.Burst, Wait: a.Wait}
}

func (a *RateLimiter) Type() string {
	return "rateLimiter"
}

func (a *RateLimiter) Init(config types.Config, configuration types.Configuration) error {
	return maps.Map2Struct(configuration, a)
}

func (a *RateLimiter) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	if a.Rate <= 0 {
		return mi.Proceed()
	}
	a.once.Do(func() {
		burst := a.Burst
		if burst <= 0 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(a.Rate), burst)
	})
	if a.Wait {
		if err := a.limiter.Wait(mi.Context()); err != nil {
			return nil, err
		}
	} else if !a.limiter.Allow() {
		return nil, types.ErrRateLimited
	}
	return mi.Proceed()
}
