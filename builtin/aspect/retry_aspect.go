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
	"errors"
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/maps"
)

var _ types.Component = (*Retry)(nil)

// Retry proceeds again when the rest of the chain returns an error, up to
// MaxAttempts attempts, waiting Interval between them. Every attempt runs on a
// clone of the invocation, so interceptors after Retry run again too. The last
// error is returned unchanged.
//
// Retry 重试拦截器，每次重试克隆调用，后续拦截器也会重新执行
type Retry struct {
	// MaxAttempts 最大尝试次数，包括第一次，默认 3
	MaxAttempts int `json:"maxAttempts"`
	// Interval 重试间隔
	Interval time.Duration `json:"interval"`
	// RetryOn 只重试这些错误，为空重试所有错误
	RetryOn []error `json:"-"`
}

func (a *Retry) Order() int {
	return 30
}

func (a *Retry) New() types.Component {
	return &Retry{MaxAttempts: a.MaxAttempts, Interval: a.Interval, RetryOn: a.RetryOn}
}

func (a *Retry) Type() string {
	return "retry"
}

func (a *Retry) Init(config types.Config, configuration types.Configuration) error {
	return maps.Map2Struct(configuration, a)
}

func (a *Retry) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	var results []interface{}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-mi.Context().Done():
				return results, err
			case <-time.After(a.Interval):
			}
		}
		results, err = mi.Clone().Proceed()
		if err == nil || !a.retryable(err) {
			return results, err
		}
	}
	return results, err
}

func (a *Retry) retryable(err error) bool {
	if len(a.RetryOn) == 0 {
		return true
	}
	for _, target := range a.RetryOn {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
