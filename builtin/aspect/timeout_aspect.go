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
	"time"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/maps"
)

var _ types.Component = (*Timeout)(nil)

// Timeout bounds the duration of an invocation. The rest of the chain runs
// with a context cancelled after Timeout; if it has not returned by then the
// caller gets ErrTimeout. Methods taking a context.Context should honour it;
// an abandoned invocation keeps running until the target returns.
//
// Timeout 超时拦截器，超时返回 ErrTimeout
type Timeout struct {
	// Timeout 超时时间，<=0 不限制
	Timeout time.Duration `json:"timeout"`
}

func NewTimeout(timeout time.Duration) *Timeout {
	return &Timeout{Timeout: timeout}
}

func (a *Timeout) Order() int {
	return 30
}

func (a *Timeout) New() types.Component {
	return &Timeout{Timeout: a.Timeout}
}

func (a *Timeout) Type() string {
	return "timeout"
}

func (a *Timeout) Init(config types.Config, configuration types.Configuration) error {
	return maps.Map2Struct(configuration, a)
}

type invocationResult struct {
	results []interface{}
	err     error
	panic   interface{}
}

func (a *Timeout) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	if a.Timeout <= 0 {
		return mi.Proceed()
	}
	ctx, cancel := context.WithTimeout(mi.Context(), a.Timeout)
	defer cancel()
	mi.SetContext(ctx)
	done := make(chan invocationResult, 1)
	go func() {
		defer func() {
			if e := recover(); e != nil {
				done <- invocationResult{panic: e}
			}
		}()
		results, err := mi.Proceed()
		done <- invocationResult{results: results, err: err}
	}()
	select {
	case r := <-done:
		if r.panic != nil {
			panic(r.panic)
		}
		return r.results, r.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, types.ErrTimeout
		}
		return nil, ctx.Err()
	}
}
