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

package types

import "github.com/rulego/aop/utils/json"

// InvocationEvent is the trace record of one proxied call.
// InvocationEvent 一次代理调用的跟踪记录
type InvocationEvent struct {
	// Id 调用ID
	Id string `json:"id"`
	// Proxy 代理名称
	Proxy string `json:"proxy"`
	// Method 方法，格式：Owner.Name
	Method string `json:"method"`
	// Args 参数
	Args []interface{} `json:"args,omitempty"`
	// Results 返回值
	Results []interface{} `json:"results,omitempty"`
	// Err 错误信息
	Err string `json:"err,omitempty"`
	// Ts 开始时间，毫秒
	Ts int64 `json:"ts"`
	// Elapsed 耗时，毫秒
	Elapsed int64 `json:"elapsed"`
}

// Bytes returns the JSON encoding of the event, without HTML escaping. Values
// that cannot be encoded are dropped from Args and Results.
func (e InvocationEvent) Bytes() []byte {
	if b, err := json.Marshal(e); err == nil {
		return b
	}
	e.Args, e.Results = nil, nil
	b, _ := json.Marshal(e)
	return b
}

// Publisher delivers invocation events, e.g. to an MQTT broker or to
// websocket subscribers.
// Publisher 调用事件发布器
type Publisher interface {
	Publish(event InvocationEvent) error
}
