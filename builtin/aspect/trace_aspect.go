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
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/utils/maps"
	"github.com/rulego/aop/utils/mqtt"
)

var (
	_ types.Component  = (*Trace)(nil)
	_ types.Disposable = (*Trace)(nil)
)

// Trace publishes a types.InvocationEvent for every invocation. Created from
// a configuration with a server, it publishes to that MQTT broker; otherwise
// set the Publisher, e.g. the websocket hub of the console endpoint.
// Publish failures are logged, they never fail the invocation.
// Trace 调用跟踪拦截器，把调用事件发布到 MQTT broker 或者 websocket 订阅者
//
// Configuration:
// 配置：
//
//	{"server": "tcp://127.0.0.1:1883", "topicPrefix": "aop/trace", "connectTimeout": "5s"}
type Trace struct {
	// Server mqtt broker 地址
	Server   string `json:"server"`
	Username string `json:"username"`
	Password string `json:"password"`
	// TopicPrefix 发布主题前缀，默认 aop/trace
	TopicPrefix string `json:"topicPrefix"`
	QOS         uint8  `json:"qos"`
	// ConnectTimeout 连接超时，默认 5 秒
	ConnectTimeout time.Duration `json:"connectTimeout"`
	// WithArgs 是否发布参数和返回值
	WithArgs bool `json:"withArgs"`

	Publisher types.Publisher `json:"-"`

	logger types.Logger
	client *mqtt.Client
}

// NewTrace creates a trace interceptor publishing to publisher.
func NewTrace(publisher types.Publisher, withArgs bool) *Trace {
	return &Trace{Publisher: publisher, WithArgs: withArgs}
}

func (a *Trace) Order() int {
	return 20
}

func (a *Trace) New() types.Component {
	return &Trace{
		Server:         a.Server,
		Username:       a.Username,
		Password:       a.Password,
		TopicPrefix:    a.TopicPrefix,
		QOS:            a.QOS,
		ConnectTimeout: a.ConnectTimeout,
		WithArgs:       a.WithArgs,
		Publisher:      a.Publisher,
	}
}

func (a *Trace) Type() string {
	return "trace"
}

// Init decodes the configuration and connects to the MQTT broker if a server
// is configured.
func (a *Trace) Init(config types.Config, configuration types.Configuration) error {
	a.logger = config.Logger
	if err := maps.Map2Struct(configuration, a); err != nil {
		return err
	}
	if a.Server == "" {
		return nil
	}
	timeout := a.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client, err := mqtt.NewClient(ctx, mqtt.Config{
		Server:      a.Server,
		Username:    a.Username,
		Password:    a.Password,
		TopicPrefix: a.TopicPrefix,
		QOS:         a.QOS,
	})
	if err != nil {
		return err
	}
	a.client = client
	a.Publisher = client
	return nil
}

func (a *Trace) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	start := time.Now()
	results, err := mi.Proceed()
	if a.Publisher != nil {
		event := types.InvocationEvent{
			Id:      mi.ID(),
			Proxy:   engine.NameOf(mi.Proxy()),
			Method:  mi.Method().String(),
			Ts:      start.UnixMilli(),
			Elapsed: time.Since(start).Milliseconds(),
		}
		if a.WithArgs {
			event.Args = mi.Arguments()
			event.Results = results
		}
		if err != nil {
			event.Err = err.Error()
		}
		if pubErr := a.Publisher.Publish(event); pubErr != nil {
			a.getLogger().Printf("publish invocation event %s err=%v", event.Method, pubErr)
		}
	}
	return results, err
}

// Destroy disconnects the MQTT client created by Init.
func (a *Trace) Destroy() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

func (a *Trace) getLogger() types.Logger {
	if a.logger == nil {
		a.logger = types.DefaultLogger()
	}
	return a.logger
}
