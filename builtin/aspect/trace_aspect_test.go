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
	"sync"
	"testing"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
)

type memoryPublisher struct {
	mu     sync.Mutex
	events []types.InvocationEvent
	err    error
}

func (p *memoryPublisher) Publish(event types.InvocationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *memoryPublisher) Events() []types.InvocationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.InvocationEvent(nil), p.events...)
}

func TestTrace(t *testing.T) {
	publisher := &memoryPublisher{}
	trace := NewTrace(publisher, true)
	p, _ := newPerson(t, trace)

	_, err := p.Invoke(ctx, "SetAge", 20)
	assert.Nil(t, err)
	_, err = p.Invoke(ctx, "SetAge", -1)
	assert.True(t, err == test.ErrNegativeAge)
	results, err := p.Invoke(ctx, "GetName")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"lala"}, results)

	events := publisher.Events()
	assert.Equal(t, 3, len(events))
	assert.Equal(t, "person", events[0].Proxy)
	assert.Equal(t, "test.Person.SetAge", events[0].Method)
	assert.Equal(t, []interface{}{20}, events[0].Args)
	assert.Equal(t, "", events[0].Err)
	assert.Equal(t, test.ErrNegativeAge.Error(), events[1].Err)
	assert.Equal(t, []interface{}{"lala"}, events[2].Results)
	assert.True(t, events[0].Id != "" && events[0].Id != events[1].Id)
	assert.True(t, events[0].Ts > 0)

	//发布失败不影响调用
	publisher.err = errors.New("broker down")
	trace = (&Trace{Publisher: publisher}).New().(*Trace)
	assert.Nil(t, trace.Init(engine.NewConfig(), nil))
	p, _ = newPerson(t, trace)
	results, err = p.Invoke(ctx, "GetAge")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{18}, results)
	events = publisher.Events()
	assert.Equal(t, 4, len(events))
	assert.Nil(t, events[3].Args)
	assert.Nil(t, trace.Destroy())
}

func TestTraceMqttUnreachable(t *testing.T) {
	trace := (&Trace{}).New().(*Trace)
	err := trace.Init(engine.NewConfig(), types.Configuration{
		"server":         "tcp://127.0.0.1:1",
		"connectTimeout": "100ms",
	})
	assert.NotNil(t, err)
	assert.Nil(t, trace.Publisher)
}
