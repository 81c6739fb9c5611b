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

package console

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rulego/aop"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/builtin/aspect"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/target"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
)

var ctx = context.Background()

type fixture struct {
	console *Console
	server  *httptest.Server
	pool    *engine.Pool
	person  types.Proxy
	metrics *aspect.Metrics
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{pool: engine.NewPool(), metrics: aspect.NewMetrics(nil)}
	c, err := New(engine.NewConfig(), types.Configuration{"server": "127.0.0.1:0", "maxConnections": 4})
	assert.Nil(t, err)
	registry := prometheus.NewRegistry()
	assert.Nil(t, registry.Register(f.metrics))
	c.Pool = f.pool
	c.Gatherer = registry
	c.Registry = aop.Registry
	f.console = c

	named, err := f.pool.New("person",
		engine.WithTarget(test.NewEmployee("lala", 18)),
		engine.WithInterfaces(test.PersonType),
		engine.WithAdvice(f.metrics, aspect.NewTrace(c.Hub(), true), &aspect.Debug{}),
	)
	assert.Nil(t, err)
	f.person = named.Proxy()

	pooled, err := target.NewPooled(&test.EmployeeFactory{}, "employee", target.WithMaxSize(2))
	assert.Nil(t, err)
	_, err = f.pool.New("pooled", engine.WithTargetSource(pooled), engine.WithInterfaces(test.PersonType))
	assert.Nil(t, err)

	f.server = httptest.NewServer(c.Router())
	t.Cleanup(func() {
		f.server.Close()
		_ = c.Close()
		f.pool.Stop()
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string) (int, []byte) {
	req, err := http.NewRequest(method, f.server.URL+path, nil)
	assert.Nil(t, err)
	resp, err := http.DefaultClient.Do(req)
	assert.Nil(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	assert.Nil(t, err)
	return resp.StatusCode, body
}

func TestListProxies(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodGet, "/api/v1/proxies")
	assert.Equal(t, http.StatusOK, status)
	var list []ProxySummary
	assert.Nil(t, json.Unmarshal(body, &list))
	assert.Equal(t, 2, len(list))
	assert.Equal(t, "person", list[0].Name)
	assert.Equal(t, 3, list[0].Advisors)
	assert.True(t, list[0].HasTarget)
	assert.Equal(t, "pooled", list[1].Name)
	assert.Equal(t, 0, list[1].Advisors)
}

func TestGetProxy(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodGet, "/api/v1/proxies/person")
	assert.Equal(t, http.StatusOK, status)
	var info ProxyInfo
	assert.Nil(t, json.Unmarshal(body, &info))
	assert.Equal(t, "person", info.Name)
	assert.Equal(t, []string{"test.Person"}, info.Interfaces)
	methods := strings.Join(info.Methods, ",")
	assert.True(t, strings.Contains(methods, "test.Person.GetName"), methods)
	assert.True(t, strings.Contains(methods, "test.Person.Greet"), methods)
	assert.Equal(t, 3, len(info.Advisors))
	assert.Equal(t, "metrics", info.Advisors[0].Component)
	assert.Equal(t, "trace", info.Advisors[1].Component)
	assert.Equal(t, "*aspect.Debug", info.Advisors[2].Advice)
	assert.Equal(t, "*target.SingletonTargetSource", info.TargetSource.Type)
	assert.True(t, info.TargetSource.Static)

	status, body = f.do(t, http.MethodGet, "/api/v1/proxies/pooled")
	assert.Equal(t, http.StatusOK, status)
	info = ProxyInfo{}
	assert.Nil(t, json.Unmarshal(body, &info))
	assert.False(t, info.TargetSource.Static)
	assert.Equal(t, float64(2), info.TargetSource.Stats["maxSize"])
	assert.Equal(t, float64(0), info.TargetSource.Stats["activeCount"])

	status, _ = f.do(t, http.MethodGet, "/api/v1/proxies/notFound")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteAndRefresh(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodPost, "/api/v1/proxies/person/refresh")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, strings.Contains(string(body), "not refreshable"))

	status, _ = f.do(t, http.MethodPost, "/api/v1/proxies/notFound/refresh")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.do(t, http.MethodDelete, "/api/v1/proxies/pooled")
	assert.Equal(t, http.StatusNoContent, status)
	_, ok := f.pool.Get("pooled")
	assert.False(t, ok)
	status, _ = f.do(t, http.MethodDelete, "/api/v1/proxies/pooled")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	refreshable, err := target.NewRefreshable(&test.EmployeeFactory{}, "employee")
	assert.Nil(t, err)
	_, err = f.pool.New("refreshable", engine.WithTargetSource(refreshable), engine.WithInterfaces(test.PersonType))
	assert.Nil(t, err)

	before := refreshable.RefreshCount()
	status, body := f.do(t, http.MethodPost, "/api/v1/proxies/refreshable/refresh")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, before+1, refreshable.RefreshCount())
	var info TargetSourceInfo
	assert.Nil(t, json.Unmarshal(body, &info))
	assert.Equal(t, float64(before+1), info.Stats["refreshCount"])
}

func TestComponents(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodGet, "/api/v1/components")
	assert.Equal(t, http.StatusOK, status)
	var names []string
	assert.Nil(t, json.Unmarshal(body, &names))
	assert.True(t, len(names) >= 13)

	c, err := New(engine.NewConfig(), nil)
	assert.Nil(t, err)
	w := httptest.NewRecorder()
	c.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/components", nil))
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	_, err := f.person.Invoke(ctx, "GetName")
	assert.Nil(t, err)
	_, err = f.person.Invoke(ctx, "SetAge", -1)
	assert.NotNil(t, err)

	status, body := f.do(t, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	text := string(body)
	assert.True(t, strings.Contains(text, `aop_invocations_total{method="test.Person.GetName",proxy="person",result="success"} 1`), text)
	assert.True(t, strings.Contains(text, `aop_invocations_total{method="test.Person.SetAge",proxy="person",result="failure"} 1`), text)
}

func TestTraceStream(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/v1/trace?proxy=person"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Nil(t, err)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.console.Hub().SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 1, f.console.Hub().SubscriberCount())

	//其他代理的事件不推送
	assert.Nil(t, f.console.Hub().Publish(types.InvocationEvent{Proxy: "other", Method: "x"}))
	_, err = f.person.Invoke(ctx, "SetName", "tom")
	assert.Nil(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	assert.Nil(t, err)
	var event types.InvocationEvent
	assert.Nil(t, json.Unmarshal(message, &event))
	assert.Equal(t, "person", event.Proxy)
	assert.Equal(t, "test.Person.SetName", event.Method)
	assert.Equal(t, []interface{}{"tom"}, event.Args)

	//关闭后连接结束
	f.console.Hub().Close()
	_, _, err = conn.ReadMessage()
	assert.NotNil(t, err)
}

func TestTraceHub(t *testing.T) {
	hub := NewTraceHub()
	hub.Buffer = 1
	events, cancel := hub.Subscribe("")
	assert.Nil(t, hub.Publish(types.InvocationEvent{Proxy: "a"}))
	assert.Nil(t, hub.Publish(types.InvocationEvent{Proxy: "b"}))
	assert.Equal(t, int64(1), hub.Dropped())
	event := <-events
	assert.Equal(t, "a", event.Proxy)

	cancel()
	cancel()
	_, ok := <-events
	assert.False(t, ok)
	assert.Equal(t, 0, hub.SubscriberCount())

	hub.Close()
	events, _ = hub.Subscribe("")
	_, ok = <-events
	assert.False(t, ok)
}

func TestStart(t *testing.T) {
	c, err := New(engine.NewConfig(), types.Configuration{"server": "127.0.0.1:0", "maxConnections": 2})
	assert.Nil(t, err)
	c.Pool = engine.NewPool()
	assert.Nil(t, c.Addr())
	assert.Nil(t, c.Start())
	assert.NotNil(t, c.Addr())

	resp, err := http.Get("http://" + c.Addr().String() + "/api/v1/proxies")
	assert.Nil(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]\n", string(body))

	assert.Nil(t, c.Close())
	assert.Nil(t, c.Addr())
}
