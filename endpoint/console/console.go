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

// Package console serves an HTTP admin API over a proxy pool: proxy
// descriptions, target source statistics, Prometheus metrics and a websocket
// stream of invocation events.
//
//	GET    /api/v1/proxies               list proxies
//	GET    /api/v1/proxies/:name         describe a proxy
//	DELETE /api/v1/proxies/:name         remove a proxy and destroy its target source
//	POST   /api/v1/proxies/:name/refresh refresh a refreshable target source
//	GET    /api/v1/components            registered interceptor components
//	GET    /api/v1/trace?proxy=name      websocket stream of invocation events
//	GET    /metrics                      Prometheus metrics
//
// The trace stream is fed by the trace interceptor, with the console hub as
// publisher:
//
//	c, _ := console.New(config, types.Configuration{"server": ":9090"})
//	trace := aspect.NewTrace(c.Hub(), true)
package console

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/utils/json"
	"github.com/rulego/aop/utils/maps"
	"golang.org/x/net/netutil"
)

const (
	ApiPath     = "/api/v1"
	MetricsPath = "/metrics"
)

// Config 控制台服务配置
type Config struct {
	// Server 监听地址，例如 :9090
	Server      string `json:"server"`
	CertFile    string `json:"certFile"`
	CertKeyFile string `json:"certKeyFile"`
	// MaxConnections 最大并发连接数，<=0 不限制
	MaxConnections int `json:"maxConnections"`
	// ReadTimeout 读超时
	ReadTimeout time.Duration `json:"readTimeout"`
}

// Console is the admin HTTP server.
type Console struct {
	Config Config
	// AopConfig supplies the logger.
	AopConfig types.Config
	// Pool is the inspected pool, defaulting to engine.DefaultPool.
	Pool types.ProxyPool
	// Registry lists the interceptor components, optional.
	Registry types.ComponentRegistry
	// Gatherer serves /metrics, defaulting to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Upgrader websocket.Upgrader
	Server   *http.Server

	hub      *TraceHub
	router   *httprouter.Router
	listener net.Listener
	sync.Mutex
}

// New creates a console from a configuration map.
func New(config types.Config, configuration types.Configuration) (*Console, error) {
	c := &Console{AopConfig: config, hub: NewTraceHub()}
	if err := maps.Map2Struct(configuration, &c.Config); err != nil {
		return nil, err
	}
	return c, nil
}

// Hub returns the trace hub, to be used as publisher of trace interceptors.
func (c *Console) Hub() *TraceHub {
	c.Lock()
	defer c.Unlock()
	if c.hub == nil {
		c.hub = NewTraceHub()
	}
	return c.hub
}

// Router returns the http handler, building it on first use.
func (c *Console) Router() *httprouter.Router {
	hub := c.Hub()
	c.Lock()
	defer c.Unlock()
	if c.router != nil {
		return c.router
	}
	gatherer := c.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router := httprouter.New()
	router.GET(ApiPath+"/proxies", c.listProxies)
	router.GET(ApiPath+"/proxies/:name", c.getProxy)
	router.DELETE(ApiPath+"/proxies/:name", c.deleteProxy)
	router.POST(ApiPath+"/proxies/:name/refresh", c.refreshProxy)
	router.GET(ApiPath+"/components", c.listComponents)
	router.GET(ApiPath+"/trace", func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		conn, err := c.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			c.Printf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		hub.serve(conn, r.URL.Query().Get("proxy"))
	})
	router.Handler(http.MethodGet, MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, e interface{}) {
		c.Printf("console handler err :%v", e)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%v", e))
	}
	c.router = router
	return router
}

// Start listens on Config.Server and serves in the background.
func (c *Console) Start() error {
	router := c.Router()
	c.Lock()
	defer c.Unlock()
	if c.Server != nil {
		return nil
	}
	addr := c.Config.Server
	if addr == "" {
		addr = ":9090"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if c.Config.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, c.Config.MaxConnections)
	}
	c.listener = ln
	c.Server = &http.Server{Addr: addr, Handler: router, ReadTimeout: c.Config.ReadTimeout}
	isTls := c.Config.CertKeyFile != "" && c.Config.CertFile != ""
	server := c.Server
	go func() {
		var err error
		if isTls {
			c.Printf("started console with TLS on %s", ln.Addr())
			err = server.ServeTLS(ln, c.Config.CertFile, c.Config.CertKeyFile)
		} else {
			c.Printf("started console on %s", ln.Addr())
			err = server.Serve(ln)
		}
		if err != nil && err != http.ErrServerClosed {
			c.Printf("console stopped err=%v", err)
		}
	}()
	return nil
}

// Addr returns the listening address, nil before Start.
func (c *Console) Addr() net.Addr {
	c.Lock()
	defer c.Unlock()
	if c.listener == nil {
		return nil
	}
	return c.listener.Addr()
}

// Close shuts the server down and ends the trace streams.
func (c *Console) Close() error {
	c.Hub().Close()
	c.Lock()
	server := c.Server
	c.Server = nil
	c.listener = nil
	c.Unlock()
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
	return nil
}

func (c *Console) Printf(format string, v ...interface{}) {
	if c.AopConfig.Logger != nil {
		c.AopConfig.Logger.Printf(format, v...)
	}
}

func (c *Console) pool() types.ProxyPool {
	if c.Pool == nil {
		return engine.DefaultPool
	}
	return c.Pool
}

// ProxySummary 代理概要
type ProxySummary struct {
	Name      string `json:"name"`
	Advisors  int    `json:"advisors"`
	Frozen    bool   `json:"frozen"`
	Opaque    bool   `json:"opaque"`
	HasTarget bool   `json:"hasTarget"`
}

// ProxyInfo 代理详情
type ProxyInfo struct {
	Name         string            `json:"name"`
	Flags        types.ProxyConfig `json:"flags"`
	Interfaces   []string          `json:"interfaces"`
	Methods      []string          `json:"methods"`
	Advisors     []AdvisorInfo     `json:"advisors"`
	TargetSource TargetSourceInfo  `json:"targetSource"`
}

// AdvisorInfo 顾问详情
type AdvisorInfo struct {
	Index int `json:"index"`
	Order int `json:"order"`
	// Advice 增强的 Go 类型
	Advice string `json:"advice"`
	// Component 组件类型，增强不是组件时为空
	Component    string   `json:"component,omitempty"`
	Pointcut     string   `json:"pointcut,omitempty"`
	Introduction []string `json:"introduction,omitempty"`
}

// TargetSourceInfo 目标来源详情
type TargetSourceInfo struct {
	Type       string `json:"type"`
	TargetType string `json:"targetType,omitempty"`
	Static     bool   `json:"static"`
	// Stats 池化、协程绑定、可刷新来源的统计
	Stats map[string]interface{} `json:"stats,omitempty"`
}

func (c *Console) listProxies(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var list []ProxySummary
	c.pool().Range(func(key, value any) bool {
		if named, ok := value.(types.NamedProxy); ok {
			advised := named.Advised()
			list = append(list, ProxySummary{
				Name:      named.Name(),
				Advisors:  len(advised.GetAdvisors()),
				Frozen:    advised.IsFrozen(),
				Opaque:    advised.IsOpaque(),
				HasTarget: advised.GetTargetSource() != nil,
			})
		}
		return true
	})
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	if list == nil {
		list = []ProxySummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (c *Console) getProxy(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	named, ok := c.pool().Get(params.ByName("name"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("proxy %s not found", params.ByName("name")))
		return
	}
	writeJSON(w, http.StatusOK, describe(named))
}

func (c *Console) deleteProxy(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	name := params.ByName("name")
	if _, ok := c.pool().Get(name); !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("proxy %s not found", name))
		return
	}
	c.pool().Del(name)
	w.WriteHeader(http.StatusNoContent)
}

func (c *Console) refreshProxy(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	name := params.ByName("name")
	named, ok := c.pool().Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("proxy %s not found", name))
		return
	}
	refreshable, ok := named.Advised().GetTargetSource().(interface {
		Refresh(ctx context.Context) error
	})
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("target source of proxy %s is not refreshable", name))
		return
	}
	if err := refreshable.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, describe(named).TargetSource)
}

func (c *Console) listComponents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	names := []string{}
	if c.Registry != nil {
		for name := range c.Registry.GetComponents() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, names)
}

func describe(named types.NamedProxy) ProxyInfo {
	advised := named.Advised()
	info := ProxyInfo{
		Name:       named.Name(),
		Interfaces: []string{},
		Methods:    []string{},
		Advisors:   []AdvisorInfo{},
	}
	if a, ok := advised.(interface{ ProxyConfig() types.ProxyConfig }); ok {
		info.Flags = a.ProxyConfig()
	} else {
		info.Flags = types.ProxyConfig{
			ProxyTargetClass: advised.IsProxyTargetClass(),
			Optimize:         advised.IsOptimize(),
			Opaque:           advised.IsOpaque(),
			ExposeProxy:      advised.IsExposeProxy(),
			Frozen:           advised.IsFrozen(),
		}
	}
	for _, iface := range advised.GetProxiedInterfaces() {
		info.Interfaces = append(info.Interfaces, iface.String())
	}
	for _, m := range named.Proxy().Methods() {
		info.Methods = append(info.Methods, m.String())
	}
	for i, adv := range advised.GetAdvisors() {
		item := AdvisorInfo{Index: i, Order: adv.Order(), Advice: fmt.Sprintf("%T", adv.Advice())}
		if component, ok := adv.Advice().(types.Component); ok {
			item.Component = component.Type()
		}
		if pa, ok := adv.(types.PointcutAdvisor); ok && pa.Pointcut() != nil {
			item.Pointcut = fmt.Sprintf("%T", pa.Pointcut().MethodMatcher())
		}
		if ia, ok := adv.(types.IntroductionAdvisor); ok {
			for _, iface := range ia.Interfaces() {
				item.Introduction = append(item.Introduction, iface.String())
			}
		}
		info.Advisors = append(info.Advisors, item)
	}
	info.TargetSource = describeTargetSource(advised.GetTargetSource())
	return info
}

func describeTargetSource(ts types.TargetSource) TargetSourceInfo {
	if ts == nil {
		return TargetSourceInfo{Type: "none", Static: true}
	}
	info := TargetSourceInfo{Type: fmt.Sprintf("%T", ts), Static: ts.IsStatic()}
	if t := ts.TargetType(); t != nil {
		info.TargetType = t.String()
	}
	stats := map[string]interface{}{}
	if p, ok := ts.(types.PoolingConfig); ok {
		stats["maxSize"] = p.MaxSize()
		stats["activeCount"] = p.ActiveCount()
		stats["idleCount"] = p.IdleCount()
	}
	if p, ok := ts.(types.ThreadLocalTargetSourceStats); ok {
		stats["invocationCount"] = p.InvocationCount()
		stats["hitCount"] = p.HitCount()
		stats["objectCount"] = p.ObjectCount()
	}
	if p, ok := ts.(interface{ RefreshCount() int64 }); ok {
		stats["refreshCount"] = p.RefreshCount()
	}
	if p, ok := ts.(interface{ LastRefreshTime() time.Time }); ok {
		stats["lastRefreshTime"] = p.LastRefreshTime()
	}
	if p, ok := ts.(interface{ Current() interface{} }); ok {
		if current := p.Current(); current != nil {
			stats["current"] = reflect.TypeOf(current).String()
		}
	}
	if len(stats) > 0 {
		info.Stats = stats
	}
	return info
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
