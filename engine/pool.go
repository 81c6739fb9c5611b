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
package engine

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
)

var _ types.ProxyPool = (*Pool)(nil)

// DefaultPool is the default proxy pool.
var DefaultPool = NewPool()

// Callbacks are proxy pool lifecycle hooks.
type Callbacks struct {
	// OnNew is called after a proxy was created.
	OnNew func(name string)
	// OnDeleted is called after a proxy was removed and destroyed.
	OnDeleted func(name string)
}

// Pool is a registry of named proxies. Stop is the container teardown hook:
// it destroys every target source holding resources.
// Pool 命名代理注册表，Stop 时销毁所有需要释放资源的目标来源
type Pool struct {
	entries   sync.Map
	Callbacks Callbacks
	// Logger reports destroy failures, defaulting to types.DefaultLogger.
	Logger types.Logger
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// NamedProxy is a proxy of the pool, with its factory.
type NamedProxy struct {
	name    string
	proxy   types.Proxy
	factory *ProxyFactory
	logger  types.Logger
}

var _ types.NamedProxy = (*NamedProxy)(nil)

func (n *NamedProxy) Name() string {
	return n.name
}

func (n *NamedProxy) Proxy() types.Proxy {
	return n.proxy
}

func (n *NamedProxy) Advised() types.Advised {
	return n.factory.AdvisedSupport
}

// Factory returns the factory the proxy was created with.
func (n *NamedProxy) Factory() *ProxyFactory {
	return n.factory
}

// Destroy destroys the target source if it is types.Disposable. Failures are logged.
func (n *NamedProxy) Destroy() {
	ts := n.factory.GetTargetSource()
	d, ok := ts.(types.Disposable)
	if !ok {
		return
	}
	defer func() {
		if e := recover(); e != nil {
			n.logger.Printf("destroy target source of proxy %s panic=%v", n.name, e)
		}
	}()
	if err := d.Destroy(); err != nil {
		n.logger.Printf("destroy target source of proxy %s err=%v", n.name, err)
	}
}

// New creates a named proxy and stores it in the pool. An existing proxy of
// the same name is returned as is, and the target source built for the
// discarded proxy is destroyed.
func (g *Pool) New(name string, opts ...ProxyOption) (*NamedProxy, error) {
	if name == "" {
		return nil, errors.Wrap(types.ErrMissingProperty, "proxy name is required")
	}
	if v, ok := g.entries.Load(name); ok {
		return v.(*NamedProxy), nil
	}
	factory, err := NewProxyFactory(append(opts, WithName(name))...)
	if err != nil {
		return nil, err
	}
	logger := g.Logger
	if logger == nil {
		logger = factory.Config().Logger
	}
	item := &NamedProxy{name: name, factory: factory, logger: types.NewLogger(logger)}
	proxy, err := factory.GetProxy()
	if err != nil {
		item.Destroy()
		return nil, err
	}
	item.proxy = proxy
	//并发创建同名代理，丢弃的一方需要释放目标来源
	if v, loaded := g.entries.LoadOrStore(name, item); loaded {
		item.Destroy()
		return v.(*NamedProxy), nil
	}
	if g.Callbacks.OnNew != nil {
		g.Callbacks.OnNew(name)
	}
	return item, nil
}

func (g *Pool) Get(name string) (types.NamedProxy, bool) {
	v, ok := g.entries.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*NamedProxy), true
}

// Del removes the proxy and destroys its target source.
func (g *Pool) Del(name string) {
	v, ok := g.entries.LoadAndDelete(name)
	if !ok {
		return
	}
	v.(*NamedProxy).Destroy()
	if g.Callbacks.OnDeleted != nil {
		g.Callbacks.OnDeleted(name)
	}
}

// Stop removes every proxy and destroys the target sources.
func (g *Pool) Stop() {
	g.entries.Range(func(key, value any) bool {
		g.Del(key.(string))
		return true
	})
}

// Range iterates over the proxies, values are *NamedProxy.
func (g *Pool) Range(f func(key, value any) bool) {
	g.entries.Range(f)
}

// New creates a named proxy in the default pool.
func New(name string, opts ...ProxyOption) (*NamedProxy, error) {
	return DefaultPool.New(name, opts...)
}

// Get returns a proxy of the default pool.
func Get(name string) (types.NamedProxy, bool) {
	return DefaultPool.Get(name)
}

// Del removes a proxy from the default pool.
func Del(name string) {
	DefaultPool.Del(name)
}

// Stop destroys every proxy of the default pool.
func Stop() {
	DefaultPool.Stop()
}
