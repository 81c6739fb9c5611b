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
	"reflect"

	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/target"
	"github.com/rulego/aop/utils/maps"
)

// ProxyOption configures a ProxyFactory.
// ProxyOption 代理工厂配置选项
type ProxyOption func(*ProxyFactory) error

// proxyOptions are collected first and applied by NewProxyFactory in a fixed
// order, so that options can be given in any order.
type proxyOptions struct {
	name          string
	config        *types.Config
	configuration types.Configuration
	flags         []func(*types.ProxyConfig)
	target        interface{}
	targetSource  types.TargetSource
	interfaces    []reflect.Type
	advisors      []types.Advisor
	advice        []types.Advice
	frozen        *bool
}

// WithName names the proxies created by the factory.
func WithName(name string) ProxyOption {
	return func(f *ProxyFactory) error {
		f.opts.name = name
		return nil
	}
}

// WithConfig sets the engine configuration: logger, adapter registry, chain factory.
func WithConfig(config types.Config) ProxyOption {
	return func(f *ProxyFactory) error {
		f.opts.config = &config
		return nil
	}
}

// WithConfiguration sets the flags from a configuration map, e.g.
// {"exposeProxy": true, "frozen": "true"}. Individual flag options win.
func WithConfiguration(configuration types.Configuration) ProxyOption {
	return func(f *ProxyFactory) error {
		f.opts.configuration = configuration
		return nil
	}
}

// WithTarget proxies a singleton target.
func WithTarget(t interface{}) ProxyOption {
	return func(f *ProxyFactory) error {
		if t == nil {
			return errors.Wrap(types.ErrMissingProperty, "target is nil")
		}
		f.opts.target = t
		return nil
	}
}

// WithTargetSource sets the target source, overriding WithTarget.
func WithTargetSource(ts types.TargetSource) ProxyOption {
	return func(f *ProxyFactory) error {
		f.opts.targetSource = ts
		return nil
	}
}

// WithInterfaces sets the proxied interfaces. Without interfaces the proxy
// exposes the method set of the target type.
func WithInterfaces(ifaces ...reflect.Type) ProxyOption {
	return func(f *ProxyFactory) error {
		f.opts.interfaces = append(f.opts.interfaces, ifaces...)
		return nil
	}
}

// WithAdvisors appends advisors, in chain order.
func WithAdvisors(advisors ...types.Advisor) ProxyOption {
	return func(f *ProxyFactory) error {
		f.opts.advisors = append(f.opts.advisors, advisors...)
		return nil
	}
}

// WithAdvice appends advice applying to every method. It is added after the
// advisors of WithAdvisors.
func WithAdvice(advice ...types.Advice) ProxyOption {
	return func(f *ProxyFactory) error {
		f.opts.advice = append(f.opts.advice, advice...)
		return nil
	}
}

func WithExposeProxy(exposeProxy bool) ProxyOption {
	return withFlag(func(c *types.ProxyConfig) { c.ExposeProxy = exposeProxy })
}

func WithProxyTargetClass(proxyTargetClass bool) ProxyOption {
	return withFlag(func(c *types.ProxyConfig) { c.ProxyTargetClass = proxyTargetClass })
}

func WithOptimize(optimize bool) ProxyOption {
	return withFlag(func(c *types.ProxyConfig) { c.Optimize = optimize })
}

func WithOpaque(opaque bool) ProxyOption {
	return withFlag(func(c *types.ProxyConfig) { c.Opaque = opaque })
}

// WithFrozen freezes the advice once the factory is assembled.
func WithFrozen(frozen bool) ProxyOption {
	return func(f *ProxyFactory) error {
		f.opts.frozen = &frozen
		return nil
	}
}

func withFlag(set func(*types.ProxyConfig)) ProxyOption {
	return func(f *ProxyFactory) error {
		f.opts.flags = append(f.opts.flags, set)
		return nil
	}
}

// ProxyFactory assembles a proxy configuration and creates proxies from it.
// Proxies share the configuration: advisors added to the factory before it is
// frozen apply to proxies already created.
// ProxyFactory 代理工厂，组装代理配置并创建代理
//
//	factory, err := engine.NewProxyFactory(
//		engine.WithTarget(employee),
//		engine.WithInterfaces(types.InterfaceOf[Person]()),
//		engine.WithAdvice(&LogInterceptor{}),
//	)
//	proxy, err := factory.GetProxy()
//	results, err := proxy.Invoke(ctx, "SetAge", 18)
type ProxyFactory struct {
	*AdvisedSupport
	config types.Config
	name   string
	opts   proxyOptions
}

// NewProxyFactory creates a factory. Options are applied in this order:
// configuration, flags, target, interfaces, advisors, advice, frozen.
func NewProxyFactory(opts ...ProxyOption) (*ProxyFactory, error) {
	f := &ProxyFactory{}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	o := f.opts
	if o.config != nil {
		f.config = *o.config
	} else {
		f.config = NewConfig()
	}
	f.name = o.name
	f.AdvisedSupport = NewAdvisedSupport(f.config)

	var flags types.ProxyConfig
	if o.configuration != nil {
		if err := maps.Map2Struct(o.configuration, &flags); err != nil {
			return nil, errors.Wrap(err, "invalid proxy configuration")
		}
	}
	for _, set := range o.flags {
		set(&flags)
	}
	frozen := flags.Frozen
	if o.frozen != nil {
		frozen = *o.frozen
	}
	flags.Frozen = false
	f.SetProxyConfig(flags)

	if o.targetSource != nil {
		_ = f.SetTargetSource(o.targetSource)
	} else if o.target != nil {
		_ = f.SetTargetSource(target.NewSingleton(o.target))
	}
	for _, iface := range o.interfaces {
		if err := f.AddInterface(iface); err != nil {
			return nil, err
		}
	}
	if err := f.AddAdvisors(o.advisors...); err != nil {
		return nil, err
	}
	for _, advice := range o.advice {
		if err := f.AddAdvice(advice); err != nil {
			return nil, err
		}
	}
	f.SetFrozen(frozen)
	return f, nil
}

// Config returns the engine configuration of the factory.
func (f *ProxyFactory) Config() types.Config {
	return f.config
}

// Name returns the name given to the proxies.
func (f *ProxyFactory) Name() string {
	return f.name
}

// GetProxy creates a proxy from the current configuration. It fails when the
// configuration has neither advisors nor target, when an advice cannot be
// translated into an interceptor, or when there is nothing to proxy.
func (f *ProxyFactory) GetProxy() (types.Proxy, error) {
	return newProxy(f.name, f.AdvisedSupport)
}

// BindProxy creates a proxy and binds it to the struct ptr points to.
func (f *ProxyFactory) BindProxy(ptr interface{}) (types.Proxy, error) {
	p, err := f.GetProxy()
	if err != nil {
		return nil, err
	}
	if err := p.Bind(ptr); err != nil {
		return nil, err
	}
	return p, nil
}

// NewProxy is a shortcut creating a factory and its proxy.
func NewProxy(opts ...ProxyOption) (types.Proxy, error) {
	f, err := NewProxyFactory(opts...)
	if err != nil {
		return nil, err
	}
	return f.GetProxy()
}
