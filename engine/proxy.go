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
	"context"
	"fmt"
	"hash/fnv"
	"reflect"

	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/target"
	reflectutil "github.com/rulego/aop/utils/reflect"
)

// methodKind classifies the methods of a proxy once, when the proxy is created.
type methodKind int

const (
	// kindBusiness runs through the interceptor chain to the target
	kindBusiness methodKind = iota
	// kindEquals and kindHashCode are served by the proxy identity
	kindEquals
	kindHashCode
	// kindAdvised is served by the proxy configuration
	kindAdvised
)

var (
	advisedType  = types.InterfaceOf[types.Advised]()
	identityType = types.InterfaceOf[types.Identity]()
	proxyType    = types.InterfaceOf[types.Proxy]()
)

type proxyMethod struct {
	*types.Method
	kind methodKind
}

// DynamicProxy routes every call through the interceptor chain computed from
// its configuration.
//
// Calls are classified when the proxy is created: Equals and HashCode are
// served by the proxy itself, unless a proxied interface declares them, the
// methods of types.Advised by the configuration, everything else is a business
// call. A business call resolves the target as late as possible, runs the
// chain, or calls the target directly when the chain is empty, and always
// releases non static targets afterwards.
// DynamicProxy 动态代理，调用分为相等性、配置查询、业务调用三类
type DynamicProxy struct {
	name    string
	advised *AdvisedSupport
	// self is the outermost proxy value, the one handed to callers
	self    types.Proxy
	methods []*proxyMethod
	// by simple name and by Owner.Name
	lookup map[string]*proxyMethod
	logger types.Logger

	// snapshot taken when the configuration is frozen and optimized
	optimized    bool
	targetSource types.TargetSource
	exposeProxy  bool
}

var _ types.Proxy = (*DynamicProxy)(nil)

// advisedProxy is a non opaque proxy: it also implements types.Advised.
type advisedProxy struct {
	*DynamicProxy
	types.Advised
}

// newProxy creates a proxy over advised. The configuration must contain an
// advisor or a target.
func newProxy(name string, advised *AdvisedSupport) (types.Proxy, error) {
	advisors := advised.GetAdvisors()
	ts := advised.GetTargetSource()
	if len(advisors) == 0 && target.IsEmpty(ts) {
		return nil, errors.WithStack(types.ErrNoAdvisorsOrTarget)
	}
	for _, adv := range advisors {
		if _, err := advised.AdapterRegistry().Interceptors(adv); err != nil {
			return nil, err
		}
	}
	p := &DynamicProxy{
		name:    name,
		advised: advised,
		lookup:  make(map[string]*proxyMethod),
		logger:  advised.logger,
	}
	if err := p.initMethods(advisors, ts); err != nil {
		return nil, err
	}
	flags := advised.ProxyConfig()
	if flags.Optimize && flags.Frozen {
		p.optimized = true
		p.targetSource = ts
		p.exposeProxy = flags.ExposeProxy
	}
	if flags.Opaque {
		p.self = p
	} else {
		p.self = &advisedProxy{DynamicProxy: p, Advised: advised}
	}
	return p.self, nil
}

// initMethods builds the method table: the business interfaces, or the
// method set of the target type, then the introduced interfaces, then
// types.Advised and the identity methods.
func (p *DynamicProxy) initMethods(advisors []types.Advisor, ts types.TargetSource) error {
	introduced := make(map[reflect.Type]bool)
	for _, adv := range advisors {
		if ia, ok := adv.(types.IntroductionAdvisor); ok {
			for _, iface := range ia.Interfaces() {
				introduced[iface] = true
			}
		}
	}
	var business, introductions []reflect.Type
	for _, iface := range p.advised.GetProxiedInterfaces() {
		if introduced[iface] {
			introductions = append(introductions, iface)
		} else {
			business = append(business, iface)
		}
	}
	if p.advised.IsProxyTargetClass() || len(business) == 0 {
		targetType := ts.TargetType()
		if targetType != nil {
			business = []reflect.Type{targetType}
		} else if p.advised.IsProxyTargetClass() || len(introductions) == 0 {
			return errors.WithStack(types.ErrNoInterfaces)
		}
	}
	for _, t := range business {
		p.addMethods(t, kindBusiness)
	}
	for _, t := range introductions {
		p.addMethods(t, kindBusiness)
	}
	if !p.advised.IsOpaque() {
		p.addMethods(advisedType, kindAdvised)
	}
	if _, defined := p.lookup["Equals"]; !defined {
		p.addMethod(types.NewMethod(identityType, "Equals", reflect.TypeOf(func(interface{}) bool { return false })), kindEquals)
	}
	if _, defined := p.lookup["HashCode"]; !defined {
		p.addMethod(types.NewMethod(identityType, "HashCode", reflect.TypeOf(func() uint64 { return 0 })), kindHashCode)
	}
	return nil
}

func (p *DynamicProxy) addMethods(t reflect.Type, kind methodKind) {
	for _, m := range types.MethodsOf(t) {
		p.addMethod(m, kind)
	}
}

func (p *DynamicProxy) addMethod(m *types.Method, kind methodKind) {
	qualified := m.String()
	if _, ok := p.lookup[qualified]; ok {
		return
	}
	pm := &proxyMethod{Method: m, kind: kind}
	p.methods = append(p.methods, pm)
	p.lookup[qualified] = pm
	if _, ok := p.lookup[m.Name]; !ok {
		p.lookup[m.Name] = pm
	}
}

// Name returns the name the proxy was created with.
func (p *DynamicProxy) Name() string {
	return p.name
}

// Methods returns the methods of the proxy in table order.
func (p *DynamicProxy) Methods() []*types.Method {
	methods := make([]*types.Method, 0, len(p.methods))
	for _, pm := range p.methods {
		methods = append(methods, pm.Method)
	}
	return methods
}

// Method returns the method called name, or Owner.Name.
func (p *DynamicProxy) Method(name string) (*types.Method, bool) {
	pm, ok := p.lookup[name]
	if !ok {
		return nil, false
	}
	return pm.Method, true
}

func (p *DynamicProxy) Invoke(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	pm, ok := p.lookup[method]
	if !ok {
		return nil, errors.Wrapf(types.ErrMethodNotFound, "proxy has no method %s", method)
	}
	return p.invoke(ctx, p.self, false, pm, args)
}

// invoke dispatches one call. ref is the proxy reference the call came
// through. typed is set for calls made through bound functions, whose results
// must keep their declared types.
func (p *DynamicProxy) invoke(ctx context.Context, ref interface{}, typed bool, pm *proxyMethod, args []interface{}) ([]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch pm.kind {
	case kindEquals:
		if len(args) != 1 {
			return nil, errors.Wrapf(types.ErrArgumentMismatch, "Equals expects 1 argument, got %d", len(args))
		}
		return []interface{}{p.Equals(args[0])}, nil
	case kindHashCode:
		return []interface{}{p.HashCode()}, nil
	case kindAdvised:
		return pm.Call(ctx, p.advised, args)
	}

	ts, exposeProxy := p.targetSource, p.exposeProxy
	if !p.optimized {
		ts = p.advised.GetTargetSource()
		exposeProxy = p.advised.IsExposeProxy()
	}
	if exposeProxy {
		ctx = WithProxy(ctx, ref)
	}

	obj, err := ts.GetTarget(ctx)
	if err != nil {
		return nil, err
	}
	if !ts.IsStatic() {
		defer func() {
			if releaseErr := ts.ReleaseTarget(obj); releaseErr != nil {
				p.logger.Printf("proxy %s release target of %s err=%v", p.name, pm.Method, releaseErr)
			}
		}()
	}
	var targetType reflect.Type
	if obj != nil {
		targetType = reflect.TypeOf(obj)
	}

	chain, err := p.advised.InterceptorsAndDynamicInterceptionAdvice(pm.Method, targetType)
	if err != nil {
		return nil, err
	}
	var results []interface{}
	if len(chain) == 0 {
		results, err = pm.Call(ctx, obj, args)
	} else {
		mi := NewReflectiveMethodInvocation(ctx, ref, obj, targetType, pm.Method, args, chain)
		results, err = mi.Proceed()
	}
	if obj != nil {
		p.substituteSelf(results, obj, ref, typed, pm.Method)
	}
	return results, err
}

// substituteSelf replaces results referencing the raw target with the proxy.
// For bound functions the proxy is only substituted where the declared result
// type accepts it.
func (p *DynamicProxy) substituteSelf(results []interface{}, obj, ref interface{}, typed bool, m *types.Method) {
	for i, r := range results {
		if !reflectutil.Same(r, obj) {
			continue
		}
		if typed && (i >= m.NumResults() || !reflect.TypeOf(ref).AssignableTo(m.ResultType(i))) {
			continue
		}
		results[i] = ref
	}
}

// Equals reports whether other is a proxy with the same advisors, the same
// interfaces and an equal target source. other may be a proxy or a struct
// populated by Bind.
func (p *DynamicProxy) Equals(other interface{}) bool {
	o := unwrapProxy(other)
	if o == nil {
		return false
	}
	if o == p {
		return true
	}
	return equalsInProxy(p.advised, o.advised)
}

func (p *DynamicProxy) HashCode() uint64 {
	ts := p.advised.GetTargetSource()
	h := fnv.New64a()
	_, _ = h.Write([]byte(reflectutil.TypeName(ts)))
	code := h.Sum64()
	if identity, ok := ts.(interface{ HashCode() uint64 }); ok {
		code ^= identity.HashCode()
	}
	return code
}

func (p *DynamicProxy) String() string {
	return fmt.Sprintf("DynamicProxy %s: %s", p.name, p.advised.ToProxyConfigString())
}

// unwrapProxy returns the DynamicProxy behind v, nil if v is not a proxy.
func unwrapProxy(v interface{}) *DynamicProxy {
	switch p := v.(type) {
	case *DynamicProxy:
		return p
	case *advisedProxy:
		return p.DynamicProxy
	case nil:
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}
	s := rv.Elem()
	for i := 0; i < s.NumField(); i++ {
		if s.Type().Field(i).Type == proxyType && s.Type().Field(i).IsExported() && !s.Field(i).IsNil() {
			switch p := s.Field(i).Interface().(type) {
			case *DynamicProxy:
				return p
			case *advisedProxy:
				return p.DynamicProxy
			}
		}
	}
	return nil
}

func equalsInProxy(a, b *AdvisedSupport) bool {
	if a == b {
		return true
	}
	aa, ba := a.GetAdvisors(), b.GetAdvisors()
	if len(aa) != len(ba) {
		return false
	}
	for i := range aa {
		if !identical(aa[i], ba[i]) {
			return false
		}
	}
	ai, bi := a.GetProxiedInterfaces(), b.GetProxiedInterfaces()
	if len(ai) != len(bi) {
		return false
	}
	for i := range ai {
		if ai[i] != bi[i] {
			return false
		}
	}
	return reflectutil.Equal(a.GetTargetSource(), b.GetTargetSource())
}

// NameOf returns the name of the proxy behind ref, a proxy or a struct
// populated by Bind. It returns "" for anything else.
func NameOf(ref interface{}) string {
	if p := unwrapProxy(ref); p != nil {
		return p.name
	}
	return ""
}

// AdvisedOf returns the configuration of the proxy behind ref, including
// opaque proxies.
func AdvisedOf(ref interface{}) (*AdvisedSupport, bool) {
	if p := unwrapProxy(ref); p != nil {
		return p.advised, true
	}
	return nil, false
}
