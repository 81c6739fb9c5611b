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
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rulego/aop/advisor"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/target"
)

// AdvisedSupport is the proxy configuration: the ordered advisors, the target
// source, the proxied interfaces and the flags. Every proxy created from it
// reads it during dispatch. Advisor mutations are rejected once it is frozen
// and invalidate the cached interceptor chains.
// AdvisedSupport 代理配置，保存顾问列表、目标来源、代理接口和标志
type AdvisedSupport struct {
	mu           sync.RWMutex
	flags        types.ProxyConfig
	preFiltered  bool
	targetSource types.TargetSource
	interfaces   []reflect.Type
	advisors     []types.Advisor

	registry     types.AdvisorAdapterRegistry
	chainFactory types.AdvisorChainFactory
	logger       types.Logger
	chains       *chainCache
}

var _ types.Advised = (*AdvisedSupport)(nil)

// NewAdvisedSupport creates an empty configuration using the adapter registry,
// chain factory and logger of config.
func NewAdvisedSupport(config types.Config) *AdvisedSupport {
	registry := config.AdapterRegistry
	if registry == nil {
		registry = advisor.NewDefaultAdapterRegistry()
	}
	chainFactory := config.ChainFactory
	if chainFactory == nil {
		chainFactory = NewDefaultAdvisorChainFactory(registry)
	}
	return &AdvisedSupport{
		targetSource: target.Empty,
		registry:     registry,
		chainFactory: chainFactory,
		logger:       types.NewLogger(config.Logger),
		chains:       newChainCache(),
	}
}

func (a *AdvisedSupport) IsFrozen() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.flags.Frozen
}

func (a *AdvisedSupport) IsProxyTargetClass() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.flags.ProxyTargetClass
}

func (a *AdvisedSupport) IsExposeProxy() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.flags.ExposeProxy
}

func (a *AdvisedSupport) IsOptimize() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.flags.Optimize
}

func (a *AdvisedSupport) IsOpaque() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.flags.Opaque
}

func (a *AdvisedSupport) IsPreFiltered() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.preFiltered
}

// SetFrozen freezes or unfreezes the advice.
func (a *AdvisedSupport) SetFrozen(frozen bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flags.Frozen = frozen
}

func (a *AdvisedSupport) SetProxyTargetClass(proxyTargetClass bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flags.ProxyTargetClass = proxyTargetClass
}

func (a *AdvisedSupport) SetExposeProxy(exposeProxy bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flags.ExposeProxy = exposeProxy
}

func (a *AdvisedSupport) SetOptimize(optimize bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flags.Optimize = optimize
}

func (a *AdvisedSupport) SetOpaque(opaque bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flags.Opaque = opaque
}

// SetPreFiltered declares the advisors already filtered for the target type,
// so that class filters are skipped when chains are built.
func (a *AdvisedSupport) SetPreFiltered(preFiltered bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.preFiltered = preFiltered
	a.adviceChanged()
}

// ProxyConfig returns a copy of the flags.
func (a *AdvisedSupport) ProxyConfig() types.ProxyConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.flags
}

// SetProxyConfig replaces the flags.
func (a *AdvisedSupport) SetProxyConfig(flags types.ProxyConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flags = flags
}

func (a *AdvisedSupport) GetTargetSource() types.TargetSource {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.targetSource
}

// SetTargetSource replaces the target source, nil means no target.
func (a *AdvisedSupport) SetTargetSource(targetSource types.TargetSource) error {
	if targetSource == nil {
		targetSource = target.Empty
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.targetSource = targetSource
	return nil
}

// SetTarget sets a singleton target source holding t.
func (a *AdvisedSupport) SetTarget(t interface{}) error {
	return a.SetTargetSource(target.NewSingleton(t))
}

// TargetType returns the type of the targets, nil if unknown.
func (a *AdvisedSupport) TargetType() reflect.Type {
	return a.GetTargetSource().TargetType()
}

func (a *AdvisedSupport) GetProxiedInterfaces() []reflect.Type {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]reflect.Type(nil), a.interfaces...)
}

func (a *AdvisedSupport) IsInterfaceProxied(iface reflect.Type) bool {
	if iface == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, pi := range a.interfaces {
		if pi == iface || pi.Implements(iface) {
			return true
		}
	}
	return false
}

// SetInterfaces replaces the proxied interfaces.
func (a *AdvisedSupport) SetInterfaces(ifaces ...reflect.Type) error {
	for _, iface := range ifaces {
		if err := checkInterface(iface); err != nil {
			return err
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.interfaces = a.interfaces[:0]
	for _, iface := range ifaces {
		a.addInterface(iface)
	}
	a.adviceChanged()
	return nil
}

// AddInterface adds a proxied interface, ignoring duplicates.
func (a *AdvisedSupport) AddInterface(iface reflect.Type) error {
	if err := checkInterface(iface); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.addInterface(iface) {
		a.adviceChanged()
	}
	return nil
}

// RemoveInterface removes a proxied interface, reporting whether it was proxied.
func (a *AdvisedSupport) RemoveInterface(iface reflect.Type) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.removeInterface(iface) {
		a.adviceChanged()
		return true
	}
	return false
}

func checkInterface(iface reflect.Type) error {
	if iface == nil || iface.Kind() != reflect.Interface {
		return errors.Wrapf(types.ErrNotInterface, "%v", iface)
	}
	return nil
}

func (a *AdvisedSupport) addInterface(iface reflect.Type) bool {
	for _, pi := range a.interfaces {
		if pi == iface {
			return false
		}
	}
	a.interfaces = append(a.interfaces, iface)
	return true
}

func (a *AdvisedSupport) removeInterface(iface reflect.Type) bool {
	for i, pi := range a.interfaces {
		if pi == iface {
			a.interfaces = append(a.interfaces[:i], a.interfaces[i+1:]...)
			return true
		}
	}
	return false
}

func (a *AdvisedSupport) GetAdvisors() []types.Advisor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]types.Advisor(nil), a.advisors...)
}

func (a *AdvisedSupport) AddAdvisor(adv types.Advisor) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addAdvisorAt(len(a.advisors), adv)
}

func (a *AdvisedSupport) AddAdvisorAt(pos int, adv types.Advisor) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addAdvisorAt(pos, adv)
}

// AddAdvisors appends the advisors in order.
func (a *AdvisedSupport) AddAdvisors(advisors ...types.Advisor) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, adv := range advisors {
		if err := a.addAdvisorAt(len(a.advisors), adv); err != nil {
			return err
		}
	}
	return nil
}

func (a *AdvisedSupport) addAdvisorAt(pos int, adv types.Advisor) error {
	if a.flags.Frozen {
		return errors.Wrap(types.ErrConfigFrozen, "cannot add advisor")
	}
	if adv == nil {
		return errors.Wrap(types.ErrMissingProperty, "advisor is nil")
	}
	if pos < 0 || pos > len(a.advisors) {
		return errors.Errorf("illegal position %d in advisor list with size %d", pos, len(a.advisors))
	}
	if ia, ok := adv.(types.IntroductionAdvisor); ok {
		if err := ia.ValidateInterfaces(); err != nil {
			return err
		}
		for _, iface := range ia.Interfaces() {
			a.addInterface(iface)
		}
	}
	a.advisors = append(a.advisors, nil)
	copy(a.advisors[pos+1:], a.advisors[pos:])
	a.advisors[pos] = adv
	a.adviceChanged()
	return nil
}

func (a *AdvisedSupport) RemoveAdvisor(adv types.Advisor) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	index := a.indexOf(adv)
	if index == -1 {
		return false, nil
	}
	if err := a.removeAdvisorAt(index); err != nil {
		return false, err
	}
	return true, nil
}

func (a *AdvisedSupport) RemoveAdvisorAt(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.removeAdvisorAt(index)
}

func (a *AdvisedSupport) removeAdvisorAt(index int) error {
	if a.flags.Frozen {
		return errors.Wrap(types.ErrConfigFrozen, "cannot remove advisor")
	}
	if index < 0 || index >= len(a.advisors) {
		return errors.Wrapf(types.ErrAdvisorNotFound, "index %d out of bounds, advisor count %d", index, len(a.advisors))
	}
	adv := a.advisors[index]
	if ia, ok := adv.(types.IntroductionAdvisor); ok {
		for _, iface := range ia.Interfaces() {
			a.removeInterface(iface)
		}
	}
	a.advisors = append(a.advisors[:index], a.advisors[index+1:]...)
	a.adviceChanged()
	return nil
}

func (a *AdvisedSupport) IndexOf(adv types.Advisor) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.indexOf(adv)
}

func (a *AdvisedSupport) indexOf(adv types.Advisor) int {
	for i, item := range a.advisors {
		if identical(item, adv) {
			return i
		}
	}
	return -1
}

// ReplaceAdvisor replaces old with adv, reporting whether old was found.
func (a *AdvisedSupport) ReplaceAdvisor(old, adv types.Advisor) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	index := a.indexOf(old)
	if index == -1 {
		return false, nil
	}
	if adv == nil {
		return false, errors.Wrap(types.ErrMissingProperty, "advisor is nil")
	}
	if ia, ok := adv.(types.IntroductionAdvisor); ok {
		if err := ia.ValidateInterfaces(); err != nil {
			return false, err
		}
	}
	if err := a.removeAdvisorAt(index); err != nil {
		return false, err
	}
	if err := a.addAdvisorAt(index, adv); err != nil {
		return false, err
	}
	return true, nil
}

// AddAdvice adds an advisor applying advice to every method. Introduction
// interceptors declaring their interfaces get an introduction advisor.
func (a *AdvisedSupport) AddAdvice(advice types.Advice) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addAdviceAt(len(a.advisors), advice)
}

func (a *AdvisedSupport) AddAdviceAt(pos int, advice types.Advice) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addAdviceAt(pos, advice)
}

func (a *AdvisedSupport) addAdviceAt(pos int, advice types.Advice) error {
	if advice == nil {
		return errors.Wrap(types.ErrMissingProperty, "advice is nil")
	}
	if ii, ok := advice.(types.IntroductionInterceptor); ok {
		if _, declared := ii.(interface{ Interfaces() []reflect.Type }); !declared {
			return errors.Wrapf(types.ErrUnknownAdviceType, "introduction advice %T must be added with an introduction advisor", advice)
		}
		ia, err := advisor.NewIntroductionAdvisor(advice)
		if err != nil {
			return err
		}
		return a.addAdvisorAt(pos, ia)
	}
	adv, err := a.registry.Wrap(advice)
	if err != nil {
		return err
	}
	return a.addAdvisorAt(pos, adv)
}

func (a *AdvisedSupport) RemoveAdvice(advice types.Advice) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	index := a.indexOfAdvice(advice)
	if index == -1 {
		return false, nil
	}
	if err := a.removeAdvisorAt(index); err != nil {
		return false, err
	}
	return true, nil
}

func (a *AdvisedSupport) IndexOfAdvice(advice types.Advice) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.indexOfAdvice(advice)
}

func (a *AdvisedSupport) indexOfAdvice(advice types.Advice) int {
	for i, item := range a.advisors {
		if identical(item.Advice(), advice) {
			return i
		}
	}
	return -1
}

// AdapterRegistry returns the registry translating advice into interceptors.
func (a *AdvisedSupport) AdapterRegistry() types.AdvisorAdapterRegistry {
	return a.registry
}

// InterceptorsAndDynamicInterceptionAdvice returns the cached chain of method
// for targetType, computing it on first use.
func (a *AdvisedSupport) InterceptorsAndDynamicInterceptionAdvice(method *types.Method, targetType reflect.Type) ([]types.ChainElement, error) {
	key := chainKey{owner: method.Owner, name: method.Name, targetType: targetType}
	return a.chains.get(key, func() ([]types.ChainElement, error) {
		return a.chainFactory.InterceptorsAndDynamicInterceptionAdvice(a, method, targetType)
	})
}

// adviceChanged drops the cached chains. Callers hold the write lock.
func (a *AdvisedSupport) adviceChanged() {
	a.chains.invalidate()
}

func (a *AdvisedSupport) ToProxyConfigString() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var sb strings.Builder
	names := make([]string, 0, len(a.interfaces))
	for _, iface := range a.interfaces {
		names = append(names, iface.String())
	}
	sb.WriteString(fmt.Sprintf("%d interfaces [%s]; ", len(a.interfaces), strings.Join(names, ", ")))
	advisors := make([]string, 0, len(a.advisors))
	for _, adv := range a.advisors {
		advisors = append(advisors, fmt.Sprintf("%v", adv))
	}
	sb.WriteString(fmt.Sprintf("%d advisors [%s]; ", len(a.advisors), strings.Join(advisors, ", ")))
	sb.WriteString(fmt.Sprintf("targetSource [%v]; ", a.targetSource))
	sb.WriteString(fmt.Sprintf("proxyTargetClass=%t; optimize=%t; opaque=%t; exposeProxy=%t; frozen=%t",
		a.flags.ProxyTargetClass, a.flags.Optimize, a.flags.Opaque, a.flags.ExposeProxy, a.flags.Frozen))
	return sb.String()
}

func (a *AdvisedSupport) String() string {
	return "AdvisedSupport: " + a.ToProxyConfigString()
}

// identical compares by identity, values of uncomparable types are never identical.
func identical(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
