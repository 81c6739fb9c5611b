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
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/pointcut"
	"github.com/rulego/aop/utils/json"
	"github.com/rulego/aop/utils/maps"
	"golang.org/x/crypto/blake2b"
)

// DefaultCachePrefix is the key prefix of cached results.
const DefaultCachePrefix = "aop:result"

var _ types.Component = (*Cache)(nil)

// Cache caches the results of successful invocations, keyed by proxy, method
// and a blake2b digest of the arguments. Invocations returning an error are
// never cached.
//
// Cache 结果缓存拦截器，key：前缀:代理:方法:参数摘要。返回错误的调用不缓存。
//
// Usage:
// 使用方法：
//
//	c := &aspect.Cache{Ttl: "10m", Methods: []string{"Get*"}}
type Cache struct {
	// Ttl 过期时间，例如 10m，为空不过期
	Ttl string `json:"ttl"`
	// Methods 需要缓存的方法名，支持 * 通配符，为空缓存所有方法
	Methods []string `json:"methods"`
	// Prefix key 前缀
	Prefix string `json:"prefix"`

	store   types.Cache
	once    sync.Once
	matcher *pointcut.NameMatchMethodPointcut
}

// NewCache creates a cache interceptor storing into store.
func NewCache(store types.Cache, ttl string, methods ...string) *Cache {
	return &Cache{store: store, Ttl: ttl, Methods: methods}
}

func (a *Cache) Order() int {
	return 40
}

func (a *Cache) New() types.Component {
	return &Cache{Ttl: a.Ttl, Methods: a.Methods, Prefix: a.Prefix, store: a.store}
}

func (a *Cache) Type() string {
	return "cache"
}

// Init decodes the configuration and uses the cache of config as store.
func (a *Cache) Init(config types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, a); err != nil {
		return err
	}
	if config.Cache != nil {
		a.store = config.Cache
	}
	return nil
}

func (a *Cache) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	if !a.cacheable(mi) {
		return mi.Proceed()
	}
	key := a.Key(engine.NameOf(mi.Proxy()), mi.Method(), mi.Arguments())
	store := a.getStore()
	if v := store.Get(key); v != nil {
		if results, ok := v.([]interface{}); ok {
			return append([]interface{}(nil), results...), nil
		}
	}
	results, err := mi.Proceed()
	if err == nil {
		_ = store.Set(key, append([]interface{}(nil), results...), a.Ttl)
	}
	return results, err
}

// Key returns the cache key of an invocation.
func (a *Cache) Key(proxyName string, method *types.Method, args []interface{}) string {
	b, err := json.Marshal(args)
	if err != nil {
		b = []byte(fmt.Sprintf("%#v", args))
	}
	sum := blake2b.Sum256(b)
	return a.keyPrefix(proxyName) + method.String() + ":" + hex.EncodeToString(sum[:])
}

// Evict removes the cached results of a proxy.
func (a *Cache) Evict(proxyName string) error {
	return a.getStore().DeleteByPrefix(a.keyPrefix(proxyName))
}

func (a *Cache) keyPrefix(proxyName string) string {
	prefix := a.Prefix
	if prefix == "" {
		prefix = DefaultCachePrefix
	}
	return strings.Join([]string{prefix, proxyName, ""}, ":")
}

func (a *Cache) cacheable(mi types.MethodInvocation) bool {
	if len(a.Methods) == 0 {
		return true
	}
	a.once.Do(func() {
		//非法的模式不匹配任何方法
		a.matcher, _ = pointcut.NewNameMatchMethodPointcut(a.Methods...)
	})
	return a.matcher != nil && a.matcher.Matches(mi.Method(), mi.TargetType())
}

func (a *Cache) getStore() types.Cache {
	if a.store == nil {
		a.store = engine.DefaultCache
	}
	return a.store
}
