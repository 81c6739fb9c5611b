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

// Package cache provides the in-memory store backing the cache interceptor.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/rulego/aop/api/types"
)

var _ types.Cache = (*MemoryCache)(nil)
var _ types.Cache = (*NamespaceCache)(nil)

// entry is a cached value. expireAt is a unix nano timestamp, 0 never expires.
type entry struct {
	value    interface{}
	expireAt int64
}

func (e entry) expired(now int64) bool {
	return e.expireAt > 0 && now > e.expireAt
}

// MemoryCache is a concurrency safe in-memory cache with per key ttl.
// Expired entries are hidden from readers immediately and evicted by a
// background sweeper started on the first expirable Set.
// MemoryCache 内存缓存，过期的键读取时立即不可见，由后台协程定期清理
type MemoryCache struct {
	mu            sync.RWMutex
	entries       map[string]entry
	sweepInterval time.Duration
	sweeping      bool
	stop          chan struct{}
}

// NewMemoryCache creates a cache sweeping expired entries every sweepInterval,
// 5 minutes if sweepInterval <= 0.
func NewMemoryCache(sweepInterval time.Duration) *MemoryCache {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	return &MemoryCache{
		entries:       make(map[string]entry),
		sweepInterval: sweepInterval,
	}
}

// Set stores value under key. ttl is parsed with time.ParseDuration.
func (c *MemoryCache) Set(key string, value interface{}, ttl string) error {
	var expireAt int64
	if ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return err
		}
		if d > 0 {
			expireAt = time.Now().Add(d).UnixNano()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expireAt: expireAt}
	if expireAt > 0 && !c.sweeping {
		c.startSweeper()
	}
	return nil
}

func (c *MemoryCache) Get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.expired(time.Now().UnixNano()) {
		return nil
	}
	return e.value
}

func (c *MemoryCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return ok && !e.expired(time.Now().UnixNano())
}

func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) DeleteByPrefix(prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	now := time.Now().UnixNano()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// Close stops the sweeper. The cache stays usable and restarts it on demand.
func (c *MemoryCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sweeping {
		close(c.stop)
		c.sweeping = false
	}
}

// startSweeper must be called with c.mu held.
func (c *MemoryCache) startSweeper() {
	c.sweeping = true
	c.stop = make(chan struct{})
	go c.sweep(c.stop)
}

func (c *MemoryCache) sweep(stop chan struct{}) {
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !c.evictExpired() {
				c.mu.Lock()
				//没有可过期的键，停止清理协程，下次 Set 时再启动
				if c.stop == stop {
					c.sweeping = false
				}
				c.mu.Unlock()
				return
			}
		}
	}
}

// evictExpired deletes expired entries and reports whether expirable
// entries remain.
func (c *MemoryCache) evictExpired() bool {
	now := time.Now().UnixNano()
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := false
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		} else if e.expireAt > 0 {
			remaining = true
		}
	}
	return remaining
}

// NamespaceCache prefixes every key with a namespace, so that several
// interceptors can share one underlying cache.
// NamespaceCache 命名空间缓存，多个拦截器共享同一个底层缓存
type NamespaceCache struct {
	cache     types.Cache
	namespace string
}

// NewNamespaceCache wraps cache, prefixing keys with namespace + ":".
func NewNamespaceCache(cache types.Cache, namespace string) *NamespaceCache {
	if !strings.HasSuffix(namespace, ":") {
		namespace += ":"
	}
	return &NamespaceCache{cache: cache, namespace: namespace}
}

func (c *NamespaceCache) Set(key string, value interface{}, ttl string) error {
	return c.cache.Set(c.namespace+key, value, ttl)
}

func (c *NamespaceCache) Get(key string) interface{} {
	return c.cache.Get(c.namespace + key)
}

func (c *NamespaceCache) Has(key string) bool {
	return c.cache.Has(c.namespace + key)
}

func (c *NamespaceCache) Delete(key string) error {
	return c.cache.Delete(c.namespace + key)
}

func (c *NamespaceCache) DeleteByPrefix(prefix string) error {
	return c.cache.DeleteByPrefix(c.namespace + prefix)
}

// Clear evicts every key of the namespace.
func (c *NamespaceCache) Clear() error {
	return c.cache.DeleteByPrefix(c.namespace)
}
