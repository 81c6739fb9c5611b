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
	"sync"

	"github.com/rulego/aop/api/types"
	"golang.org/x/sync/singleflight"
)

type chainKey struct {
	owner      reflect.Type
	name       string
	targetType reflect.Type
}

// chainCache caches interceptor chains per (method, target type).
//
// Concurrent first lookups of a key are collapsed into one computation. The
// first stored chain wins. invalidate bumps the generation, a computation
// started before it is returned to its callers but never stored.
type chainCache struct {
	mu     sync.RWMutex
	gen    uint64
	chains map[chainKey][]types.ChainElement
	group  singleflight.Group
}

func newChainCache() *chainCache {
	return &chainCache{chains: make(map[chainKey][]types.ChainElement)}
}

func (c *chainCache) get(key chainKey, compute func() ([]types.ChainElement, error)) ([]types.ChainElement, error) {
	c.mu.RLock()
	chain, ok := c.chains[key]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return chain, nil
	}
	flight := fmt.Sprintf("%p.%s@%p#%d", key.owner, key.name, key.targetType, gen)
	v, err, _ := c.group.Do(flight, func() (interface{}, error) {
		c.mu.RLock()
		chain, ok := c.chains[key]
		c.mu.RUnlock()
		if ok {
			return chain, nil
		}
		chain, err := compute()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			return chain, nil
		}
		if existing, ok := c.chains[key]; ok {
			return existing, nil
		}
		c.chains[key] = chain
		return chain, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]types.ChainElement), nil
}

func (c *chainCache) invalidate() {
	c.mu.Lock()
	c.gen++
	c.chains = make(map[chainKey][]types.ChainElement)
	c.mu.Unlock()
}

func (c *chainCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.chains)
}
