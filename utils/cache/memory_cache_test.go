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

package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/rulego/aop/test/assert"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Millisecond * 20)
	defer c.Close()

	assert.Nil(t, c.Set("a", 1, ""))
	assert.Equal(t, 1, c.Get("a"))
	assert.True(t, c.Has("a"))
	assert.Nil(t, c.Get("b"))
	assert.False(t, c.Has("b"))

	assert.NotNil(t, c.Set("bad", 1, "ten minutes"))

	assert.Nil(t, c.Delete("a"))
	assert.False(t, c.Has("a"))
}

func TestMemoryCacheExpire(t *testing.T) {
	c := NewMemoryCache(time.Millisecond * 10)
	defer c.Close()

	assert.Nil(t, c.Set("short", "v", "30ms"))
	assert.Nil(t, c.Set("forever", "v", "0s"))
	assert.Equal(t, "v", c.Get("short"))
	time.Sleep(time.Millisecond * 60)
	assert.Nil(t, c.Get("short"))
	assert.False(t, c.Has("short"))
	assert.Equal(t, "v", c.Get("forever"))
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheDeleteByPrefix(t *testing.T) {
	c := NewMemoryCache(0)
	_ = c.Set("user:1", 1, "")
	_ = c.Set("user:2", 2, "")
	_ = c.Set("order:1", 3, "")
	assert.Nil(t, c.DeleteByPrefix("user:"))
	assert.False(t, c.Has("user:1"))
	assert.False(t, c.Has("user:2"))
	assert.True(t, c.Has("order:1"))
}

func TestNamespaceCache(t *testing.T) {
	c := NewMemoryCache(0)
	ns1 := NewNamespaceCache(c, "p1")
	ns2 := NewNamespaceCache(c, "p2:")
	_ = ns1.Set("k", 1, "")
	_ = ns2.Set("k", 2, "")
	assert.Equal(t, 1, ns1.Get("k"))
	assert.Equal(t, 2, ns2.Get("k"))
	assert.True(t, c.Has("p1:k"))

	assert.Nil(t, ns1.Clear())
	assert.False(t, ns1.Has("k"))
	assert.True(t, ns2.Has("k"))
	assert.Nil(t, ns2.Delete("k"))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheConcurrent(t *testing.T) {
	c := NewMemoryCache(time.Millisecond)
	defer c.Close()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Set("k", j, "1ms")
				c.Get("k")
				_ = c.DeleteByPrefix("x")
			}
		}(i)
	}
	wg.Wait()
}
