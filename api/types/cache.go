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

package types

// Cache is the key-value store used by the cache interceptor.
// Implementations must be safe for concurrent use.
// Cache 缓存拦截器使用的缓存，实现必须是并发安全的
type Cache interface {
	// Set stores value under key. ttl is a duration string such as "10m";
	// an empty or zero ttl never expires.
	Set(key string, value interface{}, ttl string) error
	// Get returns the value, or nil if it is missing or expired.
	Get(key string) interface{}
	Has(key string) bool
	Delete(key string) error
	// DeleteByPrefix evicts every key starting with prefix.
	DeleteByPrefix(prefix string) error
}
