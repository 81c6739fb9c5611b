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

// Package aspect provides the built-in interceptors of the proxy engine.
// Every interceptor is a types.Component: it can be added to a proxy directly
// as advice, or created by type from a configuration map through the
// component registry of the root package.
//
// Package aspect 内置拦截器。每个拦截器都是 types.Component，可以直接作为增强添加到代理，
// 也可以通过根包的组件注册器根据类型和配置创建。
//
// Available Built-in Interceptors:
// 可用的内置拦截器：
//
//   - Debug: logs and reports method entry and exit through Config.OnDebug
//     Debug：记录方法进入和离开，并通过 Config.OnDebug 回调
//
//   - ConcurrencyThrottle: limits the concurrent invocations, fail fast or blocking
//     ConcurrencyThrottle：限制并发调用数
//
//   - SkipFallback: per method circuit breaker
//     SkipFallback：按方法熔断
//
//   - Metrics: invocation counters and a Prometheus collector
//     Metrics：调用统计和 Prometheus 采集器
//
//   - RateLimiter: token bucket rate limiting
//     RateLimiter：令牌桶限流
//
//   - Cache: caches results by method and arguments
//     Cache：根据方法和参数缓存返回值
//
//   - Validator: validates arguments with struct tags and per method rules
//     Validator：参数校验
//
//   - Transaction: runs the invocation in a database/sql transaction
//     Transaction：在数据库事务中执行调用
//
//   - Async: runs methods without results on a worker pool
//     Async：在协程池异步执行没有返回值的方法
//
//   - Timeout, Retry, Trace, ExposeInvocation
//
// Interceptors declaring an Order are placed by it when advisor lists are merged:
// 声明了 Order 的拦截器在合并顾问列表时按顺序排列：
//  1. ExposeInvocation (order: 0)
//  2. ConcurrencyThrottle, RateLimiter, SkipFallback, Validator (order: 10)
//  3. Metrics, Trace (order: 20)
//  4. Timeout, Retry (order: 30)
//  5. Transaction, Cache (order: 40)
//  6. Async (order: 50)
//  7. Debug (order: 900)
//
// Usage:
// 使用方法：
//
//	p, err := engine.NewProxy(
//		engine.WithTarget(&orderService{}),
//		engine.WithInterfaces(types.InterfaceOf[OrderService]()),
//		engine.WithAdvice(&aspect.Debug{}, aspect.NewConcurrencyThrottle(100, false)),
//	)
package aspect
