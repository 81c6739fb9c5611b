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

package console

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rulego/aop/api/types"
)

var _ types.Publisher = (*TraceHub)(nil)

// DefaultSubscriberBuffer 每个订阅者缓存的事件数
const DefaultSubscriberBuffer = 256

// TraceHub fans invocation events out to websocket subscribers. Slow
// subscribers drop events instead of blocking the proxied call.
// TraceHub 调用事件广播器，慢订阅者丢弃事件，不阻塞代理调用
type TraceHub struct {
	// Buffer 订阅者缓存大小
	Buffer int

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	closed      bool
	dropped     int64
}

type subscriber struct {
	// proxy 只接收该代理的事件，为空接收所有
	proxy  string
	events chan types.InvocationEvent
}

// NewTraceHub creates an empty hub.
func NewTraceHub() *TraceHub {
	return &TraceHub{Buffer: DefaultSubscriberBuffer, subscribers: make(map[*subscriber]struct{})}
}

// Publish delivers the event to every matching subscriber. It never blocks.
func (h *TraceHub) Publish(event types.InvocationEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subscribers {
		if s.proxy != "" && s.proxy != event.Proxy {
			continue
		}
		select {
		case s.events <- event:
		default:
			atomic.AddInt64(&h.dropped, 1)
		}
	}
	return nil
}

// Subscribe registers a subscriber. The returned channel is closed by the
// cancel function or by Close.
func (h *TraceHub) Subscribe(proxy string) (<-chan types.InvocationEvent, func()) {
	buffer := h.Buffer
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	s := &subscriber{proxy: proxy, events: make(chan types.InvocationEvent, buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.events)
		return s.events, func() {}
	}
	if h.subscribers == nil {
		h.subscribers = make(map[*subscriber]struct{})
	}
	h.subscribers[s] = struct{}{}
	var once sync.Once
	return s.events, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subscribers[s]; ok {
				delete(h.subscribers, s)
				close(s.events)
			}
		})
	}
}

// SubscriberCount returns the number of subscribers.
func (h *TraceHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns the number of events dropped for slow subscribers.
func (h *TraceHub) Dropped() int64 {
	return atomic.LoadInt64(&h.dropped)
}

// Close closes every subscriber channel. Later subscribers get a closed channel.
func (h *TraceHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subscribers {
		close(s.events)
	}
	h.subscribers = nil
}

// serve writes the events to conn until the subscription ends or the peer
// goes away.
func (h *TraceHub) serve(conn *websocket.Conn, proxy string) {
	events, cancel := h.Subscribe(proxy)
	defer cancel()
	done := make(chan struct{})
	//读取对端消息，用于感知连接关闭
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, event.Bytes()); err != nil {
				return
			}
		}
	}
}
