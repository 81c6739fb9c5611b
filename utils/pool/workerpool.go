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
// Package pool provides the goroutine pool used by asynchronous interceptors.
//
// Package pool 异步拦截器使用的协程池
//
// Note: the worker scheduling follows valyala/fasthttp workerpool.go:
// idle workers are reused in FILO order and reaped after MaxIdleWorkerDuration.
package pool

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/rulego/aop/api/types"
)

var _ types.Pool = (*WorkerPool)(nil)

// ErrPoolFull is returned by Submit when every worker is busy and the pool
// cannot grow.
var ErrPoolFull = errors.New("no idle workers")

// ErrPoolStopped is returned by Submit after Stop.
var ErrPoolStopped = errors.New("worker pool stopped")

// WorkerPool runs submitted functions on a bounded set of reusable goroutines.
// The most recently idle worker serves the next task, keeping its stack hot.
//
// Usage:
//
//	wp := &WorkerPool{MaxWorkersCount: 100}
//	wp.Start()
//	defer wp.Release()
//	err := wp.Submit(func() { ... })
type WorkerPool struct {
	// MaxWorkersCount 最大协程数，0 表示按 CPU 数量 * 256
	MaxWorkersCount int
	// MaxIdleWorkerDuration 协程最大空闲时间，默认 10 秒
	MaxIdleWorkerDuration time.Duration

	lock         sync.Mutex
	workersCount int
	stopped      bool
	ready        []*worker
	stopCh       chan struct{}
	startOnce    sync.Once
}

type worker struct {
	lastUseTime time.Time
	ch          chan func()
}

// NewWorkerPool creates and starts a pool.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	wp := &WorkerPool{MaxWorkersCount: maxWorkers}
	wp.Start()
	return wp
}

// Start launches the idle worker reaper. It is safe to call more than once.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		if wp.MaxWorkersCount <= 0 {
			wp.MaxWorkersCount = runtime.NumCPU() * 256
		}
		wp.stopCh = make(chan struct{})
		stopCh := wp.stopCh
		go func() {
			var scratch []*worker
			for {
				wp.clean(&scratch)
				select {
				case <-stopCh:
					return
				case <-time.After(wp.idleDuration()):
				}
			}
		}()
	})
}

// Stop stops every idle worker and rejects later submissions. Busy workers
// exit after finishing their task.
func (wp *WorkerPool) Stop() {
	wp.lock.Lock()
	defer wp.lock.Unlock()
	if wp.stopped {
		return
	}
	wp.stopped = true
	if wp.stopCh != nil {
		close(wp.stopCh)
	}
	for _, w := range wp.ready {
		w.ch <- nil
	}
	wp.ready = nil
}

// Release implements types.Pool.
func (wp *WorkerPool) Release() {
	wp.Stop()
}

// Running returns the number of live workers.
func (wp *WorkerPool) Running() int {
	wp.lock.Lock()
	defer wp.lock.Unlock()
	return wp.workersCount
}

// Submit hands fn to an idle worker, starting a new one if the pool may grow.
func (wp *WorkerPool) Submit(fn func()) error {
	if fn == nil {
		return nil
	}
	w, err := wp.getWorker()
	if err != nil {
		return err
	}
	w.ch <- fn
	return nil
}

func (wp *WorkerPool) idleDuration() time.Duration {
	if wp.MaxIdleWorkerDuration <= 0 {
		return 10 * time.Second
	}
	return wp.MaxIdleWorkerDuration
}

// clean stops the workers idle for longer than MaxIdleWorkerDuration.
// ready is ordered by lastUseTime, so the stale workers form a prefix.
func (wp *WorkerPool) clean(scratch *[]*worker) {
	criticalTime := time.Now().Add(-wp.idleDuration())
	wp.lock.Lock()
	n := 0
	for n < len(wp.ready) && wp.ready[n].lastUseTime.Before(criticalTime) {
		n++
	}
	*scratch = append((*scratch)[:0], wp.ready[:n]...)
	if n > 0 {
		m := copy(wp.ready, wp.ready[n:])
		for i := m; i < len(wp.ready); i++ {
			wp.ready[i] = nil
		}
		wp.ready = wp.ready[:m]
	}
	wp.lock.Unlock()
	for i, w := range *scratch {
		w.ch <- nil
		(*scratch)[i] = nil
	}
}

func (wp *WorkerPool) getWorker() (*worker, error) {
	wp.lock.Lock()
	if wp.stopped {
		wp.lock.Unlock()
		return nil, ErrPoolStopped
	}
	if n := len(wp.ready); n > 0 {
		w := wp.ready[n-1]
		wp.ready[n-1] = nil
		wp.ready = wp.ready[:n-1]
		wp.lock.Unlock()
		return w, nil
	}
	if wp.workersCount >= wp.MaxWorkersCount {
		wp.lock.Unlock()
		return nil, ErrPoolFull
	}
	wp.workersCount++
	wp.lock.Unlock()

	w := &worker{ch: make(chan func(), 1)}
	go wp.run(w)
	return w, nil
}

// release puts w back on the ready stack, false if the pool is stopped.
func (wp *WorkerPool) release(w *worker) bool {
	w.lastUseTime = time.Now()
	wp.lock.Lock()
	defer wp.lock.Unlock()
	if wp.stopped {
		return false
	}
	wp.ready = append(wp.ready, w)
	return true
}

func (wp *WorkerPool) run(w *worker) {
	defer func() {
		wp.lock.Lock()
		wp.workersCount--
		wp.lock.Unlock()
	}()
	for fn := range w.ch {
		if fn == nil {
			return
		}
		wp.exec(fn)
		if !wp.release(w) {
			return
		}
	}
}

// exec runs fn, keeping the worker alive if fn panics.
func (wp *WorkerPool) exec(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}
