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
// Package test provides the fixtures shared by the package tests: a Person
// business interface with an Employee implementation, a typed stub for
// Proxy.Bind, and recording and counting advice.
package test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/rulego/aop/api/types"
)

// ErrNegativeAge is returned by Employee.SetAge for negative ages.
var ErrNegativeAge = errors.New("age must not be negative")

// PersonType is the reflect type of Person.
var PersonType = types.InterfaceOf[Person]()

// Person is the business interface proxied in tests.
type Person interface {
	GetName() string
	SetName(name string)
	GetAge() int
	SetAge(age int) error
	// Greet uses the invocation context.
	Greet(ctx context.Context, greeting string) (string, error)
	// Self returns the receiver.
	Self() Person
	// Fail always returns an error with msg.
	Fail(msg string) error
	// Panic panics with msg.
	Panic(msg string)
}

// Employee is a Person. It counts the advised calls it received through
// IncCounter, so that counters bound to different instances can be told apart.
type Employee struct {
	mu      sync.Mutex
	name    string
	age     int
	counter int64
	// Destroyed is set by Destroy.
	Destroyed int32
	// DestroyErr is returned by Destroy.
	DestroyErr error
	// DestroyPanic, if set, is raised by Destroy after Destroyed is set.
	DestroyPanic string
}

var _ Person = (*Employee)(nil)
var _ types.Disposable = (*Employee)(nil)

func NewEmployee(name string, age int) *Employee {
	return &Employee{name: name, age: age}
}

func (e *Employee) GetName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

func (e *Employee) SetName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.name = name
}

func (e *Employee) GetAge() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.age
}

func (e *Employee) SetAge(age int) error {
	if age < 0 {
		return ErrNegativeAge
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.age = age
	return nil
}

func (e *Employee) Greet(ctx context.Context, greeting string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s, %s", greeting, e.GetName()), nil
}

func (e *Employee) Self() Person {
	return e
}

func (e *Employee) Fail(msg string) error {
	return &AgeError{Msg: msg}
}

func (e *Employee) Panic(msg string) {
	panic(msg)
}

// IncCounter increments the advised call counter.
func (e *Employee) IncCounter() {
	atomic.AddInt64(&e.counter, 1)
}

// Counter returns the advised call counter.
func (e *Employee) Counter() int64 {
	return atomic.LoadInt64(&e.counter)
}

func (e *Employee) Destroy() error {
	atomic.StoreInt32(&e.Destroyed, 1)
	if e.DestroyPanic != "" {
		panic(e.DestroyPanic)
	}
	return e.DestroyErr
}

// AgeError is a custom error type, used to check error identity through proxies.
type AgeError struct {
	Msg string
}

func (e *AgeError) Error() string {
	return "age error: " + e.Msg
}

// PersonStub is the typed surface of a Person proxy: Proxy.Bind fills the
// func fields, and the methods make the stub a Person itself.
type PersonStub struct {
	Proxy       types.Proxy
	GetNameFunc func() string
	SetNameFunc func(name string)
	GetAgeFunc  func() int
	SetAgeFunc  func(age int) error
	GreetFunc   func(ctx context.Context, greeting string) (string, error)
	SelfFunc    func() Person
	FailFunc    func(msg string) error
	PanicFunc   func(msg string)
}

var _ Person = (*PersonStub)(nil)

func (p *PersonStub) GetName() string      { return p.GetNameFunc() }
func (p *PersonStub) SetName(name string)  { p.SetNameFunc(name) }
func (p *PersonStub) GetAge() int          { return p.GetAgeFunc() }
func (p *PersonStub) SetAge(age int) error { return p.SetAgeFunc(age) }
func (p *PersonStub) Greet(ctx context.Context, greeting string) (string, error) {
	return p.GreetFunc(ctx, greeting)
}
func (p *PersonStub) Self() Person          { return p.SelfFunc() }
func (p *PersonStub) Fail(msg string) error { return p.FailFunc(msg) }
func (p *PersonStub) Panic(msg string)      { p.PanicFunc(msg) }

// Recorder collects an ordered trace of advice executions. It is safe for
// concurrent use.
type Recorder struct {
	mu    sync.Mutex
	trace []string
}

func (r *Recorder) Record(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = append(r.trace, step)
}

// Trace returns a copy of the recorded steps.
func (r *Recorder) Trace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.trace...)
}

// Printf records the formatted line, a Recorder can be used as types.Logger.
func (r *Recorder) Printf(format string, v ...interface{}) {
	r.Record(fmt.Sprintf(format, v...))
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = nil
}

// RecordingInterceptor records "<name>-before" and "<name>-after" around Proceed.
type RecordingInterceptor struct {
	Name     string
	Recorder *Recorder
}

func (i *RecordingInterceptor) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	i.Recorder.Record(i.Name + "-before")
	defer i.Recorder.Record(i.Name + "-after")
	return mi.Proceed()
}

// TargetRecordingInterceptor records "target" before handing over to the
// joinpoint. It must be the last interceptor of the chain.
type TargetRecordingInterceptor struct {
	Recorder *Recorder
}

func (i *TargetRecordingInterceptor) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	i.Recorder.Record("target")
	return mi.Proceed()
}

// CountingBeforeAdvice counts its invocations. If the target has an
// IncCounter method it is incremented too.
type CountingBeforeAdvice struct {
	count int64
}

func (a *CountingBeforeAdvice) Before(ctx context.Context, method *types.Method, args []interface{}, target interface{}) error {
	atomic.AddInt64(&a.count, 1)
	if c, ok := target.(interface{ IncCounter() }); ok {
		c.IncCounter()
	}
	return nil
}

func (a *CountingBeforeAdvice) Count() int64 {
	return atomic.LoadInt64(&a.count)
}

// CountingInterceptor counts its invocations and proceeds.
type CountingInterceptor struct {
	count int64
}

func (i *CountingInterceptor) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	atomic.AddInt64(&i.count, 1)
	return mi.Proceed()
}

func (i *CountingInterceptor) Count() int64 {
	return atomic.LoadInt64(&i.count)
}

// CountingTargetSource decorates a target source, counting GetTarget and
// ReleaseTarget calls.
type CountingTargetSource struct {
	types.TargetSource
	gets     int64
	releases int64
}

func NewCountingTargetSource(ts types.TargetSource) *CountingTargetSource {
	return &CountingTargetSource{TargetSource: ts}
}

func (c *CountingTargetSource) GetTarget(ctx context.Context) (interface{}, error) {
	target, err := c.TargetSource.GetTarget(ctx)
	if err == nil {
		atomic.AddInt64(&c.gets, 1)
	}
	return target, err
}

func (c *CountingTargetSource) ReleaseTarget(target interface{}) error {
	atomic.AddInt64(&c.releases, 1)
	return c.TargetSource.ReleaseTarget(target)
}

func (c *CountingTargetSource) Gets() int64 {
	return atomic.LoadInt64(&c.gets)
}

func (c *CountingTargetSource) Releases() int64 {
	return atomic.LoadInt64(&c.releases)
}

// EmployeeFactory is a BeanFactory creating a new Employee on every GetBean.
type EmployeeFactory struct {
	created int64
	// Err, if set, is returned by GetBean.
	Err error
}

var _ types.BeanFactory = (*EmployeeFactory)(nil)

func (f *EmployeeFactory) GetBean(ctx context.Context, name string) (interface{}, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	n := atomic.AddInt64(&f.created, 1)
	return NewEmployee(fmt.Sprintf("%s-%d", name, n), 0), nil
}

func (f *EmployeeFactory) GetType(name string) reflect.Type {
	return reflect.TypeOf(&Employee{})
}

// Created returns the number of employees created.
func (f *EmployeeFactory) Created() int64 {
	return atomic.LoadInt64(&f.created)
}
