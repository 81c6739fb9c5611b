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
// Package js runs JavaScript functions with goja. It backs the script method
// matcher, which decides per call whether an advice applies.
//
// Compiled programs are shared; runtimes are pooled and each call is bounded
// by Config.ScriptMaxExecutionTime.
package js

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
)

// CtxKey is the global name under which the invocation context is exposed.
const CtxKey = "$ctx"

// GojaJsEngine goja js engine
type GojaJsEngine struct {
	vmPool  sync.Pool
	config  types.Config
	program *goja.Program
}

// NewGojaJsEngine compiles script and prepares a runtime pool. vars are set
// as globals on every runtime.
func NewGojaJsEngine(config types.Config, script string, vars map[string]interface{}) (*GojaJsEngine, error) {
	program, err := goja.Compile("", script, true)
	if err != nil {
		return nil, errors.Wrap(err, "compile js")
	}
	g := &GojaJsEngine{config: config, program: program}
	if config.Logger == nil {
		g.config.Logger = types.DefaultLogger()
	}
	// 先创建一个运行时，尽早暴露脚本执行错误
	vm, err := g.newVm(vars)
	if err != nil {
		return nil, err
	}
	g.vmPool.Put(vm)
	g.vmPool.New = func() interface{} {
		vm, err := g.newVm(vars)
		if err != nil {
			g.config.Logger.Printf("js vm error: %s", err.Error())
		}
		return vm
	}
	return g, nil
}

func (g *GojaJsEngine) newVm(vars map[string]interface{}) (*goja.Runtime, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	for k, v := range vars {
		if err := vm.Set(k, v); err != nil {
			return nil, errors.Wrapf(err, "set js var %s", k)
		}
	}
	timer := g.startTimeout(vm)
	_, err := vm.RunProgram(g.program)
	g.stopTimeout(timer)
	if err != nil {
		return nil, errors.Wrap(err, "run js")
	}
	return vm, nil
}

// Execute calls the global function functionName with the arguments and
// returns the exported result. Panics inside the runtime are returned as errors.
func (g *GojaJsEngine) Execute(ctx context.Context, functionName string, argumentList ...interface{}) (out interface{}, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s", caught)
		}
	}()
	vm := g.vmPool.Get().(*goja.Runtime)
	defer g.vmPool.Put(vm)

	if ctx != nil {
		_ = vm.Set(CtxKey, ctx)
	}
	timer := g.startTimeout(vm)
	defer g.stopTimeout(timer)

	f, ok := goja.AssertFunction(vm.Get(functionName))
	if !ok {
		return nil, errors.New(functionName + " is not a function")
	}
	params := make([]goja.Value, len(argumentList))
	for i, v := range argumentList {
		params[i] = vm.ToValue(v)
	}
	res, err := f(goja.Undefined(), params...)
	if err != nil {
		vm.ClearInterrupt()
		return nil, err
	}
	return res.Export(), nil
}

// Stop releases the pooled runtimes.
func (g *GojaJsEngine) Stop() {
	g.vmPool = sync.Pool{}
}

func (g *GojaJsEngine) startTimeout(vm *goja.Runtime) *time.Timer {
	if g.config.ScriptMaxExecutionTime <= 0 {
		return nil
	}
	return time.AfterFunc(g.config.ScriptMaxExecutionTime, func() {
		vm.Interrupt("execution timeout")
	})
}

func (g *GojaJsEngine) stopTimeout(timer *time.Timer) {
	if timer != nil {
		timer.Stop()
	}
}
