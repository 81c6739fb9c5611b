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
package pointcut

import (
	"context"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/js"
)

// JsMatchFunctionName is the script function called by JsMethodMatcher.
const JsMatchFunctionName = "match"

// JsMethodMatcher is a runtime matcher running a JavaScript function
// match(method, args, target) on every call. The script may be a full
// function declaration or only its body:
//
//	return method === "SetAge" && args[0] > 18;
//
// JsMethodMatcher 使用 js 脚本在每次调用时判断是否匹配
type JsMethodMatcher struct {
	DynamicMethodMatcher
	engine *js.GojaJsEngine
}

// NewJsMethodMatcher compiles the script. Execution time is bounded by
// config.ScriptMaxExecutionTime.
func NewJsMethodMatcher(config types.Config, script string) (*JsMethodMatcher, error) {
	if strings.TrimSpace(script) == "" {
		return nil, errors.Wrap(types.ErrMissingProperty, "script is empty")
	}
	if !strings.Contains(script, "function "+JsMatchFunctionName) {
		script = "function " + JsMatchFunctionName + "(method, args, target) { " + script + " \n}"
	}
	engine, err := js.NewGojaJsEngine(config, script, nil)
	if err != nil {
		return nil, err
	}
	return &JsMethodMatcher{engine: engine}, nil
}

// MatchesArgs runs the script. Script errors and non boolean results do not match.
func (m *JsMethodMatcher) MatchesArgs(method *types.Method, targetType reflect.Type, args []interface{}) bool {
	var target string
	if targetType != nil {
		target = typeName(targetType)
	}
	if args == nil {
		args = []interface{}{}
	}
	out, err := m.engine.Execute(context.Background(), JsMatchFunctionName, method.Name, args, target)
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

// Stop releases the script runtimes.
func (m *JsMethodMatcher) Stop() {
	m.engine.Stop()
}
