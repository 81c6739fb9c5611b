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
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
)

// ExprMethodMatcher is a runtime matcher evaluating an expr-lang boolean
// expression on every call. Available variables:
//
//	method  method name, e.g. "SetAge"
//	name    qualified name, e.g. "test.Person.SetAge"
//	owner   declaring type, e.g. "test.Person"
//	target  target type name, "" if none
//	args    the call arguments
//
// Example: method == "SetAge" && args[0] > 18
// ExprMethodMatcher 使用 expr 表达式在每次调用时判断是否匹配
type ExprMethodMatcher struct {
	// Methods restricts the static match to methods with these names, empty
	// accepts every method.
	Methods []string
	program *vm.Program
}

// NewExprMethodMatcher compiles the expression.
func NewExprMethodMatcher(expression string, methods ...string) (*ExprMethodMatcher, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, errors.Wrap(types.ErrMissingProperty, "expression is empty")
	}
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "compile expression %q", expression)
	}
	return &ExprMethodMatcher{Methods: methods, program: program}, nil
}

func (m *ExprMethodMatcher) Matches(method *types.Method, targetType reflect.Type) bool {
	if len(m.Methods) == 0 {
		return true
	}
	for _, name := range m.Methods {
		if name == method.Name {
			return true
		}
	}
	return false
}

func (m *ExprMethodMatcher) IsRuntime() bool {
	return true
}

// MatchesArgs evaluates the expression. Evaluation errors do not match.
func (m *ExprMethodMatcher) MatchesArgs(method *types.Method, targetType reflect.Type, args []interface{}) bool {
	out, err := vm.Run(m.program, env(method, targetType, args))
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

func env(method *types.Method, targetType reflect.Type, args []interface{}) map[string]interface{} {
	var owner, target string
	if method.Owner != nil {
		owner = method.Owner.String()
	}
	if targetType != nil {
		target = typeName(targetType)
	}
	if args == nil {
		args = []interface{}{}
	}
	return map[string]interface{}{
		"method": method.Name,
		"name":   method.String(),
		"owner":  owner,
		"target": target,
		"args":   args,
	}
}
