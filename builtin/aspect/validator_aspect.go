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

package aspect

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/maps"
)

var _ types.Component = (*Validator)(nil)

// Validator validates the arguments of an invocation before it proceeds:
//   - struct arguments, or pointers to structs, are validated with their
//     `validate` tags
//   - Args lists validation tags per method and argument position
//   - the rules registered in Rules run last
//
// The first failure is returned; the target is not called.
// Validator 参数校验拦截器，校验失败时不调用目标方法
//
// Usage:
// 使用方法：
//
//	v := &aspect.Validator{Args: map[string][]string{"SetAge": {"gte=0,lte=150"}}}
//
//	// 添加自定义校验规则
//	aspect.Rules.AddRule(func(method *types.Method, args []interface{}) error {
//		return nil
//	})
type Validator struct {
	// Args 方法参数校验规则，key：方法名，value：按参数位置的校验标签，空字符串不校验
	Args map[string][]string `json:"args"`

	once     sync.Once
	validate *validator.Validate
}

func (aspect *Validator) Order() int {
	return 10
}

func (aspect *Validator) New() types.Component {
	return &Validator{Args: aspect.Args}
}

func (aspect *Validator) Type() string {
	return "validator"
}

func (aspect *Validator) Init(config types.Config, configuration types.Configuration) error {
	return maps.Map2Struct(configuration, aspect)
}

func (aspect *Validator) Invoke(mi types.MethodInvocation) ([]interface{}, error) {
	if err := aspect.Validate(mi.Method(), mi.Arguments()); err != nil {
		return nil, err
	}
	return mi.Proceed()
}

// Validate checks the arguments of a call of method.
func (aspect *Validator) Validate(method *types.Method, args []interface{}) error {
	aspect.once.Do(func() {
		aspect.validate = validator.New()
	})
	tags := aspect.Args[method.Name]
	for i, arg := range args {
		if i < len(tags) && tags[i] != "" {
			if err := aspect.validate.Var(arg, tags[i]); err != nil {
				return errors.Wrapf(err, "%s argument %d", method, i)
			}
		}
		if isStruct(arg) {
			if err := aspect.validate.Struct(arg); err != nil {
				return errors.Wrapf(err, "%s argument %d", method, i)
			}
		}
	}
	for _, rule := range Rules.Rules() {
		if err := rule(method, args); err != nil {
			return err
		}
	}
	return nil
}

func isStruct(v interface{}) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	return rv.Kind() == reflect.Struct
}

// Rules are the custom argument validation rules applied by every Validator.
// Rules 自定义校验规则，所有 Validator 都会执行
var Rules = NewRules()

// Rule validates the arguments of a call.
type Rule func(method *types.Method, args []interface{}) error

type rules struct {
	rules []Rule
	sync.RWMutex
}

func NewRules() *rules {
	return &rules{}
}

// AddRule 添加校验规则
func (r *rules) AddRule(fn ...Rule) {
	r.Lock()
	defer r.Unlock()
	r.rules = append(r.rules, fn...)
}

// Rules 返回所有校验规则
func (r *rules) Rules() []Rule {
	r.RLock()
	defer r.RUnlock()
	return append([]Rule(nil), r.rules...)
}

// Reset 清除所有校验规则
func (r *rules) Reset() {
	r.Lock()
	defer r.Unlock()
	r.rules = nil
}
