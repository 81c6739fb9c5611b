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

package aop

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/engine"
	"github.com/rulego/aop/test"
	"github.com/rulego/aop/test/assert"
)

var ctx = context.Background()

var personDef = `
{
  "name": "loaded-person",
  "flags": {"exposeProxy": true},
  "advisors": [
    {"type": "test/recording", "configuration": {"name": "setters"}, "methods": ["Set*"]},
    {"type": "test/recording", "configuration": {"name": "adult"}, "methods": ["SetAge"], "expr": "args[0] >= 18"},
    {"type": "test/recording", "configuration": {"name": "getters"}, "patterns": ["\\.Get.*"], "excluded": ["GetAge$"], "order": 3}
  ]
}`

func TestLoad(t *testing.T) {
	registerRecording()
	recorder.Reset()
	employee := test.NewEmployee("lala", 18)
	named, err := Load(engine.NewConfig(), []byte(personDef), engine.WithTarget(employee), engine.WithInterfaces(test.PersonType))
	assert.Nil(t, err)
	defer Del("loaded-person")

	assert.True(t, named.Advised().IsExposeProxy())
	advisors := named.Advised().GetAdvisors()
	assert.Equal(t, 3, len(advisors))
	assert.Equal(t, 7, advisors[0].Order())
	assert.Equal(t, 3, advisors[2].Order())

	p := named.Proxy()
	_, err = p.Invoke(ctx, "SetAge", 20)
	assert.Nil(t, err)
	assert.Equal(t, []string{"setters-before", "adult-before", "adult-after", "setters-after"}, recorder.Trace())

	recorder.Reset()
	_, err = p.Invoke(ctx, "SetAge", 10)
	assert.Nil(t, err)
	assert.Equal(t, []string{"setters-before", "setters-after"}, recorder.Trace())

	recorder.Reset()
	results, err := p.Invoke(ctx, "GetName")
	assert.Nil(t, err)
	assert.Equal(t, "lala", results[0])
	assert.Equal(t, []string{"getters-before", "getters-after"}, recorder.Trace())

	recorder.Reset()
	results, err = p.Invoke(ctx, "GetAge")
	assert.Nil(t, err)
	assert.Equal(t, 10, results[0])
	assert.Equal(t, 0, len(recorder.Trace()))

	found, ok := Get("loaded-person")
	assert.True(t, ok)
	assert.Equal(t, "loaded-person", found.Name())

	//同名代理直接返回
	again, err := Load(engine.NewConfig(), []byte(personDef), engine.WithTarget(employee), engine.WithInterfaces(test.PersonType))
	assert.Nil(t, err)
	assert.True(t, again == named)
}

func TestLoadErrors(t *testing.T) {
	registerRecording()
	_, err := Load(engine.NewConfig(), []byte("{"))
	assert.NotNil(t, err)

	_, err = Load(engine.NewConfig(), []byte(`{"name":"bad","advisors":[{"type":"notFound"}]}`))
	assert.True(t, errors.Is(err, types.ErrComponentNotFound))
	_, ok := Get("bad")
	assert.False(t, ok)

	//没有名称
	_, err = Load(engine.NewConfig(), []byte(`{"advisors":[{"type":"test/recording","configuration":{"name":"a"}}]}`),
		engine.WithTarget(test.NewEmployee("lala", 18)))
	assert.True(t, errors.Is(err, types.ErrMissingProperty))
}

func TestNewAdvisor(t *testing.T) {
	registerRecording()
	config := engine.NewConfig()

	_, err := NewAdvisor(config, AdvisorDef{})
	assert.True(t, errors.Is(err, types.ErrMissingProperty))

	_, err = NewAdvisor(config, AdvisorDef{Type: "test/recording", Configuration: types.Configuration{"name": "a"}, Patterns: []string{"("}})
	assert.NotNil(t, err)

	_, err = NewAdvisor(config, AdvisorDef{Type: "test/recording", Configuration: types.Configuration{"name": "a"}, Expr: "args["})
	assert.NotNil(t, err)

	a, err := NewAdvisor(config, AdvisorDef{Type: "debug"})
	assert.Nil(t, err)
	assert.Equal(t, 900, a.Order())

	//脚本匹配器
	recorder.Reset()
	defs, err := ParseAdvisorDefs([]byte(`[{"type":"test/recording","configuration":{"name":"js"},"script":"return method === 'Greet' && args[0] === 'hi';"}]`))
	assert.Nil(t, err)
	advisors, err := NewAdvisors(config, defs...)
	assert.Nil(t, err)
	p, err := engine.NewProxy(engine.WithConfig(config), engine.WithTarget(test.NewEmployee("lala", 18)),
		engine.WithInterfaces(test.PersonType), engine.WithAdvisors(advisors...))
	assert.Nil(t, err)

	results, err := p.Invoke(ctx, "Greet", "hi")
	assert.Nil(t, err)
	assert.Equal(t, "hi, lala", results[0])
	_, err = p.Invoke(ctx, "Greet", "hello")
	assert.Nil(t, err)
	_, err = p.Invoke(ctx, "GetName")
	assert.Nil(t, err)
	assert.Equal(t, []string{"js-before", "js-after"}, recorder.Trace())
}

func TestNewAdvisorsError(t *testing.T) {
	_, err := NewAdvisors(engine.NewConfig(), AdvisorDef{Type: "debug"}, AdvisorDef{Type: "notFound"})
	assert.True(t, errors.Is(err, types.ErrComponentNotFound))
	assert.True(t, strings.Contains(err.Error(), "advisors[1]"))
}

func TestLoadAdvisorDefFiles(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "1-debug.json"), []byte(`[{"type":"debug"}]`), 0600))
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "2-retry.json"), []byte(`[{"type":"retry","methods":["Set*"]},{"type":"timeout"}]`), 0600))
	defs, err := LoadAdvisorDefFiles(filepath.Join(dir, "*.json"))
	assert.Nil(t, err)
	assert.Equal(t, 3, len(defs))
	assert.Equal(t, "debug", defs[0].Type)
	assert.Equal(t, []string{"Set*"}, defs[1].Methods)
	assert.Equal(t, "timeout", defs[2].Type)

	assert.Nil(t, os.WriteFile(filepath.Join(dir, "3-bad.json"), []byte(`{`), 0600))
	_, err = LoadAdvisorDefFiles(filepath.Join(dir, "*.json"))
	assert.True(t, strings.Contains(err.Error(), "3-bad.json"))
}
