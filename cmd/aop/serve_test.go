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

package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rulego/aop"
	"github.com/rulego/aop/test/assert"
)

var ctx = context.Background()

func TestServeGreeter(t *testing.T) {
	a, err := newApp(&serveOptions{addr: "127.0.0.1:0", workers: 2, logLevel: "warn"})
	assert.Nil(t, err)
	defer a.close()

	named, ok := aop.Get("greeter")
	assert.True(t, ok)
	assert.True(t, named.Advised().IsExposeProxy())
	p := named.Proxy()

	results, err := p.Invoke(ctx, "Greet", "bob")
	assert.Nil(t, err)
	assert.Equal(t, "hello, bob", results[0])

	//validator 拦截
	_, err = p.Invoke(ctx, "Greet", "")
	assert.NotNil(t, err)
	results, err = p.Invoke(ctx, "Count")
	assert.Nil(t, err)
	assert.Equal(t, int64(1), results[0])

	families, err := a.registry.Gather()
	assert.Nil(t, err)
	var found bool
	for _, family := range families {
		if family.GetName() == "aop_invocations_total" {
			found = true
		}
	}
	assert.True(t, found)

	assert.Nil(t, a.console.Start())
	resp, err := http.Get("http://" + a.console.Addr().String() + "/api/v1/proxies/greeter")
	assert.Nil(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeDefFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "greeter.json")
	assert.Nil(t, os.WriteFile(file, []byte(`{"name":"hello","advisors":[{"type":"debug"}]}`), 0600))
	assert.Nil(t, os.MkdirAll(filepath.Join(dir, "advisors"), 0755))
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "advisors", "retry.json"), []byte(`[{"type":"retry"}]`), 0600))
	a, err := newApp(&serveOptions{addr: "127.0.0.1:0", workers: 2, defFile: file, advisorFiles: filepath.Join(dir, "advisors", "*.json")})
	assert.Nil(t, err)
	defer a.close()
	named, ok := aop.Get("hello")
	assert.True(t, ok)
	//debug, retry, metrics, trace
	advisors := named.Advised().GetAdvisors()
	assert.Equal(t, 4, len(advisors))
	assert.Equal(t, 900, advisors[0].Order())
	assert.Equal(t, 30, advisors[1].Order())

	_, err = newApp(&serveOptions{addr: "127.0.0.1:0", workers: 2, defFile: file + ".missing"})
	assert.NotNil(t, err)
	_, err = newApp(&serveOptions{addr: "127.0.0.1:0", workers: 2, logLevel: "loud"})
	assert.NotNil(t, err)
}

func TestServeLedger(t *testing.T) {
	db, mock, err := sqlmock.NewWithDSN("aop_ledger_dsn")
	assert.Nil(t, err)
	defer db.Close()

	a, err := newApp(&serveOptions{addr: "127.0.0.1:0", workers: 2, dbDriver: "sqlmock", dsn: "aop_ledger_dsn"})
	assert.Nil(t, err)
	defer a.close()

	named, ok := aop.Get("ledger")
	assert.True(t, ok)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE account").WithArgs(int64(-10), "a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE account").WithArgs(int64(10), "b").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	_, err = named.Proxy().Invoke(ctx, "Transfer", "a", "b", int64(10))
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())

	//不经过代理没有事务
	assert.True(t, (&ledger{}).Transfer(ctx, "a", "b", 1) == errNoTx)
}

func TestCommands(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"components"})
	assert.Nil(t, rootCmd.Execute())
	assert.True(t, strings.Contains(out.String(), "transaction\n"))

	out.Reset()
	rootCmd.SetArgs([]string{"version"})
	assert.Nil(t, rootCmd.Execute())
	assert.Equal(t, "aop v"+version+"\n", out.String())
}
