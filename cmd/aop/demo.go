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
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rulego/aop/builtin/aspect"
)

// Greeter is the demo service proxied by serve.
type Greeter interface {
	Greet(ctx context.Context, name string) (string, error)
	Count() int64
}

type greeter struct {
	count int64
}

func (g *greeter) Greet(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.New("name is empty")
	}
	atomic.AddInt64(&g.count, 1)
	return fmt.Sprintf("hello, %s", name), nil
}

func (g *greeter) Count() int64 {
	return atomic.LoadInt64(&g.count)
}

// Ledger moves amounts between accounts. Every call runs in the transaction
// opened by the transaction interceptor.
type Ledger interface {
	Transfer(ctx context.Context, from, to string, amount int64) error
}

type ledger struct {
	// postgres 使用 $n 占位符
	postgres bool
}

var errNoTx = errors.New("ledger must be called through its proxy")

func (l *ledger) Transfer(ctx context.Context, from, to string, amount int64) error {
	tx, ok := aspect.TxFromContext(ctx)
	if !ok {
		return errNoTx
	}
	update := "UPDATE account SET balance = balance + ? WHERE id = ?"
	if l.postgres {
		update = "UPDATE account SET balance = balance + $1 WHERE id = $2"
	}
	if _, err := tx.ExecContext(ctx, update, -amount, from); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, update, amount, to)
	return err
}
