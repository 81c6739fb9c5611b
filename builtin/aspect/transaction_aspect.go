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
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rulego/aop/api/types"
	"github.com/rulego/aop/utils/maps"
)

var (
	_ types.Component  = (*Transaction)(nil)
	_ types.Disposable = (*Transaction)(nil)
)

type txKey struct{}

// WithTx returns a context carrying tx.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction started by the Transaction interceptor.
// Targets whose methods take a context.Context run their statements on it:
//
//	func (s *accountService) Transfer(ctx context.Context, from, to string, amount int) error {
//		tx, _ := aspect.TxFromContext(ctx)
//		_, err := tx.ExecContext(ctx, "UPDATE account SET balance=balance-? WHERE id=?", amount, from)
//		...
//	}
func TxFromContext(ctx context.Context) (*sql.Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// Transaction runs an invocation in a database transaction: it begins a
// transaction, carries it on the invocation context, and commits when the
// invocation returns without error. Errors and panics roll it back. Nested
// calls join the transaction already on the context.
//
// Transaction 事务拦截器，调用返回错误或者 panic 时回滚，否则提交。嵌套调用加入已存在的事务。
type Transaction struct {
	// DriverName 数据库驱动，例如 mysql、postgres，通过配置创建时使用
	DriverName string `json:"driverName"`
	// Dsn 数据源
	Dsn string `json:"dsn"`
	// ReadOnly 只读事务
	ReadOnly bool `json:"readOnly"`
	// Isolation 隔离级别，例如 "Read Committed"，为空使用驱动默认级别
	Isolation string `json:"isolation"`

	db *sql.DB
	// ownDb db 由拦截器打开，销毁时关闭
	ownDb bool
}

// NewTransaction creates an interceptor starting transactions on db.
func NewTransaction(db *sql.DB) *Transaction {
	return &Transaction{db: db}
}

func (a *Transaction) Order() int {
	return 40
}

func (a *Transaction) New() types.Component {
	return &Transaction{DriverName: a.DriverName, Dsn: a.Dsn, ReadOnly: a.ReadOnly, Isolation: a.Isolation, db: a.db}
}

func (a *Transaction) Type() string {
	return "transaction"
}

// Init decodes the configuration and opens the database unless one was given.
func (a *Transaction) Init(config types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, a); err != nil {
		return err
	}
	if _, err := a.isolationLevel(); err != nil {
		return err
	}
	if a.db != nil {
		return nil
	}
	if a.DriverName == "" || a.Dsn == "" {
		return errors.Wrap(types.ErrMissingProperty, "transaction interceptor requires driverName and dsn")
	}
	db, err := sql.Open(a.DriverName, a.Dsn)
	if err != nil {
		return errors.Wrapf(err, "open %s database", a.DriverName)
	}
	a.db, a.ownDb = db, true
	return nil
}

func (a *Transaction) Invoke(mi types.MethodInvocation) (results []interface{}, err error) {
	ctx := mi.Context()
	if _, ok := TxFromContext(ctx); ok {
		return mi.Proceed()
	}
	if a.db == nil {
		return nil, errors.Wrap(types.ErrMissingProperty, "transaction interceptor has no database")
	}
	level, err := a.isolationLevel()
	if err != nil {
		return nil, err
	}
	tx, err := a.db.BeginTx(ctx, &sql.TxOptions{Isolation: level, ReadOnly: a.ReadOnly})
	if err != nil {
		return nil, err
	}
	mi.SetContext(WithTx(ctx, tx))
	defer func() {
		if e := recover(); e != nil {
			_ = tx.Rollback()
			panic(e)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
		if err != nil {
			results = nil
		}
	}()
	return mi.Proceed()
}

// DB returns the database of the interceptor.
func (a *Transaction) DB() *sql.DB {
	return a.db
}

// Destroy closes the database if it was opened by Init.
func (a *Transaction) Destroy() error {
	if a.ownDb && a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Transaction) isolationLevel() (sql.IsolationLevel, error) {
	if a.Isolation == "" {
		return sql.LevelDefault, nil
	}
	for level := sql.LevelDefault; level <= sql.LevelLinearizable; level++ {
		if level.String() == a.Isolation {
			return level, nil
		}
	}
	return sql.LevelDefault, errors.Wrap(types.ErrMissingProperty, fmt.Sprintf("unknown isolation level %q", a.Isolation))
}
