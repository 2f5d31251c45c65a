// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb provides an in-memory database/sql driver serving
// canned rows, and recording the queries it received.
package fakedb // import "github.com/go-lpc/jesd/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
)

var query struct {
	mu   sync.Mutex
	rows Rows
	log  []Query
}

// Query is a query received by the driver.
type Query struct {
	SQL  string
	Args []driver.Value
}

// Run runs f with the driver serving rows to every query.
// Run returns the queries issued while f was running.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) ([]Query, error) {
	query.mu.Lock()
	defer query.mu.Unlock()
	query.rows = rows
	query.log = nil

	err := f(ctx)
	return query.log, err
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

type Conn struct{}

// Prepare returns a prepared statement, bound to this connection.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{query: query}, nil
}

func (c *Conn) Close() error {
	return nil
}

// Begin starts and returns a new transaction.
func (c *Conn) Begin() (driver.Tx, error) {
	panic("not implemented")
}

// Ping implements driver.Pinger.
func (c *Conn) Ping(ctx context.Context) error {
	return ctx.Err()
}

type Stmt struct {
	query string
}

func (stmt *Stmt) Close() error {
	return nil
}

// NumInput returns -1: the number of placeholders is not checked.
func (stmt *Stmt) NumInput() int {
	return -1
}

func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	panic("not implemented")
}

func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	query.log = append(query.log, Query{SQL: stmt.query, Args: args})
	return &query.rows, nil
}

func (stmt *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vs := make([]driver.Value, len(args))
	for i, arg := range args {
		vs[i] = arg.Value
	}
	return stmt.Query(vs)
}

// Rows is a canned result set.
// Err, when set, is returned once all the values have been consumed.
type Rows struct {
	Names  []string
	Values [][]driver.Value
	Err    error
}

func (rows *Rows) Columns() []string {
	return rows.Names
}

func (rows *Rows) Close() error {
	return nil
}

// Next populates dest with the next row of values.
func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		if rows.Err != nil {
			return rows.Err
		}
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver           = (*Driver)(nil)
	_ driver.Conn             = (*Conn)(nil)
	_ driver.Pinger           = (*Conn)(nil)
	_ driver.Stmt             = (*Stmt)(nil)
	_ driver.StmtQueryContext = (*Stmt)(nil)
	_ driver.Rows             = (*Rows)(nil)
)
