// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb gives access to the configuration database holding the
// named JESD204B link descriptions and their clock plans.
package conddb // import "github.com/go-lpc/jesd/conddb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const (
	host = "localhost"
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to easily retrieve link configurations
// from the configuration database.
type DB struct {
	db   *sql.DB
	name string // name of the configuration database
}

// Open opens a connection to the configuration database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// LastLink returns the name of the most recently registered link.
func (db *DB) LastLink(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	name := ""
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT name FROM jesd_links ORDER BY datetime DESC LIMIT 1",
	)
	if err != nil {
		return name, fmt.Errorf("conddb: could not query last link: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&name)
		if err != nil {
			return name, fmt.Errorf("conddb: could not get last link value: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return name, fmt.Errorf("conddb: could not scan db for last link: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return name, fmt.Errorf("conddb: context error while retrieving last link: %w", err)
	}

	if name == "" {
		return name, fmt.Errorf("conddb: no link registered: %w", sql.ErrNoRows)
	}

	return name, nil
}

// Link returns the most recent description of the named link.
func (db *DB) Link(ctx context.Context, name string) (Link, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		lnk Link
		n   = 0
	)
	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT name, did, bid, l, m, n, np, subclassv, f, s, k, cs, hd, scr
FROM jesd_links
WHERE name=?
ORDER BY datetime DESC LIMIT 1
`,
		name,
	)
	if err != nil {
		return lnk, fmt.Errorf("conddb: could not run link %q query: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(
			&lnk.Name, &lnk.DID, &lnk.BID,
			&lnk.L, &lnk.M, &lnk.N, &lnk.NP, &lnk.SubclassV,
			&lnk.F, &lnk.S, &lnk.K, &lnk.CS,
			&lnk.HD, &lnk.SCR,
		)
		if err != nil {
			return lnk, fmt.Errorf("conddb: could not scan link %q: %w", name, err)
		}
		n++
	}

	if err := rows.Err(); err != nil {
		return lnk, fmt.Errorf("conddb: could not scan db for link %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return lnk, fmt.Errorf("conddb: context error while retrieving link %q: %w", name, err)
	}

	if n == 0 {
		return lnk, fmt.Errorf("conddb: no link %q: %w", name, sql.ErrNoRows)
	}

	return lnk, nil
}

// LinkSettings returns the validated settings of the named link.
func (db *DB) LinkSettings(ctx context.Context, name string) (Settings, error) {
	lnk, err := db.Link(ctx, name)
	if err != nil {
		return Settings{}, err
	}

	set, err := lnk.Settings()
	if err != nil {
		return set, fmt.Errorf("conddb: invalid link %q: %w", name, err)
	}
	return set, nil
}

// ClockPlan returns the clock plan of the named link.
func (db *DB) ClockPlan(ctx context.Context, name string) (ClockPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		plan ClockPlan
		n    = 0
	)
	rows, err := db.db.QueryContext(
		ctx,
		`
SELECT jesd_clocks.refclk, jesd_clocks.linerate FROM jesd_clocks
JOIN jesd_links ON jesd_links.identifier=jesd_clocks.link
WHERE jesd_links.name=?
ORDER BY jesd_clocks.datetime DESC LIMIT 1
`,
		name,
	)
	if err != nil {
		return plan, fmt.Errorf("conddb: could not run clock plan query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		err = rows.Scan(&plan.RefClk, &plan.LineRate)
		if err != nil {
			return plan, fmt.Errorf("conddb: could not scan clock plan: %w", err)
		}
		n++
	}

	if err := rows.Err(); err != nil {
		return plan, fmt.Errorf("conddb: could not scan db for clock plan: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return plan, fmt.Errorf("conddb: context error while retrieving clock plan: %w", err)
	}

	if n == 0 {
		return plan, fmt.Errorf("conddb: no clock plan for link %q: %w", name, sql.ErrNoRows)
	}
	plan.Link = name

	return plan, nil
}
