// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/homewired/pamauth/store"
	"github.com/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
)

// kvTable defines the key-value table.
//
// The k column is sized for usernames, which this plugin uses as store
// keys. The v column holds the JSON encoded user record.
const kvTable = `
  k VARCHAR(255) NOT NULL PRIMARY KEY,
  v LONGBLOB NOT NULL
`

var (
	_ store.KV = (*mysql)(nil)
)

// mysql implements the store KV interface using a mysql driver.
type mysql struct {
	db   *sql.DB
	opts *Opts
}

// Opts contains configurable options for the mysql store. These are not
// required. Sane defaults are used when the options are not provided.
type Opts struct {
	// TableName is the table name for the key-value table.
	TableName string

	// OpTimeout is the timeout for a single database operation.
	OpTimeout time.Duration
}

const (
	// defaultTableName is the default table name for the key-value table.
	defaultTableName = "pamauth_kv"

	// defaultOpTimeout is the default timeout for a single database
	// operation.
	defaultOpTimeout = 1 * time.Minute
)

// New returns a new mysql store. The key-value table is created if it does
// not already exist. The opts param can be used to override the defaults.
func New(db *sql.DB, opts *Opts) (*mysql, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if opts.TableName == "" {
		opts.TableName = defaultTableName
	}
	if opts.OpTimeout == 0 {
		opts.OpTimeout = defaultOpTimeout
	}

	m := mysql{
		db:   db,
		opts: opts,
	}
	err := m.createTable()
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// Get returns the value for a key.
//
// This function satisfies the store KV interface.
func (m *mysql) Get(key string) ([]byte, error) {
	log.Tracef("Get: %v", key)

	ctx, cancel := m.ctxForOp()
	defer cancel()

	q := fmt.Sprintf("SELECT v FROM %v WHERE k = ?", m.opts.TableName)

	var value []byte
	err := m.db.QueryRowContext(ctx, q, key).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return nil, store.ErrNotFound
	case err != nil:
		return nil, errors.WithStack(err)
	}

	return value, nil
}

// Put saves a key-value pair to the store.
//
// This function satisfies the store KV interface.
func (m *mysql) Put(key string, value []byte) error {
	log.Tracef("Put: %v", key)

	ctx, cancel := m.ctxForOp()
	defer cancel()

	q := `INSERT INTO %v (k, v) VALUES (?, ?)
    ON DUPLICATE KEY UPDATE
    v = VALUES(v)`

	q = fmt.Sprintf(q, m.opts.TableName)
	_, err := m.db.ExecContext(ctx, q, key, value)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Del deletes a key from the store. An error is not returned if the key
// does not exist.
//
// This function satisfies the store KV interface.
func (m *mysql) Del(key string) error {
	log.Tracef("Del: %v", key)

	ctx, cancel := m.ctxForOp()
	defer cancel()

	q := fmt.Sprintf("DELETE FROM %v WHERE k = ?", m.opts.TableName)
	_, err := m.db.ExecContext(ctx, q, key)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Keys returns all keys in the store in primary key order.
//
// This function satisfies the store KV interface.
func (m *mysql) Keys() ([]string, error) {
	log.Tracef("Keys")

	ctx, cancel := m.ctxForOp()
	defer cancel()

	q := fmt.Sprintf("SELECT k FROM %v ORDER BY k", m.opts.TableName)
	rows, err := m.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	keys := make([]string, 0, 64)
	for rows.Next() {
		var k string
		err = rows.Scan(&k)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		keys = append(keys, k)
	}
	err = rows.Err()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return keys, nil
}

// Close closes the database connection.
//
// This function satisfies the store KV interface.
func (m *mysql) Close() error {
	log.Tracef("Close")

	return m.db.Close()
}

// createTable creates the key-value table.
func (m *mysql) createTable() error {
	ctx, cancel := m.ctxForOp()
	defer cancel()

	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %v (%v)",
		m.opts.TableName, kvTable)
	_, err := m.db.ExecContext(ctx, q)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Debugf("Created %v database table", m.opts.TableName)

	return nil
}

// ctxForOp returns a context and cancel function for a single database
// operation.
func (m *mysql) ctxForOp() (context.Context, func()) {
	return context.WithTimeout(context.Background(), m.opts.OpTimeout)
}
