// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mysql

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/homewired/pamauth/store"
	"github.com/homewired/pamauth/unittest"
)

// newTestMySQL returns a mysql context that has been setup for testing
// along with the sql mocking context and a cleanup function. Invocation of
// the cleanup function should be deferred by the caller.
func newTestMySQL(t *testing.T) (*mysql, sqlmock.Sqlmock, func()) {
	t.Helper()

	// sqlmock defaults to using the expected SQL string as a regular
	// expression to match incoming query strings. The QueryMatcherEqual
	// overrides this default behavior and does a full case sensitive
	// match.
	opts := sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual)
	db, mock, err := sqlmock.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	cleanup := func() {
		defer db.Close()
	}
	m := &mysql{
		db: db,
		opts: &Opts{
			TableName: defaultTableName,
			OpTimeout: defaultOpTimeout,
		},
	}

	return m, mock, cleanup
}

func TestGet(t *testing.T) {
	m, mock, cleanup := newTestMySQL(t)
	defer cleanup()

	// Setup the test data
	var (
		q = fmt.Sprintf("SELECT v FROM %v WHERE k = ?", m.opts.TableName)

		key   = "test-key"
		value = []byte("test-value")
	)

	// Test the not found error path
	mock.ExpectQuery(q).
		WithArgs(key).
		WillReturnError(sql.ErrNoRows)

	_, err := m.Get(key)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got err '%v', want '%v'", err, store.ErrNotFound)
	}

	// Test the unexpected error path
	unexpectedErr := errors.New("unexpected error")
	mock.ExpectQuery(q).
		WithArgs(key).
		WillReturnError(unexpectedErr)

	_, err = m.Get(key)
	if !errors.Is(err, unexpectedErr) {
		t.Errorf("got err '%v', want '%v'", err, unexpectedErr)
	}

	// Test the success path
	rows := sqlmock.NewRows([]string{"v"}).AddRow(value)
	mock.ExpectQuery(q).
		WithArgs(key).
		WillReturnRows(rows)

	b, err := m.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	diff := unittest.DeepEqual(b, value)
	if diff != "" {
		t.Error(diff)
	}
}

func TestPut(t *testing.T) {
	m, mock, cleanup := newTestMySQL(t)
	defer cleanup()

	// Setup the test data
	var (
		key   = "test-key"
		value = []byte("test-value")
	)

	q := `INSERT INTO %v (k, v) VALUES (?, ?)
    ON DUPLICATE KEY UPDATE
    v = VALUES(v)`

	q = fmt.Sprintf(q, m.opts.TableName)

	// Test the unexpected error path
	unexpectedErr := errors.New("unexpected error")
	mock.ExpectExec(q).
		WithArgs(key, value).
		WillReturnError(unexpectedErr)

	err := m.Put(key, value)
	if !errors.Is(err, unexpectedErr) {
		t.Errorf("got err '%v', want '%v'", err, unexpectedErr)
	}

	// Test the success path
	mock.ExpectExec(q).
		WithArgs(key, value).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = m.Put(key, value)
	if err != nil {
		t.Error(err)
	}
}

func TestDel(t *testing.T) {
	m, mock, cleanup := newTestMySQL(t)
	defer cleanup()

	// Setup the test data
	var (
		q = fmt.Sprintf("DELETE FROM %v WHERE k = ?", m.opts.TableName)

		key = "test-key"
	)

	// Test the unexpected error path
	unexpectedErr := errors.New("unexpected error")
	mock.ExpectExec(q).
		WithArgs(key).
		WillReturnError(unexpectedErr)

	err := m.Del(key)
	if !errors.Is(err, unexpectedErr) {
		t.Errorf("got err '%v', want '%v'", err, unexpectedErr)
	}

	// Test the success path
	mock.ExpectExec(q).
		WithArgs(key).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = m.Del(key)
	if err != nil {
		t.Error(err)
	}
}

func TestKeys(t *testing.T) {
	m, mock, cleanup := newTestMySQL(t)
	defer cleanup()

	q := fmt.Sprintf("SELECT k FROM %v ORDER BY k", m.opts.TableName)

	rows := sqlmock.NewRows([]string{"k"}).
		AddRow("key-1").
		AddRow("key-2")
	mock.ExpectQuery(q).
		WillReturnRows(rows)

	keys, err := m.Keys()
	if err != nil {
		t.Fatal(err)
	}
	diff := unittest.DeepEqual(keys, []string{"key-1", "key-2"})
	if diff != "" {
		t.Error(diff)
	}
}
