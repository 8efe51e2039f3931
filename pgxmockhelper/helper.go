// Copyright 2023-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pgxmockhelper wraps the repeated expectation sequences the data
// layer produces. Every store call runs Begin, SET ROLE, one or more
// statements, then Commit; these helpers register that envelope so tests only
// describe the statement in the middle.
package pgxmockhelper

import (
	"github.com/jackc/pgconn"
	"github.com/pashagolub/pgxmock"
)

// SecurityColumns matches the select list used by the securities queries
var SecurityColumns = []string{"isin", "name", "ticker", "exchange", "currency", "security_type", "expense_ratio"}

// ExpectBeginAsUser registers the role-switching transaction prologue
func ExpectBeginAsUser(mock pgxmock.PgxConnIface) {
	mock.ExpectBegin()
	mock.ExpectExec("SET ROLE").WillReturnResult(pgconn.CommandTag("SET ROLE"))
}

// MockQuery expects one committed read-only query inside a user transaction.
// The sql argument is a regular expression fragment matched against the
// executed statement.
func MockQuery(mock pgxmock.PgxConnIface, sql string, rows *pgxmock.Rows) {
	ExpectBeginAsUser(mock)
	mock.ExpectQuery(sql).WillReturnRows(rows)
	mock.ExpectCommit()
}

// MockExec expects one committed statement inside a user transaction
func MockExec(mock pgxmock.PgxConnIface, sql string, tag string) {
	ExpectBeginAsUser(mock)
	mock.ExpectExec(sql).WillReturnResult(pgxmock.NewResult(tag, 1))
	mock.ExpectCommit()
}

// Rows builds a pgxmock result set from a column list and row values
func Rows(columns []string, rows ...[]interface{}) *pgxmock.Rows {
	result := pgxmock.NewRows(columns)
	for _, row := range rows {
		result.AddRow(row...)
	}
	return result
}
