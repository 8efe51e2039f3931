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

package data

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/database"
)

// Store provides access to the ledger's reference and portfolio data. All
// queries run in a per-user transaction so row-level security applies.
type Store struct {
	userID string
}

func NewStore(userID string) *Store {
	return &Store{userID: userID}
}

// UserID returns the user this store reads and writes on behalf of
func (s *Store) UserID() string {
	return s.userID
}

func (s *Store) trx(ctx context.Context) (pgx.Tx, error) {
	return database.TrxForUser(ctx, s.userID)
}

func rollback(ctx context.Context, trx pgx.Tx) {
	if err := trx.Rollback(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("could not rollback transaction")
	}
}

// scanDecimal parses a numeric column selected with a ::text cast
func scanDecimal(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
