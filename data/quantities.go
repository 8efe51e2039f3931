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

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SecurityQuantities returns the currently held quantity per ISIN. The stored
// quantities are a materialized view of operation history; zero-quantity rows
// are excluded.
func (s *Store) SecurityQuantities(ctx context.Context) (map[string]decimal.Decimal, error) {
	trx, err := s.trx(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction to query quantities")
		return nil, err
	}

	sql := `SELECT isin, quantity::text FROM security_quantities WHERE user_id=$1 AND quantity <> 0 ORDER BY isin`
	rows, err := trx.Query(ctx, sql, s.userID)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("could not query security quantities")
		rollback(ctx, trx)
		return nil, err
	}

	quantities := make(map[string]decimal.Decimal)
	for rows.Next() {
		var isin, raw string
		if err := rows.Scan(&isin, &raw); err != nil {
			log.Error().Stack().Err(err).Msg("could not scan quantity row")
			rollback(ctx, trx)
			return nil, err
		}
		qty, err := scanDecimal(raw)
		if err != nil {
			log.Error().Stack().Err(err).Str("ISIN", isin).Str("Raw", raw).Msg("could not parse quantity")
			rollback(ctx, trx)
			return nil, err
		}
		quantities[isin] = qty
	}

	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Msg("quantity query read failed")
		rollback(ctx, trx)
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return quantities, nil
}
