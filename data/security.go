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
)

const securityCols = `isin, name, ticker, exchange, currency, security_type, expense_ratio`

// Securities returns the full security catalog ordered by ISIN
func (s *Store) Securities(ctx context.Context) ([]*Security, error) {
	return s.querySecurities(ctx, "SELECT "+securityCols+" FROM securities ORDER BY isin")
}

// SecuritiesByISIN returns the securities for the requested ISINs; unknown
// ISINs are simply absent from the result map
func (s *Store) SecuritiesByISIN(ctx context.Context, isins []string) (map[string]*Security, error) {
	securities, err := s.querySecurities(ctx,
		"SELECT "+securityCols+" FROM securities WHERE isin = any($1) ORDER BY isin", isins)
	if err != nil {
		return nil, err
	}

	byISIN := make(map[string]*Security, len(securities))
	for _, security := range securities {
		byISIN[security.ISIN] = security
	}
	return byISIN, nil
}

// SecuritiesByClass returns all securities of the given asset class ordered by
// ISIN; the stable order is what makes planner candidate selection deterministic
func (s *Store) SecuritiesByClass(ctx context.Context, class AssetClass) ([]*Security, error) {
	return s.querySecurities(ctx,
		"SELECT "+securityCols+" FROM securities WHERE security_type=$1 ORDER BY isin", string(class))
}

// UpsertSecurity creates or replaces a security's reference data
func (s *Store) UpsertSecurity(ctx context.Context, security *Security) error {
	subLog := log.With().Str("ISIN", security.ISIN).Logger()

	if !security.Class.Valid() {
		return ErrUnknownBucket
	}

	trx, err := s.trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction to upsert security")
		return err
	}

	sql := `INSERT INTO securities (isin, name, ticker, exchange, currency, security_type, expense_ratio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (isin) DO UPDATE SET
			name=EXCLUDED.name, ticker=EXCLUDED.ticker, exchange=EXCLUDED.exchange,
			currency=EXCLUDED.currency, security_type=EXCLUDED.security_type,
			expense_ratio=EXCLUDED.expense_ratio`
	_, err = trx.Exec(ctx, sql, security.ISIN, security.Name, security.Ticker,
		security.Exchange, security.Currency, string(security.Class), security.ExpenseRatio)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not upsert security")
		rollback(ctx, trx)
		return err
	}

	return trx.Commit(ctx)
}

func (s *Store) querySecurities(ctx context.Context, sql string, args ...interface{}) ([]*Security, error) {
	trx, err := s.trx(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction to query securities")
		return nil, err
	}

	rows, err := trx.Query(ctx, sql, args...)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("could not query securities")
		rollback(ctx, trx)
		return nil, err
	}

	securities := make([]*Security, 0, 32)
	for rows.Next() {
		var security Security
		var class string
		err := rows.Scan(&security.ISIN, &security.Name, &security.Ticker,
			&security.Exchange, &security.Currency, &class, &security.ExpenseRatio)
		if err != nil {
			log.Error().Stack().Err(err).Msg("could not scan security row")
			rollback(ctx, trx)
			return nil, err
		}
		security.Class = AssetClass(class)
		securities = append(securities, &security)
	}

	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Msg("security query read failed")
		rollback(ctx, trx)
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return securities, nil
}
