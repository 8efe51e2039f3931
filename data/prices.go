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
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// LatestPricesByTicker returns the most recent stored price per ticker.
// Tickers with no price history are absent from the result map; callers must
// treat a missing key as "price unknown", never as zero.
func (s *Store) LatestPricesByTicker(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	trx, err := s.trx(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction to query prices")
		return nil, err
	}

	sql := `SELECT DISTINCT ON (ticker) ticker, price::text FROM security_prices
		WHERE ticker = any($1) AND event_date <= now()
		ORDER BY ticker, event_date DESC`
	rows, err := trx.Query(ctx, sql, tickers)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("could not query security prices")
		rollback(ctx, trx)
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(tickers))
	for rows.Next() {
		var ticker, raw string
		if err := rows.Scan(&ticker, &raw); err != nil {
			log.Error().Stack().Err(err).Msg("could not scan price row")
			rollback(ctx, trx)
			return nil, err
		}
		price, err := scanDecimal(raw)
		if err != nil {
			log.Error().Stack().Err(err).Str("Ticker", ticker).Str("Raw", raw).Msg("could not parse price")
			rollback(ctx, trx)
			return nil, err
		}
		prices[ticker] = price
	}

	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Msg("price query read failed")
		rollback(ctx, trx)
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return prices, nil
}

// LatestRate returns the most recent stored exchange rate for a currency pair
// such as "USDEUR". Returns ErrRateNotFound when the pair has no history.
func (s *Store) LatestRate(ctx context.Context, pair string) (decimal.Decimal, error) {
	trx, err := s.trx(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction to query fx rate")
		return decimal.Zero, err
	}

	sql := `SELECT rate::text FROM currency_pair_prices WHERE pair=$1 ORDER BY event_date DESC LIMIT 1`
	var raw string
	if err := trx.QueryRow(ctx, sql, pair).Scan(&raw); err != nil {
		rollback(ctx, trx)
		return decimal.Zero, ErrRateNotFound
	}

	rate, err := scanDecimal(raw)
	if err != nil {
		log.Error().Stack().Err(err).Str("Pair", pair).Str("Raw", raw).Msg("could not parse rate")
		rollback(ctx, trx)
		return decimal.Zero, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return rate, nil
}

// UpsertSecurityPrice stores one observation in the security price series
func (s *Store) UpsertSecurityPrice(ctx context.Context, ticker string, date time.Time, price decimal.Decimal) error {
	sql := `INSERT INTO security_prices (ticker, event_date, price) VALUES ($1, $2, $3)
		ON CONFLICT (ticker, event_date) DO UPDATE SET price=EXCLUDED.price`
	return s.execPrice(ctx, sql, ticker, date, price)
}

// UpsertCurrencyRate stores one observation in the currency pair series
func (s *Store) UpsertCurrencyRate(ctx context.Context, pair string, date time.Time, rate decimal.Decimal) error {
	sql := `INSERT INTO currency_pair_prices (pair, event_date, rate) VALUES ($1, $2, $3)
		ON CONFLICT (pair, event_date) DO UPDATE SET rate=EXCLUDED.rate`
	return s.execPrice(ctx, sql, pair, date, rate)
}

func (s *Store) execPrice(ctx context.Context, sql string, key string, date time.Time, value decimal.Decimal) error {
	subLog := log.With().Str("Key", key).Time("Date", date).Logger()

	trx, err := s.trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction to store price")
		return err
	}

	if _, err := trx.Exec(ctx, sql, key, date, value.String()); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not store price observation")
		rollback(ctx, trx)
		return err
	}

	return trx.Commit(ctx)
}
