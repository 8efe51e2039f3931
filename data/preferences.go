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
	"github.com/spf13/viper"
)

// CurrencyPreference returns the user's preferred settlement currency, falling
// back to the deployment default when the user never set one
func (s *Store) CurrencyPreference(ctx context.Context) (string, error) {
	trx, err := s.trx(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction to query currency preference")
		return "", err
	}

	var currency string
	sql := `SELECT currency FROM currency_preferences WHERE user_id=$1`
	err = trx.QueryRow(ctx, sql, s.userID).Scan(&currency)
	switch {
	case err == pgx.ErrNoRows:
		currency = viper.GetString("server.default_currency")
		if currency == "" {
			currency = "EUR"
		}
	case err != nil:
		log.Error().Stack().Err(err).Str("Query", sql).Msg("could not query currency preference")
		rollback(ctx, trx)
		return "", err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return currency, nil
}

// SetCurrencyPreference stores the user's preferred settlement currency
func (s *Store) SetCurrencyPreference(ctx context.Context, currency string) error {
	subLog := log.With().Str("Currency", currency).Logger()

	trx, err := s.trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction to set currency preference")
		return err
	}

	sql := `INSERT INTO currency_preferences (user_id, currency) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET currency=EXCLUDED.currency`
	if _, err := trx.Exec(ctx, sql, s.userID, currency); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not set currency preference")
		rollback(ctx, trx)
		return err
	}

	return trx.Commit(ctx)
}
