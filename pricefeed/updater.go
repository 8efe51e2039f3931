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

package pricefeed

import (
	"context"
	"time"

	"github.com/copperbook/cb-api/data"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Store persists fetched observations and supplies the refresh universe.
type Store interface {
	Securities(ctx context.Context) ([]*data.Security, error)
	CurrencyPreference(ctx context.Context) (string, error)
	UpsertSecurityPrice(ctx context.Context, ticker string, date time.Time, price decimal.Decimal) error
	UpsertCurrencyRate(ctx context.Context, pair string, date time.Time, rate decimal.Decimal) error
}

// Updater refreshes stored prices for every known security and the exchange
// rates needed to settle them in the preferred currency.
type Updater struct {
	provider Provider
	store    Store
	lookback time.Duration
}

// NewUpdater builds an updater that requests quotes covering the given
// lookback window.
func NewUpdater(provider Provider, store Store, lookback time.Duration) *Updater {
	return &Updater{
		provider: provider,
		store:    store,
		lookback: lookback,
	}
}

// Refresh fetches and stores quotes for every security ticker, then exchange
// rates for every currency that differs from the preferred settlement
// currency. Failures on individual symbols are logged and skipped so one bad
// ticker does not abort the whole run.
func (u *Updater) Refresh(ctx context.Context) error {
	securities, err := u.store.Securities(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not load securities for price refresh")
		return err
	}

	preferred, err := u.store.CurrencyPreference(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not load currency preference for price refresh")
		return err
	}

	since := time.Now().Add(-u.lookback)
	pairs := make(map[string]bool)
	for _, security := range securities {
		u.refreshSecurity(ctx, security, since)
		if security.Currency != "" && security.Currency != preferred {
			pairs[security.Currency+preferred] = true
		}
	}

	for pair := range pairs {
		u.refreshRate(ctx, pair)
	}

	log.Info().Int("NumSecurities", len(securities)).Int("NumPairs", len(pairs)).Msg("price refresh complete")
	return nil
}

func (u *Updater) refreshSecurity(ctx context.Context, security *data.Security, since time.Time) {
	subLog := log.With().Str("ISIN", security.ISIN).Str("Ticker", security.Ticker).Logger()
	quotes, err := u.provider.Quotes(ctx, security.Ticker, since)
	if err != nil {
		subLog.Warn().Err(err).Msg("skipping security with failed quote fetch")
		return
	}
	for _, quote := range quotes {
		if err := u.store.UpsertSecurityPrice(ctx, security.Ticker, quote.Date, quote.Price); err != nil {
			subLog.Warn().Err(err).Time("Date", quote.Date).Msg("could not store quote")
			return
		}
	}
}

func (u *Updater) refreshRate(ctx context.Context, pair string) {
	subLog := log.With().Str("Pair", pair).Logger()
	quote, err := u.provider.Rate(ctx, pair)
	if err != nil {
		subLog.Warn().Err(err).Msg("skipping pair with failed rate fetch")
		return
	}
	if err := u.store.UpsertCurrencyRate(ctx, pair, quote.Date, quote.Price); err != nil {
		subLog.Warn().Err(err).Msg("could not store rate")
	}
}
