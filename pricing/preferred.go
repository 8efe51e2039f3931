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

package pricing

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/data"
)

// PreferenceStore adds the currency lookups the converting resolver needs
type PreferenceStore interface {
	Store
	CurrencyPreference(ctx context.Context) (string, error)
	LatestRate(ctx context.Context, pair string) (decimal.Decimal, error)
}

// PreferredCurrencyResolver decorates Resolver with conversion into the user's
// preferred settlement currency. When a security's native currency differs
// from the preference and no exchange rate is stored, the converted price is
// reported as zero. That is a deliberate degraded mode, not an error; callers
// computing totals from this path must guard against spurious zeros.
type PreferredCurrencyResolver struct {
	inner *Resolver
	store PreferenceStore
}

func NewPreferredCurrencyResolver(store PreferenceStore) *PreferredCurrencyResolver {
	return &PreferredCurrencyResolver{
		inner: NewResolver(store),
		store: store,
	}
}

// LatestPrices returns latest prices per ISIN converted into the user's
// preferred currency
func (r *PreferredCurrencyResolver) LatestPrices(ctx context.Context, isins []string) (map[string]decimal.Decimal, error) {
	preferred, err := r.store.CurrencyPreference(ctx)
	if err != nil {
		return nil, err
	}

	prices, err := r.inner.LatestPrices(ctx, isins)
	if err != nil {
		return nil, err
	}

	securities, err := r.store.SecuritiesByISIN(ctx, isins)
	if err != nil {
		return nil, err
	}

	for isin, price := range prices {
		security, ok := securities[isin]
		if !ok || security.Currency == preferred {
			continue
		}

		pair := security.Currency + preferred
		rate, err := r.store.LatestRate(ctx, pair)
		if err != nil {
			if !errors.Is(err, data.ErrRateNotFound) {
				return nil, err
			}
			log.Warn().Str("ISIN", isin).Str("Pair", pair).Msg("no exchange rate stored; reporting converted price as 0")
			prices[isin] = decimal.Zero
			continue
		}

		prices[isin] = price.Mul(rate)
	}

	return prices, nil
}
