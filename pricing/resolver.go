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

// Package pricing resolves the latest known unit price per security. Prices
// are stored per ticker; the resolver maps ISINs to tickers, fetches the most
// recent observation per ticker, and maps back. A security with no price
// history is absent from the result map: missing means "price unknown", and
// callers must never substitute zero.
package pricing

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/data"
)

// Store is the slice of the data store the resolver needs
type Store interface {
	SecuritiesByISIN(ctx context.Context, isins []string) (map[string]*data.Security, error)
	LatestPricesByTicker(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error)
}

// Resolver returns latest prices in each security's native currency
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// LatestPrices returns the latest stored price per ISIN. ISINs whose ticker
// has no price history are absent from the result.
func (r *Resolver) LatestPrices(ctx context.Context, isins []string) (map[string]decimal.Decimal, error) {
	securities, err := r.store.SecuritiesByISIN(ctx, isins)
	if err != nil {
		return nil, err
	}

	tickerToISIN := make(map[string]string, len(securities))
	tickers := make([]string, 0, len(securities))
	for _, security := range securities {
		tickerToISIN[security.Ticker] = security.ISIN
		tickers = append(tickers, security.Ticker)
	}

	tickerPrices, err := r.store.LatestPricesByTicker(ctx, tickers)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(tickerPrices))
	for ticker, price := range tickerPrices {
		isin, ok := tickerToISIN[ticker]
		if !ok {
			log.Warn().Str("Ticker", ticker).Msg("price row for ticker that resolves to no requested ISIN")
			continue
		}
		prices[isin] = price
	}

	return prices, nil
}
