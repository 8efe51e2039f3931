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

package operations

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// PriceResolver is satisfied by the pricing package resolvers
type PriceResolver interface {
	LatestPrices(ctx context.Context, isins []string) (map[string]decimal.Decimal, error)
}

// QuantitySource is satisfied by data.Store
type QuantitySource interface {
	SecurityQuantities(ctx context.Context) (map[string]decimal.Decimal, error)
}

// SecurityPerformance summarizes one position's cost basis and return
type SecurityPerformance struct {
	ISIN        string          `json:"isin"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"averageCost"`
	PaidValue   decimal.Decimal `json:"paidValue"`
	MarketValue decimal.Decimal `json:"marketValue"`
	TotalReturn float64         `json:"totalReturn"`
	// Priced is false when the security has no known price; TotalReturn and
	// MarketValue are meaningless in that case
	Priced bool `json:"priced"`
}

// MeasureLots derives cost basis and return from the unconsumed portion of a
// security's buy lots at the given market price
func MeasureLots(isin string, lots []Lot, marketPrice decimal.Decimal, priced bool) SecurityPerformance {
	perf := SecurityPerformance{ISIN: isin, Priced: priced}

	unconsumed := decimal.Zero
	paid := decimal.Zero
	for _, lot := range lots {
		remaining := lot.Remaining()
		if !remaining.IsPositive() {
			continue
		}
		unconsumed = unconsumed.Add(remaining)
		paid = paid.Add(remaining.Mul(lot.Price))
	}

	perf.Quantity = unconsumed
	perf.PaidValue = paid

	if !unconsumed.IsPositive() {
		return perf
	}

	perf.AverageCost = paid.Div(unconsumed)

	if priced {
		perf.MarketValue = unconsumed.Mul(marketPrice)
		if perf.MarketValue.IsPositive() {
			// (1 - paid/market) * 100
			ratio, _ := paid.Div(perf.MarketValue).Float64()
			perf.TotalReturn = (1 - ratio) * 100
		}
	}

	return perf
}

// Performance reports cost basis and return for every currently held security
func (l *Ledger) Performance(ctx context.Context, quantities QuantitySource, prices PriceResolver) ([]SecurityPerformance, error) {
	held, err := quantities.SecurityQuantities(ctx)
	if err != nil {
		return nil, err
	}

	isins := make([]string, 0, len(held))
	for isin := range held {
		isins = append(isins, isin)
	}

	priceMap, err := prices.LatestPrices(ctx, isins)
	if err != nil {
		return nil, err
	}

	report := make([]SecurityPerformance, 0, len(isins))
	for _, isin := range isins {
		lots, err := l.BuyLots(ctx, isin)
		if err != nil {
			return nil, err
		}
		price, priced := priceMap[isin]
		report = append(report, MeasureLots(isin, lots, price, priced))
	}

	// deterministic order for API responses
	sort.Slice(report, func(i, j int) bool { return report[i].ISIN < report[j].ISIN })

	return report, nil
}
