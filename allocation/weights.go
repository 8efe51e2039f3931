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

// Package allocation implements the investment allocation engine: portfolio
// composition by asset class, geographic region, and bond maturity bucket,
// deltas against the user's target allocation, and the greedy planner that
// selects the next security to buy or sell.
package allocation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/holdings"
)

// PriceResolver returns the latest known unit price per ISIN; securities with
// no known price are absent from the map
type PriceResolver interface {
	LatestPrices(ctx context.Context, isins []string) (map[string]decimal.Decimal, error)
}

// Store is the slice of reference data the engine reads
type Store interface {
	SecuritiesByISIN(ctx context.Context, isins []string) (map[string]*data.Security, error)
	SecuritiesByClass(ctx context.Context, class data.AssetClass) ([]*data.Security, error)
	RegionDistributions(ctx context.Context, isins []string) ([]data.RegionAllocation, error)
	MaturityDistributions(ctx context.Context, isins []string) ([]data.MaturityAllocation, error)
	Targets(ctx context.Context, dimension data.Dimension) (map[string]float64, error)
	CurrencyPreference(ctx context.Context) (string, error)
}

// Calculator computes percentage weights per bucket for each allocation
// dimension. The holdings reader is passed per call so the same calculator
// serves both the persisted ledger and a planning overlay.
type Calculator struct {
	store  Store
	prices PriceResolver
}

func NewCalculator(store Store, prices PriceResolver) *Calculator {
	return &Calculator{store: store, prices: prices}
}

// securityValues prices a quantity snapshot. Returns the market value per ISIN
// and the portfolio total. ISINs with no known price contribute zero value and
// are absent from the value map.
func (c *Calculator) securityValues(ctx context.Context, quantities map[string]decimal.Decimal) (map[string]decimal.Decimal, decimal.Decimal, error) {
	isins := make([]string, 0, len(quantities))
	for isin := range quantities {
		isins = append(isins, isin)
	}

	prices, err := c.prices.LatestPrices(ctx, isins)
	if err != nil {
		return nil, decimal.Zero, err
	}

	values := make(map[string]decimal.Decimal, len(prices))
	total := decimal.Zero
	for isin, price := range prices {
		value := quantities[isin].Mul(price)
		values[isin] = value
		total = total.Add(value)
	}

	return values, total, nil
}

// AssetClassWeights returns the percentage of portfolio value held per asset
// class. Every recognized class appears in the map; classes with no holdings
// are 0. All weights are 0 when the portfolio has no marketable value.
func (c *Calculator) AssetClassWeights(ctx context.Context, ledger holdings.Reader) (map[string]float64, error) {
	quantities, err := ledger.Quantities(ctx)
	if err != nil {
		return nil, err
	}

	values, total, err := c.securityValues(ctx, quantities)
	if err != nil {
		return nil, err
	}

	isins := make([]string, 0, len(values))
	for isin := range values {
		isins = append(isins, isin)
	}
	securities, err := c.store.SecuritiesByISIN(ctx, isins)
	if err != nil {
		return nil, err
	}

	money := make(map[string]decimal.Decimal)
	for isin, value := range values {
		security, ok := securities[isin]
		if !ok {
			continue
		}
		bucket := string(security.Class)
		money[bucket] = money[bucket].Add(value)
	}

	weights := make(map[string]float64, len(data.AssetClasses()))
	for _, class := range data.AssetClasses() {
		weights[string(class)] = normalize(money[string(class)], total)
	}

	return weights, nil
}

// RegionWeights returns the percentage of portfolio value allocated per
// geographic region. A security spreads across regions according to its
// distribution rows; weights are normalized by total portfolio value so the
// buckets of the dimension sum to ~100 when distributions fully cover the
// priced holdings.
func (c *Calculator) RegionWeights(ctx context.Context, ledger holdings.Reader) (map[string]float64, error) {
	quantities, err := ledger.Quantities(ctx)
	if err != nil {
		return nil, err
	}

	isins := make([]string, 0, len(quantities))
	for isin := range quantities {
		isins = append(isins, isin)
	}

	dists, err := c.store.RegionDistributions(ctx, isins)
	if err != nil {
		return nil, err
	}

	distributed := make(map[string]decimal.Decimal)
	for _, dist := range dists {
		distributed[dist.ISIN] = quantities[dist.ISIN]
	}

	values, total, err := c.securityValues(ctx, distributed)
	if err != nil {
		return nil, err
	}

	money := make(map[string]decimal.Decimal)
	for _, dist := range dists {
		value, ok := values[dist.ISIN]
		if !ok {
			// price unknown; the security cannot contribute to any bucket
			continue
		}
		share := value.Mul(decimal.NewFromFloat(dist.Allocation)).Div(decimal.NewFromInt(100))
		bucket := string(dist.Region)
		money[bucket] = money[bucket].Add(share)
	}

	weights := make(map[string]float64, len(money))
	for bucket, amount := range money {
		weights[bucket] = normalize(amount, total)
	}

	return weights, nil
}

// MaturityWeights returns the percentage of portfolio value allocated per bond
// maturity bucket, following the same shape as RegionWeights with the
// per-security maturity distribution table.
func (c *Calculator) MaturityWeights(ctx context.Context, ledger holdings.Reader) (map[string]float64, error) {
	quantities, err := ledger.Quantities(ctx)
	if err != nil {
		return nil, err
	}

	isins := make([]string, 0, len(quantities))
	for isin := range quantities {
		isins = append(isins, isin)
	}

	dists, err := c.store.MaturityDistributions(ctx, isins)
	if err != nil {
		return nil, err
	}

	distributed := make(map[string]decimal.Decimal)
	for _, dist := range dists {
		distributed[dist.ISIN] = quantities[dist.ISIN]
	}

	values, total, err := c.securityValues(ctx, distributed)
	if err != nil {
		return nil, err
	}

	money := make(map[string]decimal.Decimal)
	for _, dist := range dists {
		value, ok := values[dist.ISIN]
		if !ok {
			continue
		}
		share := value.Mul(decimal.NewFromFloat(dist.Allocation)).Div(decimal.NewFromInt(100))
		bucket := string(dist.Maturity)
		money[bucket] = money[bucket].Add(share)
	}

	weights := make(map[string]float64, len(money))
	for bucket, amount := range money {
		weights[bucket] = normalize(amount, total)
	}

	return weights, nil
}

// normalize converts a bucket's money into a percentage of total value.
// Everything is 0 when the total is 0 so an empty portfolio never divides by
// zero.
func normalize(amount, total decimal.Decimal) float64 {
	if total.IsZero() || amount.IsZero() {
		return 0
	}
	pct, _ := amount.Div(total).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}
