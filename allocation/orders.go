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

package allocation

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// Order is one executable trade derived from a planning run
type Order struct {
	Operation  string          `json:"operation"`
	ISIN       string          `json:"isin"`
	Ticker     string          `json:"ticker"`
	Units      decimal.Decimal `json:"units"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalUnits decimal.Decimal `json:"totalUnits"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// OperationList diffs a planning result against the pre-run snapshot and
// produces the executable order per changed security. Securities whose
// quantity did not change produce no order. Orders are sorted by ISIN.
func (p *Planner) OperationList(ctx context.Context, before, after map[string]decimal.Decimal) ([]Order, error) {
	changed := make([]string, 0, len(after))
	for isin, newQty := range after {
		oldQty := before[isin]
		if !newQty.Equal(oldQty) {
			changed = append(changed, isin)
		}
	}
	sort.Strings(changed)

	if len(changed) == 0 {
		return []Order{}, nil
	}

	securities, err := p.store.SecuritiesByISIN(ctx, changed)
	if err != nil {
		return nil, err
	}

	prices, err := p.prices.LatestPrices(ctx, changed)
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(changed))
	for _, isin := range changed {
		diff := after[isin].Sub(before[isin])

		operation := "buy"
		if diff.IsNegative() {
			operation = "sell"
		}

		ticker := ""
		if security, ok := securities[isin]; ok {
			ticker = security.Ticker
		}

		price := prices[isin]
		orders = append(orders, Order{
			Operation:  operation,
			ISIN:       isin,
			Ticker:     ticker,
			Units:      diff,
			UnitPrice:  price,
			TotalUnits: after[isin],
			TotalPrice: diff.Abs().Mul(price),
		})
	}

	return orders, nil
}
