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

	"github.com/shopspring/decimal"
)

// Replay folds an operation history into the quantity map it implies. The
// persisted security_quantities table is a materialized cache of exactly this
// computation; replaying from empty state must reproduce it.
func Replay(ops []*Operation) map[string]decimal.Decimal {
	quantities := make(map[string]decimal.Decimal)

	for _, op := range ops {
		switch op.Kind {
		case KindBuy:
			quantities[op.ISIN] = quantities[op.ISIN].Add(op.Quantity)
		case KindSell:
			quantities[op.ISIN] = quantities[op.ISIN].Sub(op.Quantity)
		case KindDividend:
			// dividends never change holdings
		}
	}

	for isin, qty := range quantities {
		if qty.IsZero() {
			delete(quantities, isin)
		}
	}

	return quantities
}

// Rebuild replays the user's stored history. Used to verify or repair the
// materialized quantity cache.
func (l *Ledger) Rebuild(ctx context.Context) (map[string]decimal.Decimal, error) {
	ops, err := l.Operations(ctx)
	if err != nil {
		return nil, err
	}
	return Replay(ops), nil
}
