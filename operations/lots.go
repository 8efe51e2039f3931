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
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lot is one historical buy with the portion already consumed by later sells.
// The invariant maintained across all commits is Consumed <= Quantity.
type Lot struct {
	OperationID uuid.UUID
	Date        time.Time
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Consumed    decimal.Decimal
}

// Remaining returns the unconsumed quantity of the lot
func (l *Lot) Remaining() decimal.Decimal {
	return l.Quantity.Sub(l.Consumed)
}

// Consumption records additional quantity taken from one lot by a sell
type Consumption struct {
	OperationID uuid.UUID
	Quantity    decimal.Decimal
}

// ConsumeFIFO matches a sell quantity against buy lots front to back. Lots
// must be ordered oldest first. The full set of consumption deltas is returned
// at once so the caller can apply them atomically; nothing is mutated here.
// Returns ErrInsufficientHoldings when the lots cannot cover the quantity.
func ConsumeFIFO(lots []Lot, quantity decimal.Decimal) ([]Consumption, error) {
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	remaining := quantity
	consumptions := make([]Consumption, 0, len(lots))

	for _, lot := range lots {
		if remaining.IsZero() {
			break
		}

		available := lot.Remaining()
		if !available.IsPositive() {
			continue
		}

		take := available
		if take.GreaterThan(remaining) {
			take = remaining
		}

		consumptions = append(consumptions, Consumption{
			OperationID: lot.OperationID,
			Quantity:    take,
		})
		remaining = remaining.Sub(take)
	}

	if !remaining.IsZero() {
		return nil, ErrInsufficientHoldings
	}

	return consumptions, nil
}

// UnconsumedQuantity sums the remaining quantity across lots
func UnconsumedQuantity(lots []Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.Remaining())
	}
	return total
}
