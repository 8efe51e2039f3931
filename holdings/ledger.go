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

// Package holdings provides the quantity ledger: the current ISIN to quantity
// mapping weight calculations and planning runs operate on. The persisted view
// lives behind the Reader interface; the Overlay is a disposable in-memory
// copy used to simulate trades before anything is committed.
package holdings

import (
	"context"

	"github.com/shopspring/decimal"
)

// Reader exposes the current quantity per ISIN. Both the persisted ledger view
// and the planning overlay satisfy it, so weight calculators do not care
// whether they are looking at real or hypothetical holdings.
type Reader interface {
	Quantities(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Overlay is a mutable what-if copy of holdings. It is exclusively owned by
// the planning run that created it and must not be shared across runs.
type Overlay struct {
	quantities map[string]decimal.Decimal
}

// NewOverlay creates an empty overlay
func NewOverlay() *Overlay {
	return &Overlay{quantities: make(map[string]decimal.Decimal)}
}

// Seed replaces the overlay's contents with a copy of the reader's snapshot
func (o *Overlay) Seed(ctx context.Context, reader Reader) error {
	snapshot, err := reader.Quantities(ctx)
	if err != nil {
		return err
	}

	o.Clear()
	for isin, qty := range snapshot {
		o.quantities[isin] = qty
	}
	return nil
}

// Quantity returns the held quantity for an ISIN, zero when absent
func (o *Overlay) Quantity(isin string) decimal.Decimal {
	if qty, ok := o.quantities[isin]; ok {
		return qty
	}
	return decimal.Zero
}

// SetQuantity sets the hypothetical quantity for an ISIN
func (o *Overlay) SetQuantity(isin string, qty decimal.Decimal) {
	o.quantities[isin] = qty
}

// Clear empties the overlay
func (o *Overlay) Clear() {
	o.quantities = make(map[string]decimal.Decimal)
}

// Quantities returns a copy of the overlay's full quantity map. It satisfies
// the Reader interface and never fails.
func (o *Overlay) Quantities(_ context.Context) (map[string]decimal.Decimal, error) {
	return o.Snapshot(), nil
}

// Snapshot returns a copy of the overlay's full quantity map
func (o *Overlay) Snapshot() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(o.quantities))
	for isin, qty := range o.quantities {
		out[isin] = qty
	}
	return out
}
