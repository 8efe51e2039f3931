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

package holdings

import (
	"context"

	"github.com/shopspring/decimal"
)

// QuantitySource is the persisted side of the ledger; data.Store satisfies it
type QuantitySource interface {
	SecurityQuantities(ctx context.Context) (map[string]decimal.Decimal, error)
}

// AccountView is the read-only ledger backed by persisted quantities
type AccountView struct {
	source QuantitySource
}

func NewAccountView(source QuantitySource) *AccountView {
	return &AccountView{source: source}
}

// Quantities returns the persisted quantity per ISIN
func (v *AccountView) Quantities(ctx context.Context) (map[string]decimal.Decimal, error) {
	return v.source.SecurityQuantities(ctx)
}
