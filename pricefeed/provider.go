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

// Package pricefeed pulls end-of-day quotes and currency rates from an
// external market-data service and stores them for the portfolio engine.
// The engine itself never talks to the network; it only reads the stored
// observations.
package pricefeed

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoQuotes indicates the provider returned no observations for the
	// requested symbol.
	ErrNoQuotes = errors.New("no quotes available for symbol")
)

// Quote is a single dated price observation for a ticker or currency pair.
type Quote struct {
	Date  time.Time
	Price decimal.Decimal
}

// Provider fetches price observations from an external source.
type Provider interface {
	// Quotes returns all observations for symbol on or after the since
	// date, oldest first.
	Quotes(ctx context.Context, symbol string, since time.Time) ([]*Quote, error)

	// Rate returns the latest exchange rate for a currency pair such as
	// "USDEUR".
	Rate(ctx context.Context, pair string) (*Quote, error)
}
