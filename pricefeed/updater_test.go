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

package pricefeed_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/pricefeed"
)

type fakeProvider struct {
	quotes map[string][]*pricefeed.Quote
	rates  map[string]*pricefeed.Quote
}

func (p *fakeProvider) Quotes(_ context.Context, symbol string, _ time.Time) ([]*pricefeed.Quote, error) {
	if quotes, ok := p.quotes[symbol]; ok {
		return quotes, nil
	}
	return nil, pricefeed.ErrNoQuotes
}

func (p *fakeProvider) Rate(_ context.Context, pair string) (*pricefeed.Quote, error) {
	if quote, ok := p.rates[pair]; ok {
		return quote, nil
	}
	return nil, errors.New("pair not quoted")
}

type fakeStore struct {
	securities []*data.Security
	currency   string
	prices     map[string]decimal.Decimal
	rates      map[string]decimal.Decimal
}

func (s *fakeStore) Securities(_ context.Context) ([]*data.Security, error) {
	return s.securities, nil
}

func (s *fakeStore) CurrencyPreference(_ context.Context) (string, error) {
	return s.currency, nil
}

func (s *fakeStore) UpsertSecurityPrice(_ context.Context, ticker string, _ time.Time, price decimal.Decimal) error {
	s.prices[ticker] = price
	return nil
}

func (s *fakeStore) UpsertCurrencyRate(_ context.Context, pair string, _ time.Time, rate decimal.Decimal) error {
	s.rates[pair] = rate
	return nil
}

var _ = Describe("Updater", func() {
	var (
		provider *fakeProvider
		store    *fakeStore
		updater  *pricefeed.Updater
		ctx      context.Context
	)

	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	BeforeEach(func() {
		ctx = context.Background()
		provider = &fakeProvider{
			quotes: map[string][]*pricefeed.Quote{
				"USA": {{Date: day, Price: decimal.NewFromInt(12)}},
				"BND": {{Date: day, Price: decimal.NewFromInt(25)}},
			},
			rates: map[string]*pricefeed.Quote{
				"USDEUR": {Date: day, Price: decimal.RequireFromString("0.91")},
			},
		}
		store = &fakeStore{
			securities: []*data.Security{
				{ISIN: "US0001", Ticker: "USA", Currency: "USD", Class: data.AssetStock},
				{ISIN: "DE0001", Ticker: "BND", Currency: "EUR", Class: data.AssetBond},
			},
			currency: "EUR",
			prices:   map[string]decimal.Decimal{},
			rates:    map[string]decimal.Decimal{},
		}
		updater = pricefeed.NewUpdater(provider, store, 7*24*time.Hour)
	})

	It("stores a quote per security ticker", func() {
		Expect(updater.Refresh(ctx)).To(Succeed())
		Expect(store.prices["USA"].String()).To(Equal("12"))
		Expect(store.prices["BND"].String()).To(Equal("25"))
	})

	It("stores rates only for currencies that differ from the preference", func() {
		Expect(updater.Refresh(ctx)).To(Succeed())
		Expect(store.rates).To(HaveKey("USDEUR"))
		Expect(store.rates).To(HaveLen(1))
	})

	It("skips securities whose quotes cannot be fetched", func() {
		delete(provider.quotes, "USA")

		Expect(updater.Refresh(ctx)).To(Succeed())
		Expect(store.prices).NotTo(HaveKey("USA"))
		Expect(store.prices).To(HaveKey("BND"))
	})
})
