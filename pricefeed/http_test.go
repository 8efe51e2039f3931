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
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/copperbook/cb-api/pricefeed"
)

var _ = Describe("HTTPProvider", func() {
	var (
		provider *pricefeed.HTTPProvider
		since    time.Time
		ctx      context.Context
	)

	BeforeEach(func() {
		viper.Set("marketdata.url", "https://marketdata.test")
		viper.Set("marketdata.token", "TEST")
		provider = pricefeed.NewHTTPProvider()

		since = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		ctx = context.Background()

		httpmock.Activate()
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	It("parses daily close quotes", func() {
		httpmock.RegisterResponder("GET", "https://marketdata.test/eod/USA?startDate=2024-03-01&token=TEST",
			httpmock.NewStringResponder(200, `[
				{"date": "2024-03-01", "close": 12.5},
				{"date": "2024-03-04", "close": 12.75}
			]`))

		quotes, err := provider.Quotes(ctx, "USA", since)
		Expect(err).NotTo(HaveOccurred())
		Expect(quotes).To(HaveLen(2))
		Expect(quotes[0].Price.String()).To(Equal("12.5"))
		Expect(quotes[1].Date.Day()).To(Equal(4))
	})

	It("reports an empty series", func() {
		httpmock.RegisterResponder("GET", "https://marketdata.test/eod/USA?startDate=2024-03-01&token=TEST",
			httpmock.NewStringResponder(200, `[]`))

		_, err := provider.Quotes(ctx, "USA", since)
		Expect(err).To(MatchError(pricefeed.ErrNoQuotes))
	})

	It("skips quotes with unparseable dates", func() {
		httpmock.RegisterResponder("GET", "https://marketdata.test/eod/USA?startDate=2024-03-01&token=TEST",
			httpmock.NewStringResponder(200, `[
				{"date": "not-a-date", "close": 1},
				{"date": "2024-03-04", "close": 12.75}
			]`))

		quotes, err := provider.Quotes(ctx, "USA", since)
		Expect(err).NotTo(HaveOccurred())
		Expect(quotes).To(HaveLen(1))
	})

	It("fails on HTTP errors", func() {
		httpmock.RegisterResponder("GET", "https://marketdata.test/eod/USA?startDate=2024-03-01&token=TEST",
			httpmock.NewStringResponder(500, "internal error"))

		_, err := provider.Quotes(ctx, "USA", since)
		Expect(err).To(HaveOccurred())
	})

	It("parses exchange rates", func() {
		httpmock.RegisterResponder("GET", "https://marketdata.test/fx/USDEUR?token=TEST",
			httpmock.NewStringResponder(200, `{"pair": "USDEUR", "rate": 0.91, "date": "2024-03-04"}`))

		quote, err := provider.Rate(ctx, "USDEUR")
		Expect(err).NotTo(HaveOccurred())
		Expect(quote.Price.String()).To(Equal("0.91"))
	})
})
