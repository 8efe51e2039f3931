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

package allocation_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/allocation"
	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/holdings"
)

var _ = Describe("Planner", func() {
	var (
		store   *fakeStore
		prices  *fakePrices
		ledger  *holdings.Overlay
		planner *allocation.Planner
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore()
		prices = &fakePrices{prices: map[string]decimal.Decimal{}}
		ledger = holdings.NewOverlay()
		planner = allocation.NewPlanner(store, prices, ledger)
	})

	Context("with one stock holding and an eligible bond", func() {
		// US0001: 10 units at $10 in North America; DE0001: bond at $25, unheld
		BeforeEach(func() {
			store.addSecurity(&data.Security{ISIN: "US0001", Ticker: "USA", Currency: "EUR", Class: data.AssetStock})
			store.addSecurity(&data.Security{ISIN: "DE0001", Ticker: "BND", Currency: "EUR", Class: data.AssetBond})
			store.regions = []data.RegionAllocation{
				{ISIN: "US0001", Region: data.RegionNorthAmerica, Allocation: 100},
			}
			store.maturities = []data.MaturityAllocation{
				{ISIN: "DE0001", Maturity: data.Maturity1To3, Allocation: 100},
			}
			store.setTargets(data.DimensionAssetType, map[string]float64{"STOCK": 50, "BOND": 50})
			store.setTargets(data.DimensionRegion, map[string]float64{"NA": 50})
			store.setTargets(data.DimensionMaturity, map[string]float64{"1-3Y": 100})

			prices.prices["US0001"] = decimal.NewFromInt(10)
			prices.prices["DE0001"] = decimal.NewFromInt(25)

			ledger.SetQuantity("US0001", decimal.NewFromInt(10))
		})

		It("sells the over-allocated stock", func() {
			result, err := planner.Plan(ctx, allocation.DirectionSell, decimal.NewFromInt(10))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Spent.String()).To(Equal("10"))
			Expect(result.Quantities["US0001"].String()).To(Equal("9"))
		})

		It("buys the most under-allocated asset class", func() {
			result, err := planner.Plan(ctx, allocation.DirectionBuy, decimal.NewFromInt(50))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Quantities["DE0001"].String()).To(Equal("2"))
			Expect(result.Spent.String()).To(Equal("50"))
			Expect(result.Remaining.IsZero()).To(BeTrue())
		})

		It("stops when remaining funds drop below the unit price", func() {
			result, err := planner.Plan(ctx, allocation.DirectionBuy, decimal.NewFromInt(30))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Spent.String()).To(Equal("25"))
			Expect(result.Remaining.String()).To(Equal("5"))
			Expect(result.Spent.Equal(decimal.NewFromInt(30))).To(BeFalse())
		})

		It("never spends more than the requested amount", func() {
			for _, amount := range []int64{5, 25, 49, 50, 51, 100} {
				result, err := planner.Plan(ctx, allocation.DirectionBuy, decimal.NewFromInt(amount))
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Spent.LessThanOrEqual(decimal.NewFromInt(amount))).To(BeTrue())
			}
		})

		It("does not mutate the underlying ledger", func() {
			_, err := planner.Plan(ctx, allocation.DirectionSell, decimal.NewFromInt(10))
			Expect(err).NotTo(HaveOccurred())
			Expect(ledger.Quantity("US0001").String()).To(Equal("10"))
		})
	})

	Context("selling more than the portfolio holds", func() {
		BeforeEach(func() {
			store.addSecurity(&data.Security{ISIN: "US0001", Ticker: "USA", Currency: "EUR", Class: data.AssetStock})
			store.regions = []data.RegionAllocation{
				{ISIN: "US0001", Region: data.RegionNorthAmerica, Allocation: 100},
			}
			store.setTargets(data.DimensionAssetType, map[string]float64{"STOCK": 0})
			store.setTargets(data.DimensionRegion, map[string]float64{"NA": 0})

			prices.prices["US0001"] = decimal.NewFromInt(10)
			ledger.SetQuantity("US0001", decimal.NewFromInt(2))
		})

		It("stops at zero and reports a partial plan", func() {
			result, err := planner.Plan(ctx, allocation.DirectionSell, decimal.NewFromInt(100))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Spent.String()).To(Equal("20"))
			Expect(result.Quantities["US0001"].IsZero()).To(BeTrue())
		})
	})

	Context("when the selected security has no usable price", func() {
		BeforeEach(func() {
			store.addSecurity(&data.Security{ISIN: "DE0001", Ticker: "BND", Currency: "EUR", Class: data.AssetBond})
			store.maturities = []data.MaturityAllocation{
				{ISIN: "DE0001", Maturity: data.Maturity1To3, Allocation: 100},
			}
			store.setTargets(data.DimensionAssetType, map[string]float64{"BOND": 100})
			store.setTargets(data.DimensionMaturity, map[string]float64{"1-3Y": 100})
		})

		It("returns the partial plan instead of an error", func() {
			result, err := planner.Plan(ctx, allocation.DirectionBuy, decimal.NewFromInt(100))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Spent.IsZero()).To(BeTrue())
			Expect(result.Remaining.String()).To(Equal("100"))
		})
	})

	Context("buying REITs", func() {
		BeforeEach(func() {
			store.addSecurity(&data.Security{ISIN: "US9001", Ticker: "RUS", Currency: "USD", Class: data.AssetREIT})
			store.addSecurity(&data.Security{ISIN: "DE9001", Ticker: "REU", Currency: "EUR", Class: data.AssetREIT})
			store.setTargets(data.DimensionAssetType, map[string]float64{"REIT": 100})

			prices.prices["US9001"] = decimal.NewFromInt(20)
			prices.prices["DE9001"] = decimal.NewFromInt(20)
		})

		It("prefers the security quoted in the preferred currency", func() {
			result, err := planner.Plan(ctx, allocation.DirectionBuy, decimal.NewFromInt(20))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Quantities["DE9001"].String()).To(Equal("1"))
			Expect(result.Quantities).NotTo(HaveKey("US9001"))
		})
	})

	It("rejects rebalance plans", func() {
		_, err := planner.Plan(ctx, allocation.DirectionRebalance, decimal.NewFromInt(100))
		Expect(err).To(MatchError(allocation.ErrRebalanceNotSupported))
	})

	It("parses wire directions", func() {
		direction, err := allocation.ParseDirection("SELL")
		Expect(err).NotTo(HaveOccurred())
		Expect(direction).To(Equal(allocation.DirectionSell))

		_, err = allocation.ParseDirection("short")
		Expect(err).To(MatchError(allocation.ErrUnknownDirection))
	})
})

var _ = Describe("OperationList", func() {
	var (
		store   *fakeStore
		prices  *fakePrices
		planner *allocation.Planner
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeStore()
		store.addSecurity(&data.Security{ISIN: "US0001", Ticker: "USA", Currency: "EUR", Class: data.AssetStock})
		store.addSecurity(&data.Security{ISIN: "DE0001", Ticker: "BND", Currency: "EUR", Class: data.AssetBond})
		prices = &fakePrices{prices: map[string]decimal.Decimal{
			"US0001": decimal.NewFromInt(10),
			"DE0001": decimal.NewFromInt(25),
		}}
		planner = allocation.NewPlanner(store, prices, holdings.NewOverlay())
	})

	It("derives one order per changed security", func() {
		before := map[string]decimal.Decimal{
			"US0001": decimal.NewFromInt(10),
			"DE0001": decimal.NewFromInt(2),
		}
		after := map[string]decimal.Decimal{
			"US0001": decimal.NewFromInt(8),
			"DE0001": decimal.NewFromInt(4),
		}

		orders, err := planner.OperationList(ctx, before, after)
		Expect(err).NotTo(HaveOccurred())
		Expect(orders).To(HaveLen(2))

		// sorted by ISIN: DE0001 first
		Expect(orders[0].Operation).To(Equal("buy"))
		Expect(orders[0].Ticker).To(Equal("BND"))
		Expect(orders[0].Units.String()).To(Equal("2"))
		Expect(orders[0].TotalPrice.String()).To(Equal("50"))

		Expect(orders[1].Operation).To(Equal("sell"))
		Expect(orders[1].Units.String()).To(Equal("-2"))
		Expect(orders[1].TotalPrice.String()).To(Equal("20"))
	})

	It("produces no orders for an unchanged portfolio", func() {
		snapshot := map[string]decimal.Decimal{"US0001": decimal.NewFromInt(10)}
		orders, err := planner.OperationList(ctx, snapshot, snapshot)
		Expect(err).NotTo(HaveOccurred())
		Expect(orders).To(BeEmpty())
	})
})
