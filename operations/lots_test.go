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

package operations_test

import (
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/operations"
)

func lot(qty, consumed int64) operations.Lot {
	return operations.Lot{
		OperationID: uuid.New(),
		Date:        time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Quantity:    decimal.NewFromInt(qty),
		Price:       decimal.NewFromInt(10),
		Consumed:    decimal.NewFromInt(consumed),
	}
}

var _ = Describe("ConsumeFIFO", func() {
	It("takes from the oldest lot first", func() {
		lots := []operations.Lot{lot(10, 0), lot(10, 0)}

		consumptions, err := operations.ConsumeFIFO(lots, decimal.NewFromInt(4))
		Expect(err).NotTo(HaveOccurred())
		Expect(consumptions).To(HaveLen(1))
		Expect(consumptions[0].OperationID).To(Equal(lots[0].OperationID))
		Expect(consumptions[0].Quantity.String()).To(Equal("4"))
	})

	It("spills into later lots when the first is exhausted", func() {
		lots := []operations.Lot{lot(10, 0), lot(10, 0)}

		consumptions, err := operations.ConsumeFIFO(lots, decimal.NewFromInt(14))
		Expect(err).NotTo(HaveOccurred())
		Expect(consumptions).To(HaveLen(2))
		Expect(consumptions[0].Quantity.String()).To(Equal("10"))
		Expect(consumptions[1].Quantity.String()).To(Equal("4"))
		Expect(consumptions[1].OperationID).To(Equal(lots[1].OperationID))
	})

	It("skips fully consumed lots", func() {
		lots := []operations.Lot{lot(10, 10), lot(10, 3)}

		consumptions, err := operations.ConsumeFIFO(lots, decimal.NewFromInt(5))
		Expect(err).NotTo(HaveOccurred())
		Expect(consumptions).To(HaveLen(1))
		Expect(consumptions[0].OperationID).To(Equal(lots[1].OperationID))
		Expect(consumptions[0].Quantity.String()).To(Equal("5"))
	})

	It("never consumes beyond a lot's quantity", func() {
		lots := []operations.Lot{lot(10, 7), lot(20, 0)}

		consumptions, err := operations.ConsumeFIFO(lots, decimal.NewFromInt(10))
		Expect(err).NotTo(HaveOccurred())
		for idx, consumption := range consumptions {
			newConsumed := lots[idx].Consumed.Add(consumption.Quantity)
			Expect(newConsumed.LessThanOrEqual(lots[idx].Quantity)).To(BeTrue())
		}
	})

	It("handles fractional quantities", func() {
		half := decimal.RequireFromString("0.5")
		lots := []operations.Lot{lot(1, 0)}

		consumptions, err := operations.ConsumeFIFO(lots, half)
		Expect(err).NotTo(HaveOccurred())
		Expect(consumptions[0].Quantity.Equal(half)).To(BeTrue())
	})

	It("rejects a sell larger than the unconsumed total", func() {
		lots := []operations.Lot{lot(10, 5)}

		_, err := operations.ConsumeFIFO(lots, decimal.NewFromInt(6))
		Expect(err).To(MatchError(operations.ErrInsufficientHoldings))
	})

	It("rejects non-positive quantities", func() {
		_, err := operations.ConsumeFIFO([]operations.Lot{lot(10, 0)}, decimal.Zero)
		Expect(err).To(MatchError(operations.ErrInvalidQuantity))
	})
})

var _ = Describe("UnconsumedQuantity", func() {
	It("sums the remaining quantity across lots", func() {
		lots := []operations.Lot{lot(10, 4), lot(5, 0)}
		Expect(operations.UnconsumedQuantity(lots).String()).To(Equal("11"))
	})
})

var _ = Describe("Replay", func() {
	op := func(isin string, kind operations.Kind, qty int64) *operations.Operation {
		return &operations.Operation{
			ID:       uuid.New(),
			ISIN:     isin,
			Kind:     kind,
			Quantity: decimal.NewFromInt(qty),
			Price:    decimal.NewFromInt(10),
			Date:     time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	It("reconstructs quantities from history", func() {
		history := []*operations.Operation{
			op("US0001", operations.KindBuy, 10),
			op("US0001", operations.KindSell, 3),
			op("DE0001", operations.KindBuy, 5),
			op("US0001", operations.KindDividend, 7),
		}

		quantities := operations.Replay(history)
		Expect(quantities["US0001"].String()).To(Equal("7"))
		Expect(quantities["DE0001"].String()).To(Equal("5"))
	})

	It("drops securities that were fully sold", func() {
		history := []*operations.Operation{
			op("US0001", operations.KindBuy, 10),
			op("US0001", operations.KindSell, 10),
		}

		quantities := operations.Replay(history)
		Expect(quantities).NotTo(HaveKey("US0001"))
	})

	It("ignores dividends", func() {
		history := []*operations.Operation{
			op("US0001", operations.KindBuy, 10),
			op("US0001", operations.KindDividend, 10),
		}

		quantities := operations.Replay(history)
		Expect(quantities["US0001"].String()).To(Equal("10"))
	})
})

var _ = Describe("MeasureLots", func() {
	It("derives average cost and return from unconsumed lots", func() {
		lots := []operations.Lot{
			{OperationID: uuid.New(), Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(10)},
			{OperationID: uuid.New(), Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(20), Consumed: decimal.NewFromInt(5)},
		}

		perf := operations.MeasureLots("US0001", lots, decimal.NewFromInt(20), true)
		Expect(perf.Quantity.String()).To(Equal("15"))
		Expect(perf.PaidValue.String()).To(Equal("200"))
		Expect(perf.MarketValue.String()).To(Equal("300"))
		// (1 - 200/300) * 100
		Expect(perf.TotalReturn).To(BeNumerically("~", 33.333, 0.001))
	})

	It("reports no return when the price is unknown", func() {
		lots := []operations.Lot{
			{OperationID: uuid.New(), Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(10)},
		}

		perf := operations.MeasureLots("US0001", lots, decimal.Zero, false)
		Expect(perf.Priced).To(BeFalse())
		Expect(perf.TotalReturn).To(BeZero())
		Expect(perf.AverageCost.String()).To(Equal("10"))
	})
})
