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

package holdings_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/holdings"
)

var _ = Describe("Overlay", func() {
	var (
		overlay *holdings.Overlay
		ctx     context.Context
	)

	BeforeEach(func() {
		overlay = holdings.NewOverlay()
		ctx = context.Background()
	})

	It("returns zero for unknown securities", func() {
		Expect(overlay.Quantity("US0001").IsZero()).To(BeTrue())
	})

	It("stores and returns quantities", func() {
		overlay.SetQuantity("US0001", decimal.NewFromInt(7))
		Expect(overlay.Quantity("US0001").String()).To(Equal("7"))
	})

	It("seeds from a reader without sharing state", func() {
		source := holdings.NewOverlay()
		source.SetQuantity("US0001", decimal.NewFromInt(10))

		Expect(overlay.Seed(ctx, source)).To(Succeed())
		overlay.SetQuantity("US0001", decimal.NewFromInt(3))

		Expect(source.Quantity("US0001").String()).To(Equal("10"))
		Expect(overlay.Quantity("US0001").String()).To(Equal("3"))
	})

	It("replaces prior contents when reseeded", func() {
		overlay.SetQuantity("DE0001", decimal.NewFromInt(5))

		source := holdings.NewOverlay()
		source.SetQuantity("US0001", decimal.NewFromInt(1))
		Expect(overlay.Seed(ctx, source)).To(Succeed())

		Expect(overlay.Quantity("DE0001").IsZero()).To(BeTrue())
		Expect(overlay.Quantity("US0001").String()).To(Equal("1"))
	})

	It("snapshots independently of later mutation", func() {
		overlay.SetQuantity("US0001", decimal.NewFromInt(2))
		snapshot := overlay.Snapshot()
		overlay.SetQuantity("US0001", decimal.NewFromInt(9))

		Expect(snapshot["US0001"].String()).To(Equal("2"))
	})
})
