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

package data_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"
	"github.com/spf13/viper"

	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/database"
	"github.com/copperbook/cb-api/pgxmockhelper"
)

var _ = Describe("Store", func() {
	var (
		dbPool pgxmock.PgxConnIface
		store  *data.Store
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)

		store = data.NewStore("user1")
		ctx = context.Background()
	})

	Describe("securities", func() {
		It("maps query rows onto the security struct", func() {
			pgxmockhelper.MockQuery(dbPool, "SELECT .* FROM securities",
				pgxmockhelper.Rows(pgxmockhelper.SecurityColumns,
					[]interface{}{"US0001", "US Total Market", "USA", "NYSE", "USD", "STOCK", 0.03},
					[]interface{}{"DE0001", "Euro Bond Fund", "BND", "XETRA", "EUR", "BOND", 0.12},
				))

			securities, err := store.Securities(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(securities).To(HaveLen(2))
			Expect(securities[0].ISIN).To(Equal("US0001"))
			Expect(securities[0].Class).To(Equal(data.AssetStock))
			Expect(securities[1].ExpenseRatio).To(BeNumerically("~", 0.12, 1e-9))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})

		It("keys the ISIN lookup by ISIN and omits unknowns", func() {
			pgxmockhelper.MockQuery(dbPool, "SELECT .* FROM securities WHERE isin",
				pgxmockhelper.Rows(pgxmockhelper.SecurityColumns,
					[]interface{}{"US0001", "US Total Market", "USA", "NYSE", "USD", "STOCK", 0.03},
				))

			byISIN, err := store.SecuritiesByISIN(ctx, []string{"US0001", "XX9999"})
			Expect(err).NotTo(HaveOccurred())
			Expect(byISIN).To(HaveKey("US0001"))
			Expect(byISIN).NotTo(HaveKey("XX9999"))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})

		It("rejects securities with an unknown asset class", func() {
			err := store.UpsertSecurity(ctx, &data.Security{
				ISIN:   "US0001",
				Ticker: "USA",
				Class:  data.AssetClass("CRYPTO"),
			})
			Expect(err).To(MatchError(data.ErrUnknownBucket))
		})
	})

	Describe("quantities", func() {
		It("parses numeric text into decimals", func() {
			pgxmockhelper.MockQuery(dbPool, "SELECT isin, quantity::text FROM security_quantities",
				pgxmockhelper.Rows([]string{"isin", "quantity"},
					[]interface{}{"US0001", "10.5"},
				))

			quantities, err := store.SecurityQuantities(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(quantities["US0001"].String()).To(Equal("10.5"))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})

	Describe("prices", func() {
		It("returns the newest observation per ticker", func() {
			pgxmockhelper.MockQuery(dbPool, "SELECT DISTINCT ON",
				pgxmockhelper.Rows([]string{"ticker", "price"},
					[]interface{}{"USA", "12.34"},
				))

			prices, err := store.LatestPricesByTicker(ctx, []string{"USA", "BND"})
			Expect(err).NotTo(HaveOccurred())
			Expect(prices["USA"].String()).To(Equal("12.34"))
			Expect(prices).NotTo(HaveKey("BND"))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})

		It("reports a missing exchange rate", func() {
			pgxmockhelper.ExpectBeginAsUser(dbPool)
			dbPool.ExpectQuery("SELECT rate::text FROM currency_pair_prices").
				WillReturnRows(pgxmock.NewRows([]string{"rate"}))
			dbPool.ExpectRollback()

			_, err := store.LatestRate(ctx, "USDEUR")
			Expect(err).To(MatchError(data.ErrRateNotFound))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})

	Describe("targets", func() {
		It("reads targets from the dimension's table", func() {
			pgxmockhelper.MockQuery(dbPool, "SELECT bucket, allocation FROM security_type_targets",
				pgxmockhelper.Rows([]string{"bucket", "allocation"},
					[]interface{}{"BOND", 40.0},
					[]interface{}{"STOCK", 60.0},
				))

			targets, err := store.Targets(ctx, data.DimensionAssetType)
			Expect(err).NotTo(HaveOccurred())
			Expect(targets["STOCK"]).To(BeNumerically("~", 60, 1e-9))
			Expect(targets["BOND"]).To(BeNumerically("~", 40, 1e-9))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})

		It("upserts a valid target", func() {
			pgxmockhelper.MockExec(dbPool, "INSERT INTO security_bond_maturity_targets", "INSERT")

			err := store.SetTarget(ctx, data.DimensionMaturity, "1-3Y", 25)
			Expect(err).NotTo(HaveOccurred())
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})

		It("rejects a bucket from the wrong dimension", func() {
			err := store.SetTarget(ctx, data.DimensionMaturity, "NA", 25)
			Expect(err).To(MatchError(data.ErrUnknownBucket))
		})

		It("rejects percentages outside 0 to 100", func() {
			err := store.SetTarget(ctx, data.DimensionAssetType, "STOCK", 101)
			Expect(err).To(MatchError(data.ErrInvalidPercent))

			err = store.SetTarget(ctx, data.DimensionAssetType, "STOCK", -1)
			Expect(err).To(MatchError(data.ErrInvalidPercent))
		})
	})

	Describe("distributions", func() {
		It("rejects unknown regions", func() {
			err := store.SetRegionDistribution(ctx, data.RegionAllocation{
				ISIN:       "US0001",
				Region:     data.Region("MOON"),
				Allocation: 100,
			})
			Expect(err).To(MatchError(data.ErrUnknownBucket))
		})

		It("rejects unknown maturity buckets", func() {
			err := store.SetMaturityDistribution(ctx, data.MaturityAllocation{
				ISIN:       "DE0001",
				Maturity:   data.Maturity("50Y"),
				Allocation: 100,
			})
			Expect(err).To(MatchError(data.ErrUnknownBucket))
		})

		It("stores valid rows", func() {
			pgxmockhelper.MockExec(dbPool, "INSERT INTO security_distributions", "INSERT")

			err := store.SetRegionDistribution(ctx, data.RegionAllocation{
				ISIN:       "US0001",
				Region:     data.RegionNorthAmerica,
				Allocation: 100,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})

	Describe("currency preference", func() {
		It("returns the stored preference", func() {
			pgxmockhelper.MockQuery(dbPool, "SELECT currency FROM currency_preferences",
				pgxmockhelper.Rows([]string{"currency"}, []interface{}{"USD"}))

			currency, err := store.CurrencyPreference(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(currency).To(Equal("USD"))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})

		It("falls back to the configured default", func() {
			viper.Set("server.default_currency", "CHF")
			defer viper.Set("server.default_currency", "")

			pgxmockhelper.MockQuery(dbPool, "SELECT currency FROM currency_preferences",
				pgxmock.NewRows([]string{"currency"}))

			currency, err := store.CurrencyPreference(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(currency).To(Equal("CHF"))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})
})
