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

package router

import (
	"github.com/copperbook/cb-api/handler"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes setup router api
func SetupRoutes(app *fiber.App) {
	api := app.Group("/v1")
	api.Get("/", handler.Ping)

	// Portfolio composition and planning
	portfolio := api.Group("/portfolio")
	portfolio.Get("/weights/assets", handler.GetAssetClassWeights)
	portfolio.Get("/weights/regions", handler.GetRegionWeights)
	portfolio.Get("/weights/maturities", handler.GetMaturityWeights)
	portfolio.Get("/deltas/:dimension", handler.GetDeltas)
	portfolio.Get("/holdings", handler.GetHoldings)
	portfolio.Post("/plan", handler.PostPlan)

	// Operation ledger
	ops := api.Group("/operations")
	ops.Get("/", handler.ListOperations)
	ops.Post("/", handler.PostOperation)

	// Target allocations
	targets := api.Group("/targets")
	targets.Get("/:dimension", handler.GetTargets)
	targets.Post("/:dimension", handler.PostTargets)

	// Security reference data
	securities := api.Group("/securities")
	securities.Get("/", handler.ListSecurities)
	securities.Post("/", handler.PostSecurity)
	securities.Post("/:isin/distribution", handler.PostRegionDistribution)
	securities.Post("/:isin/maturity", handler.PostMaturityDistribution)

	// Account preferences
	preferences := api.Group("/preferences")
	preferences.Get("/currency", handler.GetCurrencyPreference)
	preferences.Put("/currency", handler.PutCurrencyPreference)
}
