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

package handler

import (
	"github.com/copperbook/cb-api/operations"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type holdingsResponse struct {
	Quantities  map[string]decimal.Decimal       `json:"quantities"`
	Performance []operations.SecurityPerformance `json:"performance"`
}

// GetHoldings returns current quantities plus per-security cost basis and
// return
func GetHoldings(c *fiber.Ctx) error {
	store := storeFor(c)
	ledger := operations.NewLedger(userID(c))

	quantities, err := store.SecurityQuantities(c.Context())
	if err != nil {
		log.Warn().Err(err).Msg("could not load holdings")
		return fiber.ErrInternalServerError
	}

	performance, err := ledger.Performance(c.Context(), store, resolverFor(store))
	if err != nil {
		log.Warn().Err(err).Msg("could not measure performance")
		return fiber.ErrInternalServerError
	}

	return c.JSON(holdingsResponse{
		Quantities:  quantities,
		Performance: performance,
	})
}
