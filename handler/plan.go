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
	"errors"

	"github.com/copperbook/cb-api/allocation"
	"github.com/copperbook/cb-api/holdings"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type planRequest struct {
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
}

type planResponse struct {
	Direction string                     `json:"direction"`
	Spent     decimal.Decimal            `json:"spent"`
	Remaining decimal.Decimal            `json:"remaining"`
	Partial   bool                       `json:"partial"`
	Orders    []allocation.Order         `json:"orders"`
	Holdings  map[string]decimal.Decimal `json:"holdings"`
}

// PostPlan runs the greedy planner and returns the resulting order list.
// A plan that could not consume the full amount is reported with partial set,
// never as an error.
func PostPlan(c *fiber.Ctx) error {
	req := planRequest{}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Warn().Err(err).Msg("bad plan request")
		return fiber.ErrBadRequest
	}

	direction, err := allocation.ParseDirection(req.Direction)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Amount.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
	}

	store := storeFor(c)
	ledger := holdings.NewAccountView(store)
	planner := allocation.NewPlanner(store, resolverFor(store), ledger)

	before, err := ledger.Quantities(c.Context())
	if err != nil {
		log.Warn().Err(err).Msg("could not load holdings for plan")
		return fiber.ErrInternalServerError
	}

	result, err := planner.Plan(c.Context(), direction, req.Amount)
	if err != nil {
		if errors.Is(err, allocation.ErrRebalanceNotSupported) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		log.Warn().Err(err).Str("Direction", req.Direction).Msg("plan failed")
		return fiber.ErrInternalServerError
	}

	orders, err := planner.OperationList(c.Context(), before, result.Quantities)
	if err != nil {
		log.Warn().Err(err).Msg("could not build order list")
		return fiber.ErrInternalServerError
	}

	return c.JSON(planResponse{
		Direction: direction.String(),
		Spent:     result.Spent,
		Remaining: result.Remaining,
		Partial:   !result.Spent.Equal(req.Amount),
		Orders:    orders,
		Holdings:  result.Quantities,
	})
}
