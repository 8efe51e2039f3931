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
	"time"

	"github.com/copperbook/cb-api/operations"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type operationRequest struct {
	ISIN         string          `json:"isin"`
	Kind         string          `json:"kind"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	Category     string          `json:"category"`
	Date         string          `json:"date"`
}

// PostOperation commits a buy, sell, or dividend
func PostOperation(c *fiber.Ctx) error {
	req := operationRequest{}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Warn().Err(err).Msg("bad operation request")
		return fiber.ErrBadRequest
	}

	kind, err := operations.ParseKind(req.Kind)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	date := time.Now()
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
	}

	op := &operations.Operation{
		ISIN:         req.ISIN,
		Kind:         kind,
		Quantity:     req.Quantity,
		Price:        req.Price,
		ExchangeRate: req.ExchangeRate,
		Category:     req.Category,
		Date:         date,
	}

	ledger := operations.NewLedger(userID(c))
	if err := ledger.Commit(c.Context(), op); err != nil {
		switch {
		case errors.Is(err, operations.ErrInsufficientHoldings),
			errors.Is(err, operations.ErrInvalidQuantity):
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		default:
			log.Warn().Err(err).Str("ISIN", req.ISIN).Msg("could not commit operation")
			return fiber.ErrInternalServerError
		}
	}

	invalidateWeights(userID(c))
	return c.Status(fiber.StatusCreated).JSON(op)
}

// ListOperations returns the account's operation history, oldest first
func ListOperations(c *fiber.Ctx) error {
	ledger := operations.NewLedger(userID(c))
	ops, err := ledger.Operations(c.Context())
	if err != nil {
		log.Warn().Err(err).Msg("could not list operations")
		return fiber.ErrInternalServerError
	}
	return c.JSON(ops)
}
