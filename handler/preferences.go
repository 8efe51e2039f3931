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
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type currencyPreference struct {
	Currency string `json:"currency"`
}

// GetCurrencyPreference returns the account's settlement currency
func GetCurrencyPreference(c *fiber.Ctx) error {
	currency, err := storeFor(c).CurrencyPreference(c.Context())
	if err != nil {
		log.Warn().Err(err).Msg("could not load currency preference")
		return fiber.ErrInternalServerError
	}
	return c.JSON(currencyPreference{Currency: currency})
}

// PutCurrencyPreference sets the account's settlement currency
func PutCurrencyPreference(c *fiber.Ctx) error {
	req := currencyPreference{}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Warn().Err(err).Msg("bad currency preference request")
		return fiber.ErrBadRequest
	}
	if len(req.Currency) != 3 {
		return fiber.NewError(fiber.StatusBadRequest, "currency must be a 3 letter code")
	}

	if err := storeFor(c).SetCurrencyPreference(c.Context(), req.Currency); err != nil {
		log.Warn().Err(err).Msg("could not store currency preference")
		return fiber.ErrInternalServerError
	}

	invalidateWeights(userID(c))
	return c.JSON(currencyPreference{Currency: req.Currency})
}
