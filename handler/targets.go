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

	"github.com/copperbook/cb-api/data"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type targetRequest struct {
	Targets map[string]float64 `json:"targets"`
}

// GetTargets returns the per-bucket target percentages for a dimension
func GetTargets(c *fiber.Ctx) error {
	dimension := data.Dimension(c.Params("dimension"))
	if !dimension.Valid() {
		return fiber.ErrBadRequest
	}

	targets, err := storeFor(c).Targets(c.Context(), dimension)
	if err != nil {
		log.Warn().Err(err).Str("Dimension", string(dimension)).Msg("could not load targets")
		return fiber.ErrInternalServerError
	}
	return c.JSON(targets)
}

// PostTargets upserts target percentages for a dimension. Every bucket must
// belong to the dimension and every percentage must fall within 0 to 100.
func PostTargets(c *fiber.Ctx) error {
	dimension := data.Dimension(c.Params("dimension"))
	if !dimension.Valid() {
		return fiber.ErrBadRequest
	}

	req := targetRequest{}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Warn().Err(err).Msg("bad target request")
		return fiber.ErrBadRequest
	}

	store := storeFor(c)
	for bucket, allocation := range req.Targets {
		if err := store.SetTarget(c.Context(), dimension, bucket, allocation); err != nil {
			switch {
			case errors.Is(err, data.ErrUnknownBucket), errors.Is(err, data.ErrInvalidPercent):
				return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
			default:
				log.Warn().Err(err).Str("Bucket", bucket).Msg("could not store target")
				return fiber.ErrInternalServerError
			}
		}
	}

	invalidateWeights(userID(c))
	targets, err := store.Targets(c.Context(), dimension)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(targets)
}
