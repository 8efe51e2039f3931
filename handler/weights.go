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
	"context"
	"fmt"

	"github.com/copperbook/cb-api/allocation"
	"github.com/copperbook/cb-api/common"
	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/holdings"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type weightFunc func(ctx context.Context, ledger holdings.Reader) (map[string]float64, error)

// GetAssetClassWeights returns the portfolio's percentage weight per asset
// type
func GetAssetClassWeights(c *fiber.Ctx) error {
	return serveWeights(c, data.DimensionAssetType, func(calc *allocation.Calculator) weightFunc {
		return calc.AssetClassWeights
	})
}

// GetRegionWeights returns the portfolio's percentage weight per geographic
// region
func GetRegionWeights(c *fiber.Ctx) error {
	return serveWeights(c, data.DimensionRegion, func(calc *allocation.Calculator) weightFunc {
		return calc.RegionWeights
	})
}

// GetMaturityWeights returns the portfolio's percentage weight per bond
// maturity bucket
func GetMaturityWeights(c *fiber.Ctx) error {
	return serveWeights(c, data.DimensionMaturity, func(calc *allocation.Calculator) weightFunc {
		return calc.MaturityWeights
	})
}

// GetDeltas returns weight minus target per bucket for the requested
// dimension
func GetDeltas(c *fiber.Ctx) error {
	store := storeFor(c)
	calc := allocation.NewCalculator(store, resolverFor(store))
	ledger := holdings.NewAccountView(store)

	var deltas map[string]float64
	var err error
	switch data.Dimension(c.Params("dimension")) {
	case data.DimensionAssetType:
		deltas, err = calc.AssetClassDeltas(c.Context(), ledger)
	case data.DimensionRegion:
		deltas, err = calc.RegionDeltas(c.Context(), ledger)
	case data.DimensionMaturity:
		deltas, err = calc.MaturityDeltas(c.Context(), ledger)
	default:
		return fiber.ErrBadRequest
	}
	if err != nil {
		log.Warn().Err(err).Str("Dimension", c.Params("dimension")).Msg("could not compute deltas")
		return fiber.ErrInternalServerError
	}
	return c.JSON(deltas)
}

// serveWeights computes one weight dimension with a short-lived cache in
// front. Cached entries are keyed per user and dimension; any committed
// operation invalidates them.
func serveWeights(c *fiber.Ctx, dimension data.Dimension, pick func(*allocation.Calculator) weightFunc) error {
	key := weightCacheKey(userID(c), dimension)
	if cached, err := common.CacheGet(key); err == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(cached)
	}

	store := storeFor(c)
	calc := allocation.NewCalculator(store, resolverFor(store))
	weights, err := pick(calc)(c.Context(), holdings.NewAccountView(store))
	if err != nil {
		log.Warn().Err(err).Str("Dimension", string(dimension)).Msg("could not compute weights")
		return fiber.ErrInternalServerError
	}

	body, err := json.Marshal(weights)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if err := common.CacheSet(key, body); err != nil {
		log.Warn().Err(err).Msg("could not cache weights")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func weightCacheKey(userID string, dimension data.Dimension) string {
	return fmt.Sprintf("weights:%s:%s", userID, dimension)
}

func invalidateWeights(userID string) {
	for _, dimension := range []data.Dimension{data.DimensionAssetType, data.DimensionRegion, data.DimensionMaturity} {
		common.CacheDelete(weightCacheKey(userID, dimension))
	}
}
