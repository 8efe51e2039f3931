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

// ListSecurities returns the full security reference catalog
func ListSecurities(c *fiber.Ctx) error {
	securities, err := storeFor(c).Securities(c.Context())
	if err != nil {
		log.Warn().Err(err).Msg("could not list securities")
		return fiber.ErrInternalServerError
	}
	return c.JSON(securities)
}

// PostSecurity creates or updates one security's reference data
func PostSecurity(c *fiber.Ctx) error {
	security := data.Security{}
	if err := json.Unmarshal(c.Body(), &security); err != nil {
		log.Warn().Err(err).Msg("bad security request")
		return fiber.ErrBadRequest
	}
	if security.ISIN == "" || security.Ticker == "" {
		return fiber.NewError(fiber.StatusBadRequest, "isin and ticker are required")
	}

	if err := storeFor(c).UpsertSecurity(c.Context(), &security); err != nil {
		if errors.Is(err, data.ErrUnknownBucket) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		log.Warn().Err(err).Str("ISIN", security.ISIN).Msg("could not store security")
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(security)
}

type distributionRequest struct {
	Rows map[string]float64 `json:"rows"`
}

// PostRegionDistribution replaces a security's per-region allocation rows
func PostRegionDistribution(c *fiber.Ctx) error {
	isin := c.Params("isin")
	req := distributionRequest{}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Warn().Err(err).Msg("bad distribution request")
		return fiber.ErrBadRequest
	}

	store := storeFor(c)
	if err := requireSecurity(c, store, isin); err != nil {
		return err
	}
	for bucket, allocation := range req.Rows {
		err := store.SetRegionDistribution(c.Context(), data.RegionAllocation{
			ISIN:       isin,
			Region:     data.Region(bucket),
			Allocation: allocation,
		})
		if err != nil {
			return distributionError(c, err, isin, bucket)
		}
	}

	invalidateWeights(userID(c))
	return c.SendStatus(fiber.StatusNoContent)
}

// PostMaturityDistribution replaces a bond's per-maturity allocation rows
func PostMaturityDistribution(c *fiber.Ctx) error {
	isin := c.Params("isin")
	req := distributionRequest{}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Warn().Err(err).Msg("bad distribution request")
		return fiber.ErrBadRequest
	}

	store := storeFor(c)
	if err := requireSecurity(c, store, isin); err != nil {
		return err
	}
	for bucket, allocation := range req.Rows {
		err := store.SetMaturityDistribution(c.Context(), data.MaturityAllocation{
			ISIN:       isin,
			Maturity:   data.Maturity(bucket),
			Allocation: allocation,
		})
		if err != nil {
			return distributionError(c, err, isin, bucket)
		}
	}

	invalidateWeights(userID(c))
	return c.SendStatus(fiber.StatusNoContent)
}

// requireSecurity rejects distribution writes against ISINs that have no
// catalog entry
func requireSecurity(c *fiber.Ctx, store *data.Store, isin string) error {
	known, err := store.SecuritiesByISIN(c.Context(), []string{isin})
	if err != nil {
		log.Warn().Err(err).Str("ISIN", isin).Msg("could not look up security")
		return fiber.ErrInternalServerError
	}
	if _, ok := known[isin]; !ok {
		return fiber.NewError(fiber.StatusNotFound, data.ErrSecurityNotFound.Error())
	}
	return nil
}

func distributionError(c *fiber.Ctx, err error, isin, bucket string) error {
	switch {
	case errors.Is(err, data.ErrUnknownBucket), errors.Is(err, data.ErrInvalidPercent):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		log.Warn().Err(err).Str("ISIN", isin).Str("Bucket", bucket).Msg("could not store distribution")
		return fiber.ErrInternalServerError
	}
}
