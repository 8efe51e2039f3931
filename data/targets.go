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

package data

import (
	"context"

	"github.com/rs/zerolog/log"
)

// one table per target dimension; all share the (user_id, bucket, allocation) shape
var targetTables = map[Dimension]string{
	DimensionAssetType:  "security_type_targets",
	DimensionRegion:     "security_region_targets",
	DimensionMaturity:   "security_bond_maturity_targets",
	DimensionBondRegion: "security_bond_region_targets",
}

func validBucket(dimension Dimension, bucket string) bool {
	switch dimension {
	case DimensionAssetType:
		return AssetClass(bucket).Valid()
	case DimensionRegion, DimensionBondRegion:
		return Region(bucket).Valid()
	case DimensionMaturity:
		return Maturity(bucket).Valid()
	}
	return false
}

// Targets returns the user's target allocation per bucket for one dimension.
// Buckets with no stored target are absent; the delta engine iterates this map,
// so an absent bucket has no delta at all.
func (s *Store) Targets(ctx context.Context, dimension Dimension) (map[string]float64, error) {
	table, ok := targetTables[dimension]
	if !ok {
		return nil, ErrUnknownBucket
	}

	trx, err := s.trx(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction to query targets")
		return nil, err
	}

	sql := `SELECT bucket, allocation FROM ` + table + ` WHERE user_id=$1 ORDER BY bucket`
	rows, err := trx.Query(ctx, sql, s.userID)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("could not query targets")
		rollback(ctx, trx)
		return nil, err
	}

	targets := make(map[string]float64)
	for rows.Next() {
		var bucket string
		var allocation float64
		if err := rows.Scan(&bucket, &allocation); err != nil {
			log.Error().Stack().Err(err).Msg("could not scan target row")
			rollback(ctx, trx)
			return nil, err
		}
		targets[bucket] = allocation
	}

	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Msg("target query read failed")
		rollback(ctx, trx)
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return targets, nil
}

// SetTarget upserts one bucket's target percentage for a dimension
func (s *Store) SetTarget(ctx context.Context, dimension Dimension, bucket string, allocation float64) error {
	table, ok := targetTables[dimension]
	if !ok {
		return ErrUnknownBucket
	}
	if !validBucket(dimension, bucket) {
		return ErrUnknownBucket
	}
	if allocation < 0 || allocation > 100 {
		return ErrInvalidPercent
	}

	subLog := log.With().Str("Dimension", string(dimension)).Str("Bucket", bucket).Logger()

	trx, err := s.trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction to upsert target")
		return err
	}

	sql := `INSERT INTO ` + table + ` (user_id, bucket, allocation) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, bucket) DO UPDATE SET allocation=EXCLUDED.allocation`
	if _, err := trx.Exec(ctx, sql, s.userID, bucket, allocation); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not upsert target")
		rollback(ctx, trx)
		return err
	}

	return trx.Commit(ctx)
}
