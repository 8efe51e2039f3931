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

// RegionDistributions returns the per-security region allocation rows for the
// requested ISINs, ordered by (isin, region). Securities without distribution
// rows simply contribute nothing.
func (s *Store) RegionDistributions(ctx context.Context, isins []string) ([]RegionAllocation, error) {
	trx, err := s.trx(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction to query region distributions")
		return nil, err
	}

	sql := `SELECT isin, region, allocation FROM security_distributions
		WHERE isin = any($1) ORDER BY isin, region`
	rows, err := trx.Query(ctx, sql, isins)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("could not query region distributions")
		rollback(ctx, trx)
		return nil, err
	}

	dists := make([]RegionAllocation, 0, len(isins))
	for rows.Next() {
		var dist RegionAllocation
		var region string
		if err := rows.Scan(&dist.ISIN, &region, &dist.Allocation); err != nil {
			log.Error().Stack().Err(err).Msg("could not scan region distribution row")
			rollback(ctx, trx)
			return nil, err
		}
		dist.Region = Region(region)
		dists = append(dists, dist)
	}

	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Msg("region distribution query read failed")
		rollback(ctx, trx)
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return dists, nil
}

// MaturityDistributions returns the per-security maturity allocation rows for
// the requested ISINs, ordered by (isin, maturity)
func (s *Store) MaturityDistributions(ctx context.Context, isins []string) ([]MaturityAllocation, error) {
	trx, err := s.trx(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction to query maturity distributions")
		return nil, err
	}

	sql := `SELECT isin, maturity, allocation FROM security_bond_maturities
		WHERE isin = any($1) ORDER BY isin, maturity`
	rows, err := trx.Query(ctx, sql, isins)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("could not query maturity distributions")
		rollback(ctx, trx)
		return nil, err
	}

	dists := make([]MaturityAllocation, 0, len(isins))
	for rows.Next() {
		var dist MaturityAllocation
		var maturity string
		if err := rows.Scan(&dist.ISIN, &maturity, &dist.Allocation); err != nil {
			log.Error().Stack().Err(err).Msg("could not scan maturity distribution row")
			rollback(ctx, trx)
			return nil, err
		}
		dist.Maturity = Maturity(maturity)
		dists = append(dists, dist)
	}

	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Msg("maturity distribution query read failed")
		rollback(ctx, trx)
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return dists, nil
}

// SetRegionDistribution replaces one security's allocation row for a region
func (s *Store) SetRegionDistribution(ctx context.Context, dist RegionAllocation) error {
	if !dist.Region.Valid() {
		return ErrUnknownBucket
	}
	if dist.Allocation < 0 || dist.Allocation > 100 {
		return ErrInvalidPercent
	}

	sql := `INSERT INTO security_distributions (isin, region, allocation) VALUES ($1, $2, $3)
		ON CONFLICT (isin, region) DO UPDATE SET allocation=EXCLUDED.allocation`
	return s.execDistribution(ctx, sql, dist.ISIN, string(dist.Region), dist.Allocation)
}

// SetMaturityDistribution replaces one bond's allocation row for a maturity bucket
func (s *Store) SetMaturityDistribution(ctx context.Context, dist MaturityAllocation) error {
	if !dist.Maturity.Valid() {
		return ErrUnknownBucket
	}
	if dist.Allocation < 0 || dist.Allocation > 100 {
		return ErrInvalidPercent
	}

	sql := `INSERT INTO security_bond_maturities (isin, maturity, allocation) VALUES ($1, $2, $3)
		ON CONFLICT (isin, maturity) DO UPDATE SET allocation=EXCLUDED.allocation`
	return s.execDistribution(ctx, sql, dist.ISIN, string(dist.Maturity), dist.Allocation)
}

func (s *Store) execDistribution(ctx context.Context, sql, isin, bucket string, allocation float64) error {
	subLog := log.With().Str("ISIN", isin).Str("Bucket", bucket).Logger()

	trx, err := s.trx(ctx)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction to store distribution")
		return err
	}

	if _, err := trx.Exec(ctx, sql, isin, bucket, allocation); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not store distribution row")
		rollback(ctx, trx)
		return err
	}

	return trx.Commit(ctx)
}
