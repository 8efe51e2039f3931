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

package allocation

import (
	"context"
	"sort"

	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/holdings"
)

// Deltas computes actual minus target weight per bucket. It iterates the
// TARGET set, not the weight set: a bucket the user targets but does not hold
// yields delta = -target, fully under-allocated. Positive delta means
// over-allocated.
func Deltas(weights, targets map[string]float64) map[string]float64 {
	deltas := make(map[string]float64, len(targets))
	for bucket, target := range targets {
		deltas[bucket] = weights[bucket] - target
	}
	return deltas
}

// AssetClassDeltas computes deltas for the asset-class dimension against the
// user's type targets
func (c *Calculator) AssetClassDeltas(ctx context.Context, ledger holdings.Reader) (map[string]float64, error) {
	weights, err := c.AssetClassWeights(ctx, ledger)
	if err != nil {
		return nil, err
	}
	targets, err := c.store.Targets(ctx, data.DimensionAssetType)
	if err != nil {
		return nil, err
	}
	return Deltas(weights, targets), nil
}

// RegionDeltas computes deltas for the geographic dimension
func (c *Calculator) RegionDeltas(ctx context.Context, ledger holdings.Reader) (map[string]float64, error) {
	weights, err := c.RegionWeights(ctx, ledger)
	if err != nil {
		return nil, err
	}
	targets, err := c.store.Targets(ctx, data.DimensionRegion)
	if err != nil {
		return nil, err
	}
	return Deltas(weights, targets), nil
}

// MaturityDeltas computes deltas for the bond maturity dimension
func (c *Calculator) MaturityDeltas(ctx context.Context, ledger holdings.Reader) (map[string]float64, error) {
	weights, err := c.MaturityWeights(ctx, ledger)
	if err != nil {
		return nil, err
	}
	targets, err := c.store.Targets(ctx, data.DimensionMaturity)
	if err != nil {
		return nil, err
	}
	return Deltas(weights, targets), nil
}

// pickBucket selects the most under-allocated bucket when buying and the most
// over-allocated bucket when selling. Ties break on the lexicographically
// smallest bucket key so planning runs are deterministic.
func pickBucket(deltas map[string]float64, direction Direction) (string, bool) {
	if len(deltas) == 0 {
		return "", false
	}

	buckets := make([]string, 0, len(deltas))
	for bucket := range deltas {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)

	selected := buckets[0]
	for _, bucket := range buckets[1:] {
		switch direction {
		case DirectionBuy:
			if deltas[bucket] < deltas[selected] {
				selected = bucket
			}
		case DirectionSell:
			if deltas[bucket] > deltas[selected] {
				selected = bucket
			}
		}
	}

	return selected, true
}
