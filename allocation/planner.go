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
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/holdings"
)

// Direction tags a planning run
type Direction int

const (
	DirectionBuy Direction = iota
	DirectionSell
	DirectionRebalance
)

var (
	ErrNoEligibleSecurity    = errors.New("no eligible security for selected bucket")
	ErrRebalanceNotSupported = errors.New("rebalance is not yet supported")
	ErrUnknownDirection      = errors.New("unknown plan direction")
)

var one = decimal.NewFromInt(1)

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "buy"
	case DirectionSell:
		return "sell"
	case DirectionRebalance:
		return "rebalance"
	}
	return "unknown"
}

// ParseDirection converts a wire value into a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "buy":
		return DirectionBuy, nil
	case "sell":
		return DirectionSell, nil
	case "rebalance":
		return DirectionRebalance, nil
	}
	return DirectionBuy, ErrUnknownDirection
}

// Result is the outcome of a planning run. Quantities is the overlay's full
// final map, not a diff; Spent equals the requested amount only when the plan
// completed fully. Partial completion is not an error.
type Result struct {
	Quantities map[string]decimal.Decimal `json:"quantities"`
	Spent      decimal.Decimal            `json:"spent"`
	Remaining  decimal.Decimal            `json:"remaining"`
}

// Planner greedily moves a simulated portfolio toward the user's targets one
// unit at a time. Each run seeds a private overlay from the live ledger; the
// overlay is never shared and persisted holdings are never touched.
type Planner struct {
	store  Store
	prices PriceResolver
	calc   *Calculator
	ledger holdings.Reader
}

func NewPlanner(store Store, prices PriceResolver, ledger holdings.Reader) *Planner {
	return &Planner{
		store:  store,
		prices: prices,
		calc:   NewCalculator(store, prices),
		ledger: ledger,
	}
}

// Plan runs the greedy allocation loop for the given direction and cash
// amount. The loop terminates when the amount is exactly consumed or when an
// iteration can make no progress (remaining funds below the selected
// security's unit price, no eligible security, or no known price). The best
// partial allocation reached is returned in both cases; callers detect partial
// completion by comparing Spent with the requested amount.
func (p *Planner) Plan(ctx context.Context, direction Direction, amount decimal.Decimal) (*Result, error) {
	if direction == DirectionRebalance {
		return nil, ErrRebalanceNotSupported
	}
	if direction != DirectionBuy && direction != DirectionSell {
		return nil, ErrUnknownDirection
	}

	subLog := log.With().Str("Direction", direction.String()).Str("Amount", amount.String()).Logger()

	overlay := holdings.NewOverlay()
	if err := overlay.Seed(ctx, p.ledger); err != nil {
		return nil, err
	}

	spent := decimal.Zero
	remaining := amount
	updated := true

	for !spent.Equal(amount) && updated {
		updated = false

		deltas, err := p.calc.AssetClassDeltas(ctx, overlay)
		if err != nil {
			return nil, err
		}

		bucket, ok := pickBucket(deltas, direction)
		if !ok {
			subLog.Debug().Msg("no asset-class targets configured; stopping")
			break
		}

		isin, err := p.selectSecurity(ctx, overlay, direction, data.AssetClass(bucket))
		if err != nil {
			if errors.Is(err, ErrNoEligibleSecurity) {
				// planning-time condition, not a failure: return the partial plan
				subLog.Debug().Str("Bucket", bucket).Msg("no eligible security; stopping")
				break
			}
			return nil, err
		}
		if isin == "" {
			break
		}

		prices, err := p.prices.LatestPrices(ctx, []string{isin})
		if err != nil {
			return nil, err
		}
		price, ok := prices[isin]
		if !ok || !price.IsPositive() {
			// price unknown (or degraded to zero): this security cannot be
			// traded right now
			subLog.Debug().Str("ISIN", isin).Msg("no usable price; stopping")
			break
		}

		if remaining.GreaterThanOrEqual(price) {
			qty := overlay.Quantity(isin)
			switch direction {
			case DirectionBuy:
				overlay.SetQuantity(isin, qty.Add(one))
			case DirectionSell:
				// candidate selection guarantees qty >= 1
				overlay.SetQuantity(isin, qty.Sub(one))
			}
			spent = spent.Add(price)
			remaining = remaining.Sub(price)
			updated = true
		}
	}

	subLog.Debug().Str("Spent", spent.String()).Msg("planning run finished")

	return &Result{
		Quantities: overlay.Snapshot(),
		Spent:      spent,
		Remaining:  remaining,
	}, nil
}

// selectSecurity picks the concrete security to trade within an asset class.
// Stocks recurse into the region dimension and bonds into the maturity
// dimension; the security most concentrated in the chosen sub-bucket wins.
// This is a heuristic, not an optimum.
func (p *Planner) selectSecurity(ctx context.Context, overlay *holdings.Overlay, direction Direction, class data.AssetClass) (string, error) {
	switch class {
	case data.AssetStock:
		deltas, err := p.calc.RegionDeltas(ctx, overlay)
		if err != nil {
			return "", err
		}
		sub, ok := pickBucket(deltas, direction)
		if !ok {
			return "", ErrNoEligibleSecurity
		}
		return p.mostConcentrated(ctx, overlay, direction, class, func(isins []string) ([]bucketShare, error) {
			dists, err := p.store.RegionDistributions(ctx, isins)
			if err != nil {
				return nil, err
			}
			shares := make([]bucketShare, 0, len(dists))
			for _, dist := range dists {
				if string(dist.Region) == sub {
					shares = append(shares, bucketShare{isin: dist.ISIN, allocation: dist.Allocation})
				}
			}
			return shares, nil
		})
	case data.AssetBond:
		deltas, err := p.calc.MaturityDeltas(ctx, overlay)
		if err != nil {
			return "", err
		}
		sub, ok := pickBucket(deltas, direction)
		if !ok {
			return "", ErrNoEligibleSecurity
		}
		return p.mostConcentrated(ctx, overlay, direction, class, func(isins []string) ([]bucketShare, error) {
			dists, err := p.store.MaturityDistributions(ctx, isins)
			if err != nil {
				return nil, err
			}
			shares := make([]bucketShare, 0, len(dists))
			for _, dist := range dists {
				if string(dist.Maturity) == sub {
					shares = append(shares, bucketShare{isin: dist.ISIN, allocation: dist.Allocation})
				}
			}
			return shares, nil
		})
	case data.AssetREIT:
		return p.selectREIT(ctx, overlay, direction)
	}
	return "", ErrNoEligibleSecurity
}

type bucketShare struct {
	isin       string
	allocation float64
}

// mostConcentrated returns the class member with the highest allocation in the
// chosen sub-bucket. Sells only consider securities with at least one whole
// unit in the overlay, so a simulated position can never go negative. Ties
// break on the lexicographically smallest ISIN.
func (p *Planner) mostConcentrated(ctx context.Context, overlay *holdings.Overlay, direction Direction, class data.AssetClass, shares func([]string) ([]bucketShare, error)) (string, error) {
	members, err := p.store.SecuritiesByClass(ctx, class)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", ErrNoEligibleSecurity
	}

	isins := make([]string, 0, len(members))
	for _, security := range members {
		isins = append(isins, security.ISIN)
	}

	candidates, err := shares(isins)
	if err != nil {
		return "", err
	}

	selected := ""
	best := 0.0
	for _, candidate := range candidates {
		if direction == DirectionSell && overlay.Quantity(candidate.isin).LessThan(one) {
			continue
		}
		if selected == "" || candidate.allocation > best ||
			(candidate.allocation == best && candidate.isin < selected) {
			selected = candidate.isin
			best = candidate.allocation
		}
	}

	if selected == "" {
		return "", ErrNoEligibleSecurity
	}
	return selected, nil
}

// selectREIT picks a REIT directly; the dimension has no sub-bucket step.
// Securities quoted in the user's preferred currency win over the rest.
func (p *Planner) selectREIT(ctx context.Context, overlay *holdings.Overlay, direction Direction) (string, error) {
	members, err := p.store.SecuritiesByClass(ctx, data.AssetREIT)
	if err != nil {
		return "", err
	}

	preferred, err := p.store.CurrencyPreference(ctx)
	if err != nil {
		return "", err
	}

	eligible := make([]*data.Security, 0, len(members))
	for _, security := range members {
		if direction == DirectionSell && overlay.Quantity(security.ISIN).LessThan(one) {
			continue
		}
		eligible = append(eligible, security)
	}

	for _, security := range eligible {
		if security.Currency == preferred {
			return security.ISIN, nil
		}
	}
	if len(eligible) > 0 {
		return eligible[0].ISIN, nil
	}

	return "", ErrNoEligibleSecurity
}
