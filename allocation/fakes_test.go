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

package allocation_test

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/data"
)

// fakeStore serves reference data from memory
type fakeStore struct {
	securities map[string]*data.Security
	regions    []data.RegionAllocation
	maturities []data.MaturityAllocation
	targets    map[data.Dimension]map[string]float64
	currency   string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		securities: make(map[string]*data.Security),
		targets:    make(map[data.Dimension]map[string]float64),
		currency:   "EUR",
	}
}

func (s *fakeStore) addSecurity(security *data.Security) {
	s.securities[security.ISIN] = security
}

func (s *fakeStore) setTargets(dimension data.Dimension, targets map[string]float64) {
	s.targets[dimension] = targets
}

func (s *fakeStore) SecuritiesByISIN(_ context.Context, isins []string) (map[string]*data.Security, error) {
	result := make(map[string]*data.Security, len(isins))
	for _, isin := range isins {
		if security, ok := s.securities[isin]; ok {
			result[isin] = security
		}
	}
	return result, nil
}

func (s *fakeStore) SecuritiesByClass(_ context.Context, class data.AssetClass) ([]*data.Security, error) {
	members := make([]*data.Security, 0, len(s.securities))
	for _, security := range s.securities {
		if security.Class == class {
			members = append(members, security)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ISIN < members[j].ISIN })
	return members, nil
}

func (s *fakeStore) RegionDistributions(_ context.Context, isins []string) ([]data.RegionAllocation, error) {
	return filterRows(s.regions, isins, func(r data.RegionAllocation) string { return r.ISIN }), nil
}

func (s *fakeStore) MaturityDistributions(_ context.Context, isins []string) ([]data.MaturityAllocation, error) {
	return filterRows(s.maturities, isins, func(m data.MaturityAllocation) string { return m.ISIN }), nil
}

func (s *fakeStore) Targets(_ context.Context, dimension data.Dimension) (map[string]float64, error) {
	targets := make(map[string]float64, len(s.targets[dimension]))
	for bucket, allocation := range s.targets[dimension] {
		targets[bucket] = allocation
	}
	return targets, nil
}

func (s *fakeStore) CurrencyPreference(_ context.Context) (string, error) {
	return s.currency, nil
}

func filterRows[T any](rows []T, isins []string, key func(T) string) []T {
	wanted := make(map[string]bool, len(isins))
	for _, isin := range isins {
		wanted[isin] = true
	}
	result := make([]T, 0, len(rows))
	for _, row := range rows {
		if wanted[key(row)] {
			result = append(result, row)
		}
	}
	return result
}

// fakePrices resolves prices from a static map; absent keys model securities
// with no price history
type fakePrices struct {
	prices map[string]decimal.Decimal
}

func (p *fakePrices) LatestPrices(_ context.Context, isins []string) (map[string]decimal.Decimal, error) {
	result := make(map[string]decimal.Decimal, len(isins))
	for _, isin := range isins {
		if price, ok := p.prices[isin]; ok {
			result[isin] = price
		}
	}
	return result, nil
}
