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

// AssetClass partitions securities into the coarse allocation buckets
type AssetClass string

const (
	AssetStock AssetClass = "STOCK"
	AssetBond  AssetClass = "BOND"
	AssetREIT  AssetClass = "REIT"
)

// AssetClasses returns the recognized asset classes in stable order
func AssetClasses() []AssetClass {
	return []AssetClass{AssetBond, AssetREIT, AssetStock}
}

func (c AssetClass) Valid() bool {
	switch c {
	case AssetStock, AssetBond, AssetREIT:
		return true
	}
	return false
}

// Region identifies a geographic allocation bucket
type Region string

const (
	RegionAfrica       Region = "AF"
	RegionAsia         Region = "AS"
	RegionEurope       Region = "EU"
	RegionGlobal       Region = "GL"
	RegionNorthAmerica Region = "NA"
	RegionOceania      Region = "OC"
	RegionSouthAmerica Region = "SA"
)

// Regions returns the recognized regions in stable order
func Regions() []Region {
	return []Region{
		RegionAfrica, RegionAsia, RegionEurope, RegionGlobal,
		RegionNorthAmerica, RegionOceania, RegionSouthAmerica,
	}
}

func (r Region) Valid() bool {
	for _, known := range Regions() {
		if r == known {
			return true
		}
	}
	return false
}

// Maturity identifies a bond maturity bucket (years until the bond matures)
type Maturity string

const (
	Maturity1To3   Maturity = "1-3Y"
	Maturity3To5   Maturity = "3-5Y"
	Maturity5To7   Maturity = "5-7Y"
	Maturity7To10  Maturity = "7-10Y"
	Maturity10To15 Maturity = "10-15Y"
	Maturity15To20 Maturity = "15-20Y"
	Maturity20To30 Maturity = "20-30Y"
	Maturity30Plus Maturity = "30+"
)

// Maturities returns the recognized maturity buckets ordered by term
func Maturities() []Maturity {
	return []Maturity{
		Maturity1To3, Maturity3To5, Maturity5To7, Maturity7To10,
		Maturity10To15, Maturity15To20, Maturity20To30, Maturity30Plus,
	}
}

func (m Maturity) Valid() bool {
	for _, known := range Maturities() {
		if m == known {
			return true
		}
	}
	return false
}

// Dimension names one of the target-allocation dimensions
type Dimension string

const (
	DimensionAssetType  Dimension = "assets"
	DimensionRegion     Dimension = "regions"
	DimensionMaturity   Dimension = "maturities"
	DimensionBondRegion Dimension = "bond-regions"
)

func (d Dimension) Valid() bool {
	switch d {
	case DimensionAssetType, DimensionRegion, DimensionMaturity, DimensionBondRegion:
		return true
	}
	return false
}

// Security represents a tradeable asset; reference data is immutable from the
// engine's perspective and maintained through the admin workflow
type Security struct {
	ISIN         string     `json:"isin"`
	Name         string     `json:"name"`
	Ticker       string     `json:"ticker"`
	Exchange     string     `json:"exchange"`
	Currency     string     `json:"currency"`
	Class        AssetClass `json:"securityType"`
	ExpenseRatio float64    `json:"expenseRatio"`
}

// RegionAllocation assigns a percentage of a security's own value to a region.
// For a given ISIN the allocations across all regions are assumed to sum to ~100.
type RegionAllocation struct {
	ISIN       string  `json:"isin"`
	Region     Region  `json:"region"`
	Allocation float64 `json:"allocation"`
}

// MaturityAllocation assigns a percentage of a bond's value to a maturity bucket
type MaturityAllocation struct {
	ISIN       string   `json:"isin"`
	Maturity   Maturity `json:"maturity"`
	Allocation float64  `json:"allocation"`
}
