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

package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/copperbook/cb-api/allocation"
	"github.com/copperbook/cb-api/common"
	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/database"
	"github.com/copperbook/cb-api/holdings"
	"github.com/copperbook/cb-api/pricing"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(weightsCmd)
}

var weightsCmd = &cobra.Command{
	Use:   "weights [assets|regions|maturities]",
	Short: "Print portfolio weights and deltas for one dimension",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		ctx := context.Background()
		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		dimension := data.DimensionAssetType
		if len(args) == 1 {
			dimension = data.Dimension(args[0])
		}

		store := data.NewStore(viper.GetString("server.default_user"))
		calc := allocation.NewCalculator(store, pricing.NewPreferredCurrencyResolver(store))
		ledger := holdings.NewAccountView(store)

		var weights, deltas map[string]float64
		var err error
		switch dimension {
		case data.DimensionAssetType:
			weights, err = calc.AssetClassWeights(ctx, ledger)
			if err == nil {
				deltas, err = calc.AssetClassDeltas(ctx, ledger)
			}
		case data.DimensionRegion:
			weights, err = calc.RegionWeights(ctx, ledger)
			if err == nil {
				deltas, err = calc.RegionDeltas(ctx, ledger)
			}
		case data.DimensionMaturity:
			weights, err = calc.MaturityWeights(ctx, ledger)
			if err == nil {
				deltas, err = calc.MaturityDeltas(ctx, ledger)
			}
		default:
			log.Fatal().Str("Dimension", string(dimension)).Msg("unknown dimension")
		}
		if err != nil {
			log.Fatal().Err(err).Msg("could not compute weights")
		}

		buckets := make([]string, 0, len(weights))
		for bucket := range weights {
			buckets = append(buckets, bucket)
		}
		for bucket := range deltas {
			if _, ok := weights[bucket]; !ok {
				buckets = append(buckets, bucket)
			}
		}
		sort.Strings(buckets)

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Bucket", "Weight %", "Delta %"})
		table.SetBorder(false)
		for _, bucket := range buckets {
			table.Append([]string{
				bucket,
				fmt.Sprintf("%.2f", weights[bucket]),
				fmt.Sprintf("%.2f", deltas[bucket]),
			})
		}
		table.Render()
	},
}
