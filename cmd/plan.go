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

	"github.com/copperbook/cb-api/allocation"
	"github.com/copperbook/cb-api/common"
	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/database"
	"github.com/copperbook/cb-api/holdings"
	"github.com/copperbook/cb-api/pricing"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan <buy|sell> <amount>",
	Short: "Plan the trades that move the portfolio toward its targets",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		direction, err := allocation.ParseDirection(args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("invalid direction")
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil || amount.IsNegative() {
			log.Fatal().Str("Amount", args[1]).Msg("amount must be a non-negative number")
		}

		ctx := context.Background()
		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		store := data.NewStore(viper.GetString("server.default_user"))
		ledger := holdings.NewAccountView(store)
		planner := allocation.NewPlanner(store, pricing.NewPreferredCurrencyResolver(store), ledger)

		before, err := ledger.Quantities(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load holdings")
		}

		result, err := planner.Plan(ctx, direction, amount)
		if err != nil {
			log.Fatal().Err(err).Msg("plan failed")
		}

		orders, err := planner.OperationList(ctx, before, result.Quantities)
		if err != nil {
			log.Fatal().Err(err).Msg("could not build order list")
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Op", "ISIN", "Ticker", "Units", "Unit Price", "Total"})
		table.SetBorder(false)
		for _, order := range orders {
			table.Append([]string{
				order.Operation,
				order.ISIN,
				order.Ticker,
				order.Units.String(),
				order.UnitPrice.StringFixed(2),
				order.TotalPrice.StringFixed(2),
			})
		}
		table.Render()

		fmt.Printf("spent %s of %s (remaining %s)\n", result.Spent.StringFixed(2), amount.StringFixed(2), result.Remaining.StringFixed(2))
		if !result.Spent.Equal(amount) {
			fmt.Println("plan is partial: no further eligible purchase or sale was possible")
		}
	},
}
