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

	"github.com/copperbook/cb-api/common"
	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/database"
	"github.com/copperbook/cb-api/operations"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay the operation history and compare against stored quantities",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		ctx := context.Background()
		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		userID := viper.GetString("server.default_user")
		store := data.NewStore(userID)

		stored, err := store.SecurityQuantities(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load stored quantities")
		}
		replayed, err := operations.NewLedger(userID).Rebuild(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not replay operation history")
		}

		isins := make([]string, 0, len(stored))
		for isin := range stored {
			isins = append(isins, isin)
		}
		for isin := range replayed {
			if _, ok := stored[isin]; !ok {
				isins = append(isins, isin)
			}
		}
		sort.Strings(isins)

		mismatches := 0
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ISIN", "Stored", "Replayed", "Status"})
		table.SetBorder(false)
		for _, isin := range isins {
			status := "ok"
			if !stored[isin].Equal(replayed[isin]) {
				status = "MISMATCH"
				mismatches++
			}
			table.Append([]string{
				isin,
				stored[isin].String(),
				replayed[isin].String(),
				status,
			})
		}
		table.Render()

		if mismatches > 0 {
			fmt.Printf("%d securities do not reconcile against their history\n", mismatches)
			os.Exit(1)
		}
	},
}
