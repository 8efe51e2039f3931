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
	"time"

	"github.com/copperbook/cb-api/common"
	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/database"
	"github.com/copperbook/cb-api/pricefeed"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	updateCmd.Flags().Int("lookback-days", 7, "Days of price history to request")
	viper.BindPFlag("marketdata.lookback_days", updateCmd.Flags().Lookup("lookback-days"))

	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch the latest security prices and exchange rates",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		ctx := context.Background()
		if err := database.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		lookback := time.Duration(viper.GetInt("marketdata.lookback_days")) * 24 * time.Hour
		store := data.NewStore(viper.GetString("server.default_user"))
		updater := pricefeed.NewUpdater(pricefeed.NewHTTPProvider(), store, lookback)
		if err := updater.Refresh(ctx); err != nil {
			log.Fatal().Err(err).Msg("price refresh failed")
		}
	},
}
