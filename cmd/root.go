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
	"fmt"
	"os"

	"github.com/copperbook/cb-api/common"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Database
	viper.BindEnv("database.url", "DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	// Account scoping for the CLI commands
	viper.BindEnv("server.default_user", "CB_DEFAULT_USER")
	rootCmd.PersistentFlags().StringP("user", "u", "", "Account to operate on")
	viper.BindPFlag("server.default_user", rootCmd.PersistentFlags().Lookup("user"))

	viper.BindEnv("server.default_currency", "CB_DEFAULT_CURRENCY")
	rootCmd.PersistentFlags().String("default-currency", "EUR", "Settlement currency when the account has no preference")
	viper.BindPFlag("server.default_currency", rootCmd.PersistentFlags().Lookup("default-currency"))

	// Market data provider
	viper.BindEnv("marketdata.url", "CB_MARKETDATA_URL")
	rootCmd.PersistentFlags().String("marketdata-url", "", "Base URL of the market data service")
	viper.BindPFlag("marketdata.url", rootCmd.PersistentFlags().Lookup("marketdata-url"))

	viper.BindEnv("marketdata.token", "CB_MARKETDATA_TOKEN")
	rootCmd.PersistentFlags().String("marketdata-token", "", "API token for the market data service")
	viper.BindPFlag("marketdata.token", rootCmd.PersistentFlags().Lookup("marketdata-token"))

	// Logging configuration
	viper.BindEnv("log.level", "CB_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "CB_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "CB_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in human readable form")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))
}

var rootCmd = &cobra.Command{
	Use:     "cbapi",
	Version: common.CurrentVersion.String(),
	Short:   "Copperbook keeps a personal investment ledger in balance",
	Long: `Copperbook tracks buy, sell, and dividend operations per account,
computes portfolio composition across asset types, regions, and bond
maturities, and plans the next trades that move the portfolio toward its
target allocation.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
