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
	"os/signal"
	"time"

	"github.com/copperbook/cb-api/common"
	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/database"
	"github.com/copperbook/cb-api/middleware"
	"github.com/copperbook/cb-api/pricefeed"
	"github.com/copperbook/cb-api/router"

	"github.com/go-co-op/gocron"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	serveCmd.Flags().String("cors-origins", "http://localhost:8080", "Comma separated list of allowed CORS origins")
	viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins"))

	serveCmd.Flags().Int("price-refresh-hours", 24, "Hours between scheduled price refreshes; 0 disables the schedule")
	viper.BindPFlag("marketdata.refresh_hours", serveCmd.Flags().Lookup("price-refresh-hours"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the cb-api server",
	Long:  `Run HTTP server that exposes the Copperbook portfolio API`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging")

		// setup database
		if err := database.Connect(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		app := fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("shutdown failed")
			}
		}()

		corsConfig := cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}
		app.Use(cors.New(corsConfig))
		app.Use(middleware.NewLogger())

		router.SetupRoutes(app)

		// periodic price refresh
		refreshHours := viper.GetInt("marketdata.refresh_hours")
		if refreshHours > 0 && viper.GetString("marketdata.url") != "" {
			scheduler := gocron.NewScheduler(time.UTC)
			scheduler.Every(refreshHours).Hours().Do(func() {
				store := data.NewStore(viper.GetString("server.default_user"))
				updater := pricefeed.NewUpdater(pricefeed.NewHTTPProvider(), store, 7*24*time.Hour)
				if err := updater.Refresh(context.Background()); err != nil {
					log.Warn().Err(err).Msg("scheduled price refresh failed")
				}
			})
			scheduler.StartAsync()
		}

		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	},
}
