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

// Package handler exposes the portfolio engine over HTTP. Every request is
// scoped to the account named in the X-User-Id header; when the header is
// absent the server.default_user setting applies, which keeps single-user
// deployments header-free.
package handler

import (
	"github.com/copperbook/cb-api/data"
	"github.com/copperbook/cb-api/pricing"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
)

func userID(c *fiber.Ctx) string {
	if id := c.Get("X-User-Id"); id != "" {
		return id
	}
	return viper.GetString("server.default_user")
}

func storeFor(c *fiber.Ctx) *data.Store {
	return data.NewStore(userID(c))
}

func resolverFor(store *data.Store) *pricing.PreferredCurrencyResolver {
	return pricing.NewPreferredCurrencyResolver(store)
}

// Ping responds to health checks
func Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
