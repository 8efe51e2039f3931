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

package pricefeed

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type eodQuoteResponse struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

type fxRateResponse struct {
	Pair string  `json:"pair"`
	Rate float64 `json:"rate"`
	Date string  `json:"date"`
}

// HTTPProvider reads quotes from a JSON market-data API. The base URL and
// API token come from the marketdata.url and marketdata.token settings.
type HTTPProvider struct {
	client *http.Client
	url    string
	token  string
}

// NewHTTPProvider constructs a provider from viper configuration.
func NewHTTPProvider() *HTTPProvider {
	return &HTTPProvider{
		client: &http.Client{Timeout: 30 * time.Second},
		url:    viper.GetString("marketdata.url"),
		token:  viper.GetString("marketdata.token"),
	}
}

// Quotes returns daily close observations for symbol since the given date,
// oldest first.
func (p *HTTPProvider) Quotes(ctx context.Context, symbol string, since time.Time) ([]*Quote, error) {
	subLog := log.With().Str("Symbol", symbol).Time("Since", since).Logger()
	url := fmt.Sprintf("%s/eod/%s?startDate=%s&token=%s", p.url, symbol, since.Format("2006-01-02"), p.token)

	body, err := p.get(ctx, url)
	if err != nil {
		subLog.Warn().Err(err).Msg("quote request failed")
		return nil, err
	}

	raw := []eodQuoteResponse{}
	if err := json.Unmarshal(body, &raw); err != nil {
		subLog.Warn().Err(err).Msg("could not unmarshal quote response")
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoQuotes
	}

	quotes := make([]*Quote, 0, len(raw))
	for _, item := range raw {
		date, err := time.Parse("2006-01-02", item.Date)
		if err != nil {
			subLog.Warn().Err(err).Str("Date", item.Date).Msg("skipping quote with unparseable date")
			continue
		}
		quotes = append(quotes, &Quote{
			Date:  date,
			Price: decimal.NewFromFloat(item.Close),
		})
	}
	if len(quotes) == 0 {
		return nil, ErrNoQuotes
	}
	return quotes, nil
}

// Rate returns the latest exchange rate for a currency pair.
func (p *HTTPProvider) Rate(ctx context.Context, pair string) (*Quote, error) {
	subLog := log.With().Str("Pair", pair).Logger()
	url := fmt.Sprintf("%s/fx/%s?token=%s", p.url, pair, p.token)

	body, err := p.get(ctx, url)
	if err != nil {
		subLog.Warn().Err(err).Msg("rate request failed")
		return nil, err
	}

	raw := fxRateResponse{}
	if err := json.Unmarshal(body, &raw); err != nil {
		subLog.Warn().Err(err).Msg("could not unmarshal rate response")
		return nil, err
	}

	date, err := time.Parse("2006-01-02", raw.Date)
	if err != nil {
		date = time.Now()
	}
	return &Quote{
		Date:  date,
		Price: decimal.NewFromFloat(raw.Rate),
	}, nil
}

func (p *HTTPProvider) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market data request returned status %d", resp.StatusCode)
	}
	return ioutil.ReadAll(resp.Body)
}
