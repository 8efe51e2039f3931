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

// Package operations records executed buy/sell/dividend operations and keeps
// the sale-allocation schedule that matches sells against historical buy lots
// in FIFO order.
package operations

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/zeebo/blake3"
)

// Kind is the operation type tag
type Kind string

const (
	KindBuy      Kind = "BUY"
	KindSell     Kind = "SELL"
	KindDividend Kind = "DIV"
)

var (
	ErrInsufficientHoldings = errors.New("account does not own that many securities")
	ErrInvalidQuantity      = errors.New("operation quantity must be positive")
	ErrUnknownKind          = errors.New("unknown operation kind")
)

func (k Kind) Valid() bool {
	switch k {
	case KindBuy, KindSell, KindDividend:
		return true
	}
	return false
}

// ParseKind converts a wire value into a Kind
func ParseKind(s string) (Kind, error) {
	kind := Kind(s)
	if !kind.Valid() {
		return KindBuy, ErrUnknownKind
	}
	return kind, nil
}

// Operation is the immutable record of one executed trade. For dividends the
// quantity is the number of shares entitled to the payout, not a trade size.
type Operation struct {
	ID           uuid.UUID       `json:"id"`
	ISIN         string          `json:"isin"`
	Kind         Kind            `json:"kind"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	Category     string          `json:"category,omitempty"`
	Date         time.Time       `json:"date"`
	SourceID     []byte          `json:"-"`
}

// TotalValue is the settlement value of the operation: quantity x price,
// scaled by the exchange rate when one was recorded
func (op *Operation) TotalValue() decimal.Decimal {
	total := op.Quantity.Mul(op.Price)
	if !op.ExchangeRate.IsZero() {
		total = total.Mul(op.ExchangeRate)
	}
	return total
}

// ComputeSourceID derives a stable content hash so re-imported operations can
// be deduplicated
func ComputeSourceID(op *Operation) error {
	h := blake3.New()

	d, err := op.Date.UTC().MarshalText()
	if err != nil {
		return err
	}

	for _, field := range [][]byte{d, []byte(op.ISIN), []byte(op.Kind), []byte(op.Quantity.String()), []byte(op.Price.String())} {
		if _, err := h.Write(field); err != nil {
			log.Error().Stack().Err(err).Msg("could not write field to blake3 hasher")
			return err
		}
	}

	op.SourceID = h.Sum(nil)
	return nil
}
