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

package operations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/copperbook/cb-api/database"
)

// Ledger is the append-only operation history for one user. Every commit runs
// as a single database transaction: the operation row, the quantity update,
// and any sale-lot updates land together or not at all.
type Ledger struct {
	userID string
}

func NewLedger(userID string) *Ledger {
	return &Ledger{userID: userID}
}

// Commit validates and persists one operation. Preconditions (sufficient
// holdings for sells and dividends) are checked inside the same transaction
// that applies the writes, before any mutation; a failed precondition
// persists nothing.
func (l *Ledger) Commit(ctx context.Context, op *Operation) error {
	if !op.Kind.Valid() {
		return ErrUnknownKind
	}
	if !op.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}

	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	if len(op.SourceID) == 0 {
		if err := ComputeSourceID(op); err != nil {
			log.Warn().Stack().Err(err).Str("ISIN", op.ISIN).Msg("couldn't compute SourceID for operation")
		}
	}

	subLog := log.With().Str("ISIN", op.ISIN).Str("Kind", string(op.Kind)).Str("Quantity", op.Quantity.String()).Logger()

	trx, err := database.TrxForUser(ctx, l.userID)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not get transaction to commit operation")
		return err
	}

	current, err := l.lockedQuantity(ctx, trx, op.ISIN)
	if err != nil {
		rollbackTrx(ctx, trx)
		return err
	}

	switch op.Kind {
	case KindBuy:
		err = l.applyQuantity(ctx, trx, op.ISIN, current.Add(op.Quantity))
	case KindSell:
		if current.LessThan(op.Quantity) {
			rollbackTrx(ctx, trx)
			return ErrInsufficientHoldings
		}
		if err = l.allocateSale(ctx, trx, op); err == nil {
			err = l.applyQuantity(ctx, trx, op.ISIN, current.Sub(op.Quantity))
		}
	case KindDividend:
		// dividends entitle existing shares; no quantity change
		if current.LessThan(op.Quantity) {
			rollbackTrx(ctx, trx)
			return ErrInsufficientHoldings
		}
	}
	if err != nil {
		rollbackTrx(ctx, trx)
		return err
	}

	if err := l.insertOperation(ctx, trx, op); err != nil {
		rollbackTrx(ctx, trx)
		return err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not commit operation transaction")
		return err
	}

	subLog.Info().Str("OperationID", op.ID.String()).Msg("committed operation")
	return nil
}

// Operations returns the user's operation history ordered by date
func (l *Ledger) Operations(ctx context.Context) ([]*Operation, error) {
	trx, err := database.TrxForUser(ctx, l.userID)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction to query operations")
		return nil, err
	}

	sql := `SELECT id, isin, kind, quantity::text, price::text, COALESCE(exchange_rate, 0)::text,
			COALESCE(category, ''), event_date
		FROM investment_operations WHERE user_id=$1 ORDER BY event_date, created_at`
	rows, err := trx.Query(ctx, sql, l.userID)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("could not query operations")
		rollbackTrx(ctx, trx)
		return nil, err
	}

	ops := make([]*Operation, 0, 64)
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			log.Error().Stack().Err(err).Msg("could not scan operation row")
			rollbackTrx(ctx, trx)
			return nil, err
		}
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Msg("operation query read failed")
		rollbackTrx(ctx, trx)
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return ops, nil
}

// BuyLots returns the buy operations for a security oldest first, each with
// the quantity already consumed by recorded sales
func (l *Ledger) BuyLots(ctx context.Context, isin string) ([]Lot, error) {
	trx, err := database.TrxForUser(ctx, l.userID)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not get transaction to query lots")
		return nil, err
	}

	lots, err := queryBuyLots(ctx, trx, l.userID, isin)
	if err != nil {
		rollbackTrx(ctx, trx)
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return lots, nil
}

// allocateSale matches the sell against buy lots FIFO and records the
// consumption per lot. Runs inside the commit transaction.
func (l *Ledger) allocateSale(ctx context.Context, trx pgx.Tx, op *Operation) error {
	lots, err := queryBuyLots(ctx, trx, l.userID, op.ISIN)
	if err != nil {
		return err
	}

	consumptions, err := ConsumeFIFO(lots, op.Quantity)
	if err != nil {
		return err
	}

	sql := `INSERT INTO security_sales (buy_id, quantity) VALUES ($1, $2)
		ON CONFLICT (buy_id) DO UPDATE SET quantity = security_sales.quantity + EXCLUDED.quantity`
	for _, consumption := range consumptions {
		if _, err := trx.Exec(ctx, sql, consumption.OperationID, consumption.Quantity.String()); err != nil {
			log.Error().Stack().Err(err).Str("BuyID", consumption.OperationID.String()).Msg("could not record sale allocation")
			return err
		}
	}

	return nil
}

func (l *Ledger) insertOperation(ctx context.Context, trx pgx.Tx, op *Operation) error {
	var exchangeRate interface{}
	if !op.ExchangeRate.IsZero() {
		exchangeRate = op.ExchangeRate.String()
	}
	var category interface{}
	if op.Category != "" {
		category = op.Category
	}

	sql := `INSERT INTO investment_operations
			(id, user_id, isin, kind, quantity, price, exchange_rate, category, event_date, source_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := trx.Exec(ctx, sql, op.ID, l.userID, op.ISIN, string(op.Kind),
		op.Quantity.String(), op.Price.String(), exchangeRate, category, op.Date, op.SourceID)
	if err != nil {
		log.Error().Stack().Err(err).Str("OperationID", op.ID.String()).Msg("could not insert operation")
	}
	return err
}

// lockedQuantity reads the current quantity with FOR UPDATE so concurrent
// commits on the same security serialize
func (l *Ledger) lockedQuantity(ctx context.Context, trx pgx.Tx, isin string) (decimal.Decimal, error) {
	var raw string
	sql := `SELECT quantity::text FROM security_quantities WHERE user_id=$1 AND isin=$2 FOR UPDATE`
	err := trx.QueryRow(ctx, sql, l.userID, isin).Scan(&raw)
	switch {
	case err == pgx.ErrNoRows:
		return decimal.Zero, nil
	case err != nil:
		log.Error().Stack().Err(err).Str("ISIN", isin).Msg("could not read current quantity")
		return decimal.Zero, err
	}
	return decimal.NewFromString(raw)
}

func (l *Ledger) applyQuantity(ctx context.Context, trx pgx.Tx, isin string, qty decimal.Decimal) error {
	sql := `INSERT INTO security_quantities (user_id, isin, quantity) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, isin) DO UPDATE SET quantity=EXCLUDED.quantity`
	if _, err := trx.Exec(ctx, sql, l.userID, isin, qty.String()); err != nil {
		log.Error().Stack().Err(err).Str("ISIN", isin).Msg("could not update security quantity")
		return err
	}
	return nil
}

func queryBuyLots(ctx context.Context, trx pgx.Tx, userID, isin string) ([]Lot, error) {
	sql := `SELECT o.id, o.event_date, o.quantity::text, o.price::text, COALESCE(s.quantity, 0)::text
		FROM investment_operations o
		LEFT JOIN security_sales s ON s.buy_id = o.id
		WHERE o.user_id=$1 AND o.isin=$2 AND o.kind='BUY'
		ORDER BY o.event_date, o.created_at`
	rows, err := trx.Query(ctx, sql, userID, isin)
	if err != nil {
		log.Error().Stack().Err(err).Str("Query", sql).Msg("could not query buy lots")
		return nil, err
	}

	lots := make([]Lot, 0, 16)
	for rows.Next() {
		var lot Lot
		var qtyRaw, priceRaw, consumedRaw string
		if err := rows.Scan(&lot.OperationID, &lot.Date, &qtyRaw, &priceRaw, &consumedRaw); err != nil {
			log.Error().Stack().Err(err).Msg("could not scan lot row")
			return nil, err
		}
		if lot.Quantity, err = decimal.NewFromString(qtyRaw); err != nil {
			return nil, err
		}
		if lot.Price, err = decimal.NewFromString(priceRaw); err != nil {
			return nil, err
		}
		if lot.Consumed, err = decimal.NewFromString(consumedRaw); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}

	if err := rows.Err(); err != nil {
		log.Error().Stack().Err(err).Msg("lot query read failed")
		return nil, err
	}

	return lots, nil
}

func scanOperation(rows pgx.Rows) (*Operation, error) {
	var op Operation
	var kind, qtyRaw, priceRaw, rateRaw string
	err := rows.Scan(&op.ID, &op.ISIN, &kind, &qtyRaw, &priceRaw, &rateRaw, &op.Category, &op.Date)
	if err != nil {
		return nil, err
	}
	op.Kind = Kind(kind)
	if op.Quantity, err = decimal.NewFromString(qtyRaw); err != nil {
		return nil, err
	}
	if op.Price, err = decimal.NewFromString(priceRaw); err != nil {
		return nil, err
	}
	if op.ExchangeRate, err = decimal.NewFromString(rateRaw); err != nil {
		return nil, err
	}
	return &op, nil
}

func rollbackTrx(ctx context.Context, trx pgx.Tx) {
	if err := trx.Rollback(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("could not rollback transaction")
	}
}
