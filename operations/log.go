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
	"github.com/rs/zerolog"
)

func (op *Operation) MarshalZerologObject(e *zerolog.Event) {
	e.Str("OperationID", op.ID.String()).
		Time("Date", op.Date).
		Str("Kind", string(op.Kind)).
		Str("ISIN", op.ISIN).
		Str("Quantity", op.Quantity.String()).
		Str("Price", op.Price.String())
}

func (l *Lot) MarshalZerologObject(e *zerolog.Event) {
	e.Str("OperationID", l.OperationID.String()).
		Time("Date", l.Date).
		Str("Quantity", l.Quantity.String()).
		Str("Price", l.Price.String()).
		Str("Consumed", l.Consumed.String())
}
