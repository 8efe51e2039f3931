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

package data

import "errors"

var (
	ErrSecurityNotFound = errors.New("security not found")
	ErrRateNotFound     = errors.New("currency pair has no stored rate")
	ErrUnknownBucket    = errors.New("bucket is not in the recognized enumeration")
	ErrInvalidPercent   = errors.New("allocation must be between 0 and 100")
)
