// Copyright 2025
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

// Package source reads the three raw inputs (SINAN case notifications, INMET
// weather observations, SNIS sanitation surveys) and aggregates each to its
// fact grain. Records for non-capital locations are dropped while streaming,
// before anything is buffered; records whose keys cannot be resolved are
// excluded and counted, never silently lost.
package source

import (
	"math"
	"strconv"
	"strings"
)

// factKey identifies one fact row during accumulation.
type factKey struct {
	TimeKey     int
	LocationKey int
}

// parseCode reads a SINAN categorical code. The raw files carry them as
// integers, floats ("2.0"), or blanks; blanks and junk map to -1.
func parseCode(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return -1
	}
	return int(v)
}

// parseCount reads a population count, treating blanks as zero, matching how
// the sanitation survey reports missing coverage numbers.
func parseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
