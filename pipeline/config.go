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
package pipeline

import (
	"errors"
	"fmt"

	"github.com/epivault/epidata/dimension"
)

var (
	ErrMissingInput = errors.New("required input not configured")
)

// Config carries everything one pipeline run needs: the calendar range, the
// tracked capitals, and the locations of the raw extracts.
type Config struct {
	StartYear int
	EndYear   int

	Capitals []dimension.Capital

	GazetteerPath  string
	DengueGlob     string
	WeatherGlob    string
	SanitationPath string

	// SnapshotDir receives CSV copies of every table after a run. Empty
	// disables snapshots.
	SnapshotDir string
}

func (cfg *Config) Validate() error {
	if cfg.StartYear > cfg.EndYear {
		return fmt.Errorf("%w: start year %d after end year %d",
			dimension.ErrInvalidYearRange, cfg.StartYear, cfg.EndYear)
	}

	if cfg.GazetteerPath == "" {
		return fmt.Errorf("%w: gazetteer path", ErrMissingInput)
	}
	if cfg.DengueGlob == "" {
		return fmt.Errorf("%w: case-report glob", ErrMissingInput)
	}
	if cfg.WeatherGlob == "" {
		return fmt.Errorf("%w: weather-station glob", ErrMissingInput)
	}
	if cfg.SanitationPath == "" {
		return fmt.Errorf("%w: sanitation path", ErrMissingInput)
	}

	if len(cfg.Capitals) == 0 {
		cfg.Capitals = dimension.DefaultCapitals()
	}

	return nil
}
