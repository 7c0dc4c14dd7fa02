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
package data

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RunReport summarizes a single pipeline run. Excluded counts make dropped
// raw records observable instead of silently lost.
type RunReport struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StartTime time.Time `json:"start_time" db:"started_at"`
	EndTime   time.Time `json:"end_time" db:"finished_at"`

	TimeDays  int `json:"time_days" db:"num_time_days"`
	Locations int `json:"locations" db:"num_locations"`

	CaseFacts       int `json:"case_facts" db:"num_case_facts"`
	ClimateFacts    int `json:"climate_facts" db:"num_climate_facts"`
	SanitationFacts int `json:"sanitation_facts" db:"num_sanitation_facts"`

	ExcludedCases      int `json:"excluded_cases" db:"num_excluded_cases"`
	ExcludedWeather    int `json:"excluded_weather" db:"num_excluded_weather"`
	ExcludedSanitation int `json:"excluded_sanitation" db:"num_excluded_sanitation"`
}

func (report *RunReport) MarshalZerologObject(e *zerolog.Event) {
	e.Str("RunID", report.ID.String())
	e.Int("TimeDays", report.TimeDays)
	e.Int("Locations", report.Locations)
	e.Int("CaseFacts", report.CaseFacts)
	e.Int("ClimateFacts", report.ClimateFacts)
	e.Int("SanitationFacts", report.SanitationFacts)
	e.Int("ExcludedCases", report.ExcludedCases)
	e.Int("ExcludedWeather", report.ExcludedWeather)
	e.Int("ExcludedSanitation", report.ExcludedSanitation)
}
