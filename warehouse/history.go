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
package warehouse

import (
	"context"
	"errors"

	"github.com/epivault/epidata/data"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// ErrNoRuns indicates that the pipeline has never completed a load.
var ErrNoRuns = errors.New("no pipeline runs recorded")

// RecordRun appends the report of a finished pipeline run to the
// pipeline_runs history table.
func (wh *Warehouse) RecordRun(ctx context.Context, report *data.RunReport) error {
	conn, err := wh.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `INSERT INTO pipeline_runs (id, started_at, finished_at,
num_time_days, num_locations, num_case_facts, num_climate_facts, num_sanitation_facts,
num_excluded_cases, num_excluded_weather, num_excluded_sanitation)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		report.ID, report.StartTime, report.EndTime, report.TimeDays, report.Locations,
		report.CaseFacts, report.ClimateFacts, report.SanitationFacts,
		report.ExcludedCases, report.ExcludedWeather, report.ExcludedSanitation)
	return err
}

// LastRun returns the most recent run report, or ErrNoRuns when the history
// table is empty.
func (wh *Warehouse) LastRun(ctx context.Context) (*data.RunReport, error) {
	report := &data.RunReport{}
	err := pgxscan.Get(ctx, wh.Pool, report, `SELECT id, started_at, finished_at,
num_time_days, num_locations, num_case_facts, num_climate_facts, num_sanitation_facts,
num_excluded_cases, num_excluded_weather, num_excluded_sanitation
FROM pipeline_runs ORDER BY finished_at DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRuns
		}
		return nil, err
	}

	return report, nil
}

// NumRuns returns the total number of recorded pipeline runs.
func (wh *Warehouse) NumRuns(ctx context.Context) (int, error) {
	conn, err := wh.Pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	count := 0
	err = conn.QueryRow(ctx, "SELECT count(*) FROM pipeline_runs").Scan(&count)
	return count, err
}
