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

// Package pipeline wires the extract stages together: build the shared
// dimensions once, resolve every raw record against them, and hand back a
// dataset ready for loading plus a report of what was kept and dropped.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/epivault/epidata/data"
	"github.com/epivault/epidata/dimension"
	"github.com/epivault/epidata/resolver"
	"github.com/epivault/epidata/source"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const recordQueueSize = 1024

// Run executes one full build: calendar and location dimensions first, then
// the three fact extracts against the shared resolver. The returned dataset
// is complete and internally consistent; nothing is written to the database
// here.
func Run(ctx context.Context, cfg *Config) (*data.Dataset, *data.RunReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	report := &data.RunReport{
		ID:        uuid.New(),
		StartTime: time.Now(),
	}

	days, err := dimension.BuildCalendar(cfg.StartYear, cfg.EndYear)
	if err != nil {
		return nil, nil, err
	}

	locations, err := buildLocations(cfg)
	if err != nil {
		return nil, nil, err
	}

	res := resolver.New(days, locations)
	keep := res.HasLocation

	log.Info().Int("NumDays", len(days)).Int("NumLocations", len(locations)).
		Msg("dimensions built")

	// Dengue case notifications
	caseQueue := make(chan *source.CaseRecord, recordQueueSize)
	caseErr := make(chan error, 1)
	go func() {
		caseErr <- source.StreamCases(ctx, cfg.DengueGlob, keep, caseQueue)
	}()

	cases, excludedCases, err := source.AggregateCases(res, caseQueue)
	if err != nil {
		return nil, nil, err
	}
	if err := <-caseErr; err != nil {
		return nil, nil, err
	}

	// Weather station observations
	stations, err := source.ReadStationFiles(cfg.WeatherGlob)
	if err != nil {
		return nil, nil, err
	}

	climate, excludedWeather, err := source.AggregateWeather(res, stations)
	if err != nil {
		return nil, nil, err
	}

	// Sanitation indicators
	sanitationQueue := make(chan *source.SanitationRecord, recordQueueSize)
	sanitationErr := make(chan error, 1)
	go func() {
		sanitationErr <- source.StreamSanitation(ctx, cfg.SanitationPath,
			cfg.StartYear, cfg.EndYear, keep, sanitationQueue)
	}()

	sanitation, excludedSanitation, err := source.AggregateSanitation(res, sanitationQueue)
	if err != nil {
		return nil, nil, err
	}
	if err := <-sanitationErr; err != nil {
		return nil, nil, err
	}

	dataset := &data.Dataset{
		TimeDays:   days,
		Locations:  locations,
		Cases:      cases,
		Climate:    climate,
		Sanitation: sanitation,
	}

	report.EndTime = time.Now()
	report.TimeDays = len(days)
	report.Locations = len(locations)
	report.CaseFacts = len(cases)
	report.ClimateFacts = len(climate)
	report.SanitationFacts = len(sanitation)
	report.ExcludedCases = excludedCases
	report.ExcludedWeather = excludedWeather
	report.ExcludedSanitation = excludedSanitation

	if cfg.SnapshotDir != "" {
		if err := WriteSnapshots(cfg.SnapshotDir, dataset); err != nil {
			return nil, nil, err
		}
	}

	log.Info().Object("Report", report).Msg("pipeline run complete")

	return dataset, report, nil
}

func buildLocations(cfg *Config) ([]*data.Location, error) {
	f, err := os.Open(cfg.GazetteerPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	municipalities, err := dimension.ReadGazetteer(f)
	if err != nil {
		return nil, err
	}

	return dimension.BuildRegistry(municipalities, cfg.Capitals)
}
