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
package source

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/epivault/epidata/data"
	"github.com/epivault/epidata/resolver"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// SanitationRecord is one municipality year of the SNIS indicator export.
// The esgoto column name carries the upstream export's misspelling.
type SanitationRecord struct {
	Year             string `csv:"ano"`
	MunicipalityCode string `csv:"id_municipio"`
	UF               string `csv:"sigla_uf"`
	UrbanPopulation  string `csv:"populacao_urbana"`
	WaterPopulation  string `csv:"populacao_atendida_agua"`
	SewagePopulation string `csv:"populacao_atentida_esgoto"`
}

// StreamSanitation reads the SNIS indicator file and sends records whose
// reference year falls within [startYear, endYear] and whose municipality
// passes keep. Closes out when the file is read.
func StreamSanitation(ctx context.Context, path string, startYear, endYear int, keep func(string) bool, out chan<- *SanitationRecord) error {
	defer close(out)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening sanitation file: %w", err)
	}
	defer f.Close()

	log.Info().Str("FileName", path).Msg("scanning sanitation indicators")

	progress := rate.Sometimes{Interval: 10 * time.Second}
	numRead := 0

	err = gocsv.UnmarshalToCallbackWithError(f, func(rec *SanitationRecord) error {
		numRead++
		progress.Do(func() {
			log.Info().Int("NumRecords", numRead).Msg("still scanning sanitation indicators")
		})

		year, err := strconv.Atoi(rec.Year)
		if err != nil || year < startYear || year > endYear {
			return nil
		}
		if !keep(rec.MunicipalityCode) {
			return nil
		}

		select {
		case out <- rec:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		return fmt.Errorf("reading sanitation file: %w", err)
	}

	return nil
}

// AggregateSanitation maps records to one SanitationFact per
// (location, year), keyed to January 1 of the reference year. The indicator
// is already annual, so the first record per pair wins and later duplicates
// are excluded and counted. Blank counts read as zero.
func AggregateSanitation(res *resolver.Resolver, in <-chan *SanitationRecord) ([]*data.SanitationFact, int, error) {
	facts := make(map[factKey]*data.SanitationFact)
	excluded := 0

	for rec := range in {
		year, err := strconv.Atoi(rec.Year)
		if err != nil {
			excluded++
			continue
		}

		timeKey, locationKey, err := res.Annual(year, rec.MunicipalityCode)
		if err != nil {
			excluded++
			continue
		}

		key := factKey{TimeKey: timeKey, LocationKey: locationKey}
		if _, ok := facts[key]; ok {
			excluded++
			continue
		}

		facts[key] = &data.SanitationFact{
			TimeKey:      timeKey,
			LocationKey:  locationKey,
			Population:   parseCount(rec.UrbanPopulation),
			TreatedWater: parseCount(rec.WaterPopulation),
			Sewage:       parseCount(rec.SewagePopulation),
		}
	}

	rows := make([]*data.SanitationFact, 0, len(facts))
	for _, fact := range facts {
		rows = append(rows, fact)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TimeKey != rows[j].TimeKey {
			return rows[i].TimeKey < rows[j].TimeKey
		}
		return rows[i].LocationKey < rows[j].LocationKey
	})

	log.Info().Int("NumFacts", len(rows)).Int("NumExcluded", excluded).
		Msg("sanitation indicators aggregated")

	return rows, excluded, nil
}
