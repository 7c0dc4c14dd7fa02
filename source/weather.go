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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/epivault/epidata/data"
	"github.com/epivault/epidata/resolver"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"
)

// StationFile holds the hourly observations of one INMET station file plus
// the location metadata read from its header block.
type StationFile struct {
	UF      string
	Station string
	Hours   []HourlyObs
}

// HourlyObs is one sub-daily observation. Missing measures are NaN.
type HourlyObs struct {
	Date          time.Time
	Temperature   float64
	Precipitation float64
}

// DailyObs is the stage-1 reduction of one station day.
type DailyObs struct {
	Date               time.Time
	MeanTemperature    float64
	TotalPrecipitation float64
}

// ReadStationFiles parses every INMET file matching glob.
func ReadStationFiles(glob string) ([]*StationFile, error) {
	files, err := filepath.Glob(glob)
	if err != nil {
		return nil, fmt.Errorf("expanding weather glob: %w", err)
	}
	if len(files) == 0 {
		log.Warn().Str("Glob", glob).Msg("no weather files found")
	}
	sort.Strings(files)

	stations := make([]*StationFile, 0, len(files))
	for _, fn := range files {
		station, err := ReadStationFile(fn)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(fn), err)
		}
		stations = append(stations, station)
	}
	return stations, nil
}

// ReadStationFile parses a single INMET file: eight latin-1 metadata lines
// (REGIAO, UF, ESTACAO, ...) followed by a column header and `;`-separated
// hourly rows with comma decimals.
func ReadStationFile(path string) (*StationFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseStation(charmap.ISO8859_1.NewDecoder().Reader(f))
}

func parseStation(r io.Reader) (*StationFile, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 9 {
		return nil, fmt.Errorf("truncated station file: %d lines", len(records))
	}

	station := &StationFile{}
	// metadata block: line 2 holds the UF, line 3 the station name (which
	// may carry a " - <station id>" suffix)
	if len(records[1]) > 1 {
		station.UF = strings.TrimSpace(records[1][1])
	}
	if len(records[2]) > 1 {
		station.Station = strings.TrimSpace(strings.SplitN(records[2][1], " - ", 2)[0])
	}
	if station.UF == "" || station.Station == "" {
		return nil, fmt.Errorf("station metadata missing from header block")
	}

	header := records[8]
	dateCol, tempCol, precCol := -1, -1, -1
	for idx, name := range header {
		upper := strings.ToUpper(strings.TrimSpace(name))
		switch {
		case strings.HasPrefix(upper, "DATA"):
			dateCol = idx
		case strings.Contains(upper, "TEMPERATURA DO AR"):
			tempCol = idx
		case strings.HasPrefix(upper, "PRECIPITA"):
			precCol = idx
		}
	}
	if dateCol < 0 || tempCol < 0 || precCol < 0 {
		return nil, fmt.Errorf("expected columns not found in header %v", header)
	}

	for _, row := range records[9:] {
		if len(row) <= dateCol || len(row) <= tempCol || len(row) <= precCol {
			continue
		}
		date, err := parseObservationDate(row[dateCol])
		if err != nil {
			continue
		}
		station.Hours = append(station.Hours, HourlyObs{
			Date:          date,
			Temperature:   parseDecimal(row[tempCol]),
			Precipitation: parseDecimal(row[precCol]),
		})
	}

	return station, nil
}

// ReduceDaily collapses the hourly series to one row per day: mean
// temperature, total precipitation. Missing hourly values are linearly
// interpolated between the neighboring observations of the same day before
// reduction; a day with no recoverable value for either measure is excluded
// rather than zero-filled.
func ReduceDaily(hours []HourlyObs) (daily []DailyObs, excluded int) {
	byDay := make(map[time.Time][]HourlyObs)
	var order []time.Time
	for _, h := range hours {
		day := time.Date(h.Date.Year(), h.Date.Month(), h.Date.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := byDay[day]; !ok {
			order = append(order, day)
		}
		byDay[day] = append(byDay[day], h)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	for _, day := range order {
		obs := byDay[day]
		temps := make([]float64, len(obs))
		precs := make([]float64, len(obs))
		for i, h := range obs {
			temps[i] = h.Temperature
			precs[i] = h.Precipitation
		}
		interpolate(temps)
		interpolate(precs)

		tMean, tOK := mean(temps)
		pSum, pOK := sum(precs)
		if !tOK || !pOK {
			excluded++
			continue
		}

		daily = append(daily, DailyObs{
			Date:               day,
			MeanTemperature:    tMean,
			TotalPrecipitation: pSum,
		})
	}

	return daily, excluded
}

// AggregateWeather runs the two-stage reduction for every station: hourly to
// daily per station, then daily to epidemiological week via the weekly key
// resolver (mean of the daily means, sum of the daily totals). The excluded
// count covers days dropped for missing data plus daily rows whose week or
// station location could not be resolved.
func AggregateWeather(res *resolver.Resolver, stations []*StationFile) ([]*data.ClimateFact, int, error) {
	type weekAgg struct {
		tempSum   float64
		precipSum float64
		numDays   int
	}
	weeks := make(map[factKey]*weekAgg)
	excluded := 0

	for _, station := range stations {
		daily, droppedDays := ReduceDaily(station.Hours)
		excluded += droppedDays

		if !res.HasLocation(station.Station) {
			log.Warn().Str("Station", station.Station).Str("UF", station.UF).
				Int("NumDays", len(daily)).Msg("station is not a tracked capital, skipping file")
			excluded += len(daily)
			continue
		}

		for _, day := range daily {
			timeKey, locationKey, err := res.Weekly(day.Date, station.Station)
			if err != nil {
				excluded++
				continue
			}
			key := factKey{TimeKey: timeKey, LocationKey: locationKey}
			agg, ok := weeks[key]
			if !ok {
				agg = &weekAgg{}
				weeks[key] = agg
			}
			agg.tempSum += day.MeanTemperature
			agg.precipSum += day.TotalPrecipitation
			agg.numDays++
		}
	}

	rows := make([]*data.ClimateFact, 0, len(weeks))
	for key, agg := range weeks {
		rows = append(rows, &data.ClimateFact{
			TimeKey:            key.TimeKey,
			LocationKey:        key.LocationKey,
			MeanTemperature:    round2(agg.tempSum / float64(agg.numDays)),
			TotalPrecipitation: round2(agg.precipSum),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TimeKey != rows[j].TimeKey {
			return rows[i].TimeKey < rows[j].TimeKey
		}
		return rows[i].LocationKey < rows[j].LocationKey
	})

	log.Info().Int("NumFacts", len(rows)).Int("NumExcluded", excluded).
		Msg("weather observations aggregated")

	return rows, excluded, nil
}

// interpolate fills NaN runs that sit between two observed values with a
// linear ramp. Leading and trailing gaps have no second anchor and stay NaN.
func interpolate(vals []float64) {
	prev := -1
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (v - vals[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				vals[j] = vals[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
}

func mean(vals []float64) (float64, bool) {
	total, n := 0.0, 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		total += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}

func sum(vals []float64) (float64, bool) {
	total, n := 0.0, 0
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		total += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return total, true
}

// parseDecimal reads an INMET numeric field: comma decimal separator, bare
// ",8" meaning "0,8", -9999 and blanks meaning missing.
func parseDecimal(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-9999" {
		return math.NaN()
	}
	if strings.HasPrefix(s, ",") {
		s = "0" + s
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseObservationDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006/01/02", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable observation date %q", s)
}
