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
package source_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/epivault/epidata/data"
	"github.com/epivault/epidata/source"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func obs(day time.Time, hour int, temperature, precipitation float64) source.HourlyObs {
	return source.HourlyObs{
		Date:          day.Add(time.Duration(hour) * time.Hour),
		Temperature:   temperature,
		Precipitation: precipitation,
	}
}

func writeStationFile(t *testing.T, dir, name, body string) string {
	t.Helper()

	encoded, err := charmap.ISO8859_1.NewEncoder().String(body)
	require.NoError(t, err)

	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(encoded), 0o644))
	return fn
}

const stationHeader = `REGIAO:;SE
UF:;SP
ESTACAO:;São Paulo - A701
CODIGO (WMO):;A701
LATITUDE:;-23,49
LONGITUDE:;-46,62
ALTITUDE:;786,27
DATA DE FUNDACAO:;25/07/06
Data;Hora UTC;PRECIPITAÇÃO TOTAL, HORÁRIO (mm);TEMPERATURA DO AR - BULBO SECO, HORARIA (°C)
`

func TestReadStationFile(t *testing.T) {
	body := stationHeader +
		`2023/03/06;0000 UTC;0,4;22,1
2023/03/06;0100 UTC;,8;21,5
2023/03/06;0200 UTC;-9999;-9999
2023/03/06;0300 UTC;0;20,9
`

	fn := writeStationFile(t, t.TempDir(), "INMET_SE_SP_A701.CSV", body)

	station, err := source.ReadStationFile(fn)
	require.NoError(t, err)

	assert.Equal(t, "SP", station.UF)
	assert.Equal(t, "São Paulo", station.Station)
	require.Len(t, station.Hours, 4)

	assert.InDelta(t, 0.4, station.Hours[0].Precipitation, 1e-9)
	// bare leading comma reads as 0,8
	assert.InDelta(t, 0.8, station.Hours[1].Precipitation, 1e-9)
	// -9999 is the INMET missing sentinel
	assert.True(t, math.IsNaN(station.Hours[2].Temperature))
	assert.InDelta(t, 20.9, station.Hours[3].Temperature, 1e-9)
}

func TestReadStationFileTruncated(t *testing.T) {
	fn := writeStationFile(t, t.TempDir(), "INMET_BAD.CSV", "REGIAO:;SE\nUF:;SP\n")

	_, err := source.ReadStationFile(fn)
	require.Error(t, err)
}

func TestReduceDaily(t *testing.T) {
	day := time.Date(2023, time.March, 6, 0, 0, 0, 0, time.UTC)

	daily, excluded := source.ReduceDaily([]source.HourlyObs{
		obs(day, 0, 20, 1),
		obs(day, 1, 22, 0),
		obs(day, 2, 24, 0.5),
	})

	require.Len(t, daily, 1)
	assert.Zero(t, excluded)
	assert.Equal(t, day, daily[0].Date)
	assert.InDelta(t, 22.0, daily[0].MeanTemperature, 1e-9)
	assert.InDelta(t, 1.5, daily[0].TotalPrecipitation, 1e-9)
}

func TestReduceDailyInterpolatesInteriorGaps(t *testing.T) {
	nan := math.NaN
	day := time.Date(2023, time.March, 6, 0, 0, 0, 0, time.UTC)

	daily, excluded := source.ReduceDaily([]source.HourlyObs{
		obs(day, 0, 20, 0),
		obs(day, 1, nan(), 0),
		obs(day, 2, nan(), 0),
		obs(day, 3, 26, 0),
	})

	require.Len(t, daily, 1)
	assert.Zero(t, excluded)
	// gap fills with 22 and 24, so the mean is 23
	assert.InDelta(t, 23.0, daily[0].MeanTemperature, 1e-9)
}

func TestReduceDailyLeavesEdgeGapsMissing(t *testing.T) {
	nan := math.NaN
	day := time.Date(2023, time.March, 6, 0, 0, 0, 0, time.UTC)

	daily, excluded := source.ReduceDaily([]source.HourlyObs{
		obs(day, 0, nan(), 0),
		obs(day, 1, 22, 0),
		obs(day, 2, nan(), 0),
	})

	require.Len(t, daily, 1)
	assert.Zero(t, excluded)
	// leading and trailing gaps stay missing, only the observed hour counts
	assert.InDelta(t, 22.0, daily[0].MeanTemperature, 1e-9)
}

func TestReduceDailyExcludesEmptyDays(t *testing.T) {
	nan := math.NaN
	day1 := time.Date(2023, time.March, 6, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2023, time.March, 7, 0, 0, 0, 0, time.UTC)

	daily, excluded := source.ReduceDaily([]source.HourlyObs{
		// temperature entirely missing: day dropped even though rain was seen
		obs(day1, 0, nan(), 1.5),
		obs(day1, 1, nan(), 0),
		obs(day2, 0, 21, 0),
	})

	require.Len(t, daily, 1)
	assert.Equal(t, 1, excluded)
	assert.Equal(t, day2, daily[0].Date)
}

func TestAggregateWeather(t *testing.T) {
	res := newResolver(t)

	day := func(d int) time.Time {
		return time.Date(2023, time.March, d, 0, 0, 0, 0, time.UTC)
	}

	// March 5-11, 2023 is one epi week; March 12 opens the next
	station := &source.StationFile{
		UF:      "SP",
		Station: "São Paulo",
		Hours: []source.HourlyObs{
			obs(day(6), 0, 20, 1),
			obs(day(6), 1, 24, 2),
			obs(day(7), 0, 25, 0),
			obs(day(12), 0, 30, 5),
		},
	}

	facts, excluded, err := source.AggregateWeather(res, []*source.StationFile{station})
	require.NoError(t, err)
	assert.Zero(t, excluded)

	want := []*data.ClimateFact{
		{TimeKey: 20230305, LocationKey: 2, MeanTemperature: 23.5, TotalPrecipitation: 3},
		{TimeKey: 20230312, LocationKey: 2, MeanTemperature: 30, TotalPrecipitation: 5},
	}

	if diff := cmp.Diff(want, facts); diff != "" {
		t.Errorf("fact mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateWeatherSkipsUntrackedStation(t *testing.T) {
	res := newResolver(t)

	station := &source.StationFile{
		UF:      "SP",
		Station: "Campinas",
		Hours: []source.HourlyObs{
			obs(time.Date(2023, time.March, 6, 0, 0, 0, 0, time.UTC), 0, 20, 1),
		},
	}

	facts, excluded, err := source.AggregateWeather(res, []*source.StationFile{station})
	require.NoError(t, err)
	assert.Empty(t, facts)
	assert.Equal(t, 1, excluded)
}
