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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/epivault/epidata/data"
	"github.com/epivault/epidata/source"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendSanitation(recs ...*source.SanitationRecord) <-chan *source.SanitationRecord {
	out := make(chan *source.SanitationRecord, len(recs))
	for _, rec := range recs {
		out <- rec
	}
	close(out)
	return out
}

func TestAggregateSanitation(t *testing.T) {
	res := newResolver(t)

	in := sendSanitation(
		&source.SanitationRecord{
			Year:             "2022",
			MunicipalityCode: "3550308",
			UF:               "SP",
			UrbanPopulation:  "11451245",
			WaterPopulation:  "11000000",
			SewagePopulation: "10500000",
		},
		&source.SanitationRecord{
			Year:             "2023",
			MunicipalityCode: "3550308",
			UF:               "SP",
			UrbanPopulation:  "11500000",
			// blank coverage reads as zero
			WaterPopulation:  "",
			SewagePopulation: "",
		},
	)

	facts, excluded, err := source.AggregateSanitation(res, in)
	require.NoError(t, err)
	assert.Zero(t, excluded)

	want := []*data.SanitationFact{
		{TimeKey: 20220101, LocationKey: 2, Population: 11451245, TreatedWater: 11000000, Sewage: 10500000},
		{TimeKey: 20230101, LocationKey: 2, Population: 11500000},
	}

	if diff := cmp.Diff(want, facts); diff != "" {
		t.Errorf("fact mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateSanitationDuplicates(t *testing.T) {
	res := newResolver(t)

	in := sendSanitation(
		&source.SanitationRecord{Year: "2022", MunicipalityCode: "3550308", UrbanPopulation: "100"},
		// second row for the same municipality and year is dropped
		&source.SanitationRecord{Year: "2022", MunicipalityCode: "3550308", UrbanPopulation: "999"},
	)

	facts, excluded, err := source.AggregateSanitation(res, in)
	require.NoError(t, err)
	assert.Equal(t, 1, excluded)
	require.Len(t, facts, 1)
	assert.Equal(t, int64(100), facts[0].Population)
}

func TestAggregateSanitationExcludesUnresolvable(t *testing.T) {
	res := newResolver(t)

	in := sendSanitation(
		&source.SanitationRecord{Year: "2022", MunicipalityCode: "9999999"},
		&source.SanitationRecord{Year: "1990", MunicipalityCode: "3550308"},
	)

	facts, excluded, err := source.AggregateSanitation(res, in)
	require.NoError(t, err)
	assert.Empty(t, facts)
	assert.Equal(t, 2, excluded)
}

func TestStreamSanitation(t *testing.T) {
	dir := t.TempDir()

	csvData := `ano,id_municipio,sigla_uf,populacao_urbana,populacao_atendida_agua,populacao_atentida_esgoto
2022,3550308,SP,11451245,11000000,10500000
2010,3550308,SP,10000000,9000000,8000000
2022,3509502,SP,1139047,1100000,1000000
`
	fn := filepath.Join(dir, "snis.csv")
	require.NoError(t, os.WriteFile(fn, []byte(csvData), 0o644))

	res := newResolver(t)

	out := make(chan *source.SanitationRecord, 10)
	err := source.StreamSanitation(context.Background(), fn, 2022, 2023, res.HasLocation, out)
	require.NoError(t, err)

	var got []*source.SanitationRecord
	for rec := range out {
		got = append(got, rec)
	}

	// the 2010 row is outside the year range and Campinas is not tracked
	require.Len(t, got, 1)
	assert.Equal(t, "3550308", got[0].MunicipalityCode)
}
