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
package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/epivault/epidata/dimension"
	"github.com/epivault/epidata/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(body), 0o644))
	return fn
}

func testConfig(t *testing.T) *pipeline.Config {
	t.Helper()
	dir := t.TempDir()

	gazetteer := writeFile(t, dir, "municipios.csv", `uf;cod_municipio;nome_municipio
SP;3550308;São Paulo
SP;3509502;Campinas
`)

	writeFile(t, dir, "dengue_2023.csv", `DT_NOTIFIC,ID_MN_RESI,SG_UF,CLASSI_FIN,EVOLUCAO,HOSPITALIZ,TPAUTOCTO,CS_SEXO,DT_NASC,ANO_NASC
2023-03-06,3550308,SP,1,1,2,1,M,1990-05-01,
2023-03-06,3550308,SP,1,2,1,1,F,2015-01-01,
2023-03-07,3509502,SP,1,1,2,1,F,1985-02-01,
`)

	weatherBody := `REGIAO:;SE
UF:;SP
ESTACAO:;São Paulo - A701
CODIGO (WMO):;A701
LATITUDE:;-23,49
LONGITUDE:;-46,62
ALTITUDE:;786,27
DATA DE FUNDACAO:;25/07/06
Data;Hora UTC;PRECIPITAÇÃO TOTAL, HORÁRIO (mm);TEMPERATURA DO AR - BULBO SECO, HORARIA (°C)
2023/03/06;0000 UTC;0,4;22,1
2023/03/06;0100 UTC;0;23,9
`
	encoded, err := charmap.ISO8859_1.NewEncoder().String(weatherBody)
	require.NoError(t, err)
	writeFile(t, dir, "INMET_SE_SP_A701.CSV", encoded)

	sanitation := writeFile(t, dir, "snis.csv", `ano,id_municipio,sigla_uf,populacao_urbana,populacao_atendida_agua,populacao_atentida_esgoto
2023,3550308,SP,11451245,11000000,10500000
`)

	return &pipeline.Config{
		StartYear:      2023,
		EndYear:        2023,
		Capitals:       []dimension.Capital{{Name: "São Paulo", UF: "SP"}},
		GazetteerPath:  gazetteer,
		DengueGlob:     filepath.Join(dir, "dengue_*.csv"),
		WeatherGlob:    filepath.Join(dir, "INMET_*.CSV"),
		SanitationPath: sanitation,
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)

	dataset, report, err := pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Len(t, dataset.TimeDays, 365)
	require.Len(t, dataset.Locations, 1)
	assert.Equal(t, "3550308", dataset.Locations[0].MunicipalityCode)

	// two notifications on March 6; the Campinas row never reaches the facts
	require.Len(t, dataset.Cases, 1)
	assert.Equal(t, 20230306, dataset.Cases[0].TimeKey)
	assert.Equal(t, 2, dataset.Cases[0].Cases)
	assert.Equal(t, 1, dataset.Cases[0].Deaths)

	// one observed day reduces to one weekly row keyed to Sunday March 5
	require.Len(t, dataset.Climate, 1)
	assert.Equal(t, 20230305, dataset.Climate[0].TimeKey)
	assert.InDelta(t, 23.0, dataset.Climate[0].MeanTemperature, 1e-9)
	assert.InDelta(t, 0.4, dataset.Climate[0].TotalPrecipitation, 1e-9)

	require.Len(t, dataset.Sanitation, 1)
	assert.Equal(t, 20230101, dataset.Sanitation[0].TimeKey)
	assert.Equal(t, int64(11451245), dataset.Sanitation[0].Population)

	assert.Equal(t, 365, report.TimeDays)
	assert.Equal(t, 1, report.Locations)
	assert.Equal(t, 1, report.CaseFacts)
	assert.Zero(t, report.ExcludedCases)
	assert.NotZero(t, report.ID)
	assert.False(t, report.EndTime.Before(report.StartTime))
}

func TestRunDeterministic(t *testing.T) {
	cfg := testConfig(t)

	first, _, err := pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)

	second, _, err := pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, second.Cases, len(first.Cases))
	for i := range first.Cases {
		assert.Equal(t, *first.Cases[i], *second.Cases[i])
	}
	require.Len(t, second.Climate, len(first.Climate))
	for i := range first.Climate {
		assert.Equal(t, *first.Climate[i], *second.Climate[i])
	}
}

func TestRunWritesSnapshots(t *testing.T) {
	cfg := testConfig(t)
	cfg.SnapshotDir = filepath.Join(t.TempDir(), "snapshots")

	_, _, err := pipeline.Run(context.Background(), cfg)
	require.NoError(t, err)

	for _, name := range []string{"dim_tempo.csv", "dim_local.csv",
		"fato_casos_dengue.csv", "fato_clima.csv", "fato_saneamento.csv"} {
		info, err := os.Stat(filepath.Join(cfg.SnapshotDir, name))
		require.NoError(t, err, name)
		assert.NotZero(t, info.Size(), name)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.Validate())

	t.Run("bad year range", func(t *testing.T) {
		bad := testConfig(t)
		bad.StartYear, bad.EndYear = 2023, 2020
		require.ErrorIs(t, bad.Validate(), dimension.ErrInvalidYearRange)
	})

	t.Run("missing inputs", func(t *testing.T) {
		bad := testConfig(t)
		bad.GazetteerPath = ""
		require.ErrorIs(t, bad.Validate(), pipeline.ErrMissingInput)
	})

	t.Run("capitals default", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Capitals = nil
		require.NoError(t, cfg.Validate())
		assert.Len(t, cfg.Capitals, 27)
	})
}
