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

	"github.com/rs/zerolog"
)

// Date is a calendar day (midnight UTC). It round-trips through snapshot
// CSV files as an ISO date.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalCSV() (string, error) {
	return d.Format("2006-01-02"), nil
}

func (d *Date) UnmarshalCSV(field string) error {
	t, err := time.Parse("2006-01-02", field)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// TimeDay is one row of dim_tempo. TimeKey encodes the date as YYYYMMDD so
// keys are unique, sortable, and stable across rebuilds.
type TimeDay struct {
	TimeKey int  `csv:"id_tempo" db:"id_tempo"`
	Date    Date `csv:"data_completa" db:"data_completa"`
	Year    int  `csv:"ano_civil" db:"ano_civil"`
	Month   int  `csv:"mes_civil" db:"mes_civil"`
	Day     int  `csv:"dia_civil" db:"dia_civil"`
	EpiYear int  `csv:"ano_epidemiologico" db:"ano_epidemiologico"`
	EpiWeek int  `csv:"semana_epidemiologica" db:"semana_epidemiologica"`
}

func (td *TimeDay) MarshalZerologObject(e *zerolog.Event) {
	e.Int("TimeKey", td.TimeKey)
	e.Time("Date", td.Date.Time)
	e.Int("EpiYear", td.EpiYear)
	e.Int("EpiWeek", td.EpiWeek)
}

// Location is one row of dim_local: a single state capital from the IBGE
// gazetteer, disambiguated by UF.
type Location struct {
	LocationKey      int    `csv:"id_local" db:"id_local"`
	UF               string `csv:"uf" db:"uf"`
	MunicipalityCode string `csv:"cod_municipio" db:"cod_municipio"`
	MunicipalityName string `csv:"nome_municipio" db:"nome_municipio"`
}

func (loc *Location) MarshalZerologObject(e *zerolog.Event) {
	e.Int("LocationKey", loc.LocationKey)
	e.Str("UF", loc.UF)
	e.Str("MunicipalityCode", loc.MunicipalityCode)
	e.Str("MunicipalityName", loc.MunicipalityName)
}

// CaseFact is one row of fato_casos_dengue at daily grain. All measures are
// additive counts.
type CaseFact struct {
	TimeKey     int `csv:"id_tempo" db:"id_tempo"`
	LocationKey int `csv:"id_local" db:"id_local"`

	Cases            int `csv:"num_casos" db:"num_casos"`
	Deaths           int `csv:"num_obitos" db:"num_obitos"`
	Hospitalizations int `csv:"num_hospitalizacao" db:"num_hospitalizacao"`
	Autochthonous    int `csv:"num_autoctones" db:"num_autoctones"`

	Male       int `csv:"num_masculino" db:"num_masculino"`
	Female     int `csv:"num_feminino" db:"num_feminino"`
	SexUnknown int `csv:"num_sexo_ignorado" db:"num_sexo_ignorado"`

	Children    int `csv:"num_criancas" db:"num_criancas"`
	Adolescents int `csv:"num_adolescentes" db:"num_adolescentes"`
	Adults      int `csv:"num_adultos" db:"num_adultos"`
	Elderly     int `csv:"num_idosos" db:"num_idosos"`
	AgeUnknown  int `csv:"num_idade_ignorada" db:"num_idade_ignorada"`
}

// ClimateFact is one row of fato_clima at epidemiological-week grain.
// TimeKey refers to the first day (Sunday) of the week.
type ClimateFact struct {
	TimeKey            int     `csv:"id_tempo" db:"id_tempo"`
	LocationKey        int     `csv:"id_local" db:"id_local"`
	MeanTemperature    float64 `csv:"temperatura_media" db:"temperatura_media"`
	TotalPrecipitation float64 `csv:"precipitacao_soma" db:"precipitacao_soma"`
}

// SanitationFact is one row of fato_saneamento at annual grain. TimeKey
// refers to January 1 of the reporting year.
type SanitationFact struct {
	TimeKey      int   `csv:"id_tempo" db:"id_tempo"`
	LocationKey  int   `csv:"id_local" db:"id_local"`
	Population   int64 `csv:"num_populacao" db:"num_populacao"`
	TreatedWater int64 `csv:"num_agua_tratada" db:"num_agua_tratada"`
	Sewage       int64 `csv:"num_esgoto" db:"num_esgoto"`
}

// Dataset holds one complete, resolved build of the warehouse contents.
type Dataset struct {
	TimeDays   []*TimeDay
	Locations  []*Location
	Cases      []*CaseFact
	Climate    []*ClimateFact
	Sanitation []*SanitationFact
}
