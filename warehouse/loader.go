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
	"fmt"

	"github.com/epivault/epidata/data"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// loadLockID serializes concurrent Replace calls on the advisory lock so two
// runs never interleave deletes and copies.
const loadLockID = 764112

// ErrOrphanFact marks a fact row referencing a dimension key that is not
// part of the dataset being loaded.
var ErrOrphanFact = errors.New("fact references unknown dimension key")

// loadTable binds one warehouse table to its column list and a row source.
// Tables are listed parent-first; deletes walk the list in reverse.
type loadTable struct {
	name    string
	columns []string
	numRows int
	row     func(i int) []any
}

// Replace rebuilds the warehouse from the dataset inside one transaction:
// facts and dimensions are deleted child-first and re-inserted parent-first
// with COPY. Any failure rolls back and leaves the previous contents intact.
func (wh *Warehouse) Replace(ctx context.Context, dataset *data.Dataset) error {
	if err := validate(dataset); err != nil {
		return err
	}

	tables := loadTables(dataset)

	conn, err := wh.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			if !errors.Is(err, pgx.ErrTxClosed) {
				log.Error().Err(err).Msg("error rollingback tx")
			}
		}
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", loadLockID); err != nil {
		return fmt.Errorf("acquiring load lock: %w", err)
	}

	for idx := len(tables) - 1; idx >= 0; idx-- {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", tables[idx].name)); err != nil {
			return fmt.Errorf("clearing %s: %w", tables[idx].name, err)
		}
	}

	for _, table := range tables {
		copied, err := tx.CopyFrom(ctx, pgx.Identifier{table.name}, table.columns,
			pgx.CopyFromSlice(table.numRows, func(i int) ([]any, error) {
				return table.row(i), nil
			}))
		if err != nil {
			return fmt.Errorf("loading %s: %w", table.name, err)
		}

		log.Info().Str("TableName", table.name).Int64("NumRows", copied).Msg("table loaded")
	}

	return tx.Commit(ctx)
}

// validate rejects the dataset before any row is written if a fact refers to
// a day or location that the dimensions do not carry.
func validate(dataset *data.Dataset) error {
	days := make(map[int]struct{}, len(dataset.TimeDays))
	for _, td := range dataset.TimeDays {
		days[td.TimeKey] = struct{}{}
	}

	locations := make(map[int]struct{}, len(dataset.Locations))
	for _, loc := range dataset.Locations {
		locations[loc.LocationKey] = struct{}{}
	}

	check := func(table string, timeKey, locationKey int) error {
		if _, ok := days[timeKey]; !ok {
			return fmt.Errorf("%w: %s time key %d", ErrOrphanFact, table, timeKey)
		}
		if _, ok := locations[locationKey]; !ok {
			return fmt.Errorf("%w: %s location key %d", ErrOrphanFact, table, locationKey)
		}
		return nil
	}

	for _, fact := range dataset.Cases {
		if err := check("fato_casos_dengue", fact.TimeKey, fact.LocationKey); err != nil {
			return err
		}
	}
	for _, fact := range dataset.Climate {
		if err := check("fato_clima", fact.TimeKey, fact.LocationKey); err != nil {
			return err
		}
	}
	for _, fact := range dataset.Sanitation {
		if err := check("fato_saneamento", fact.TimeKey, fact.LocationKey); err != nil {
			return err
		}
	}

	return nil
}

func loadTables(dataset *data.Dataset) []loadTable {
	return []loadTable{
		{
			name: "dim_tempo",
			columns: []string{"id_tempo", "data_completa", "ano_civil", "mes_civil",
				"dia_civil", "ano_epidemiologico", "semana_epidemiologica"},
			numRows: len(dataset.TimeDays),
			row: func(i int) []any {
				td := dataset.TimeDays[i]
				return []any{td.TimeKey, td.Date.Time, td.Year, td.Month, td.Day,
					td.EpiYear, td.EpiWeek}
			},
		},
		{
			name:    "dim_local",
			columns: []string{"id_local", "uf", "cod_municipio", "nome_municipio"},
			numRows: len(dataset.Locations),
			row: func(i int) []any {
				loc := dataset.Locations[i]
				return []any{loc.LocationKey, loc.UF, loc.MunicipalityCode, loc.MunicipalityName}
			},
		},
		{
			name: "fato_casos_dengue",
			columns: []string{"id_tempo", "id_local", "num_casos", "num_obitos",
				"num_hospitalizacao", "num_autoctones", "num_masculino", "num_feminino",
				"num_sexo_ignorado", "num_criancas", "num_adolescentes", "num_adultos",
				"num_idosos", "num_idade_ignorada"},
			numRows: len(dataset.Cases),
			row: func(i int) []any {
				fact := dataset.Cases[i]
				return []any{fact.TimeKey, fact.LocationKey, fact.Cases, fact.Deaths,
					fact.Hospitalizations, fact.Autochthonous, fact.Male, fact.Female,
					fact.SexUnknown, fact.Children, fact.Adolescents, fact.Adults,
					fact.Elderly, fact.AgeUnknown}
			},
		},
		{
			name:    "fato_clima",
			columns: []string{"id_tempo", "id_local", "temperatura_media", "precipitacao_soma"},
			numRows: len(dataset.Climate),
			row: func(i int) []any {
				fact := dataset.Climate[i]
				return []any{fact.TimeKey, fact.LocationKey, fact.MeanTemperature,
					fact.TotalPrecipitation}
			},
		},
		{
			name: "fato_saneamento",
			columns: []string{"id_tempo", "id_local", "num_populacao", "num_agua_tratada",
				"num_esgoto"},
			numRows: len(dataset.Sanitation),
			row: func(i int) []any {
				fact := dataset.Sanitation[i]
				return []any{fact.TimeKey, fact.LocationKey, fact.Population,
					fact.TreatedWater, fact.Sewage}
			},
		},
	}
}
