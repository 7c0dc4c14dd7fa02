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
package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/epivault/epidata/data"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

// WriteSnapshots writes one semicolon-separated CSV per table into dir,
// mirroring exactly what the loader sends to the database.
func WriteSnapshots(dir string, dataset *data.Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	if err := writeSnapshot(dir, "dim_tempo.csv", dataset.TimeDays); err != nil {
		return err
	}
	if err := writeSnapshot(dir, "dim_local.csv", dataset.Locations); err != nil {
		return err
	}
	if err := writeSnapshot(dir, "fato_casos_dengue.csv", dataset.Cases); err != nil {
		return err
	}
	if err := writeSnapshot(dir, "fato_clima.csv", dataset.Climate); err != nil {
		return err
	}
	if err := writeSnapshot(dir, "fato_saneamento.csv", dataset.Sanitation); err != nil {
		return err
	}

	log.Info().Str("Dir", dir).Msg("table snapshots written")

	return nil
}

func writeSnapshot(dir, name string, rows any) error {
	fn := filepath.Join(dir, name)

	f, err := os.Create(fn)
	if err != nil {
		return fmt.Errorf("creating snapshot %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'

	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(w)); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", name, err)
	}

	return nil
}
