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
package dimension

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/epivault/epidata/data"
	"github.com/gocarina/gocsv"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingCapital   = errors.New("capital not present in gazetteer")
	ErrAmbiguousCapital = errors.New("capital cannot be disambiguated by UF")
	ErrDuplicateCode    = errors.New("duplicate municipality code in registry")
)

// RawMunicipality is one gazetteer row (nationwide IBGE reference table).
type RawMunicipality struct {
	UF   string `csv:"uf"`
	Code string `csv:"cod_municipio"`
	Name string `csv:"nome_municipio"`
}

// ReadGazetteer parses the semicolon-separated municipality reference file.
func ReadGazetteer(r io.Reader) ([]*RawMunicipality, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'

	var municipalities []*RawMunicipality
	if err := gocsv.UnmarshalCSV(reader, &municipalities); err != nil {
		return nil, fmt.Errorf("parsing gazetteer: %w", err)
	}
	return municipalities, nil
}

// NormalizeName reduces a municipality name to a case- and accent-insensitive
// matching key ("São Paulo" and "SAO PAULO" collapse to the same key).
func NormalizeName(name string) string {
	return slug.Make(name)
}

// BuildRegistry filters the nationwide gazetteer down to exactly the
// configured capitals, resolving homonymous names by UF. Surrogate keys are
// assigned in (UF, name) order so rebuilding the registry always yields the
// same keys.
func BuildRegistry(municipalities []*RawMunicipality, capitals []Capital) ([]*data.Location, error) {
	wanted := make(map[string]Capital, len(capitals))
	for _, capital := range capitals {
		wanted[NormalizeName(capital.Name)] = capital
	}

	matches := make(map[string][]*RawMunicipality)
	for _, muni := range municipalities {
		key := NormalizeName(muni.Name)
		capital, ok := wanted[key]
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(muni.UF), capital.UF) {
			// homonym in another state, e.g. Belém/AL vs Belém/PA
			continue
		}
		matches[key] = append(matches[key], muni)
	}

	locations := make([]*data.Location, 0, len(capitals))
	for key, capital := range wanted {
		rows := matches[key]
		switch len(rows) {
		case 0:
			return nil, fmt.Errorf("%w: %s (%s)", ErrMissingCapital, capital.Name, capital.UF)
		case 1:
			locations = append(locations, &data.Location{
				UF:               capital.UF,
				MunicipalityCode: strings.TrimSpace(rows[0].Code),
				MunicipalityName: rows[0].Name,
			})
		default:
			return nil, fmt.Errorf("%w: %s occurs %d times in %s",
				ErrAmbiguousCapital, capital.Name, len(rows), capital.UF)
		}
	}

	sort.Slice(locations, func(i, j int) bool {
		if locations[i].UF != locations[j].UF {
			return locations[i].UF < locations[j].UF
		}
		return locations[i].MunicipalityName < locations[j].MunicipalityName
	})

	codes := make(map[string]string, len(locations))
	for idx, loc := range locations {
		loc.LocationKey = idx + 1
		if prev, ok := codes[loc.MunicipalityCode]; ok {
			return nil, fmt.Errorf("%w: %s shared by %s and %s",
				ErrDuplicateCode, loc.MunicipalityCode, prev, loc.MunicipalityName)
		}
		codes[loc.MunicipalityCode] = loc.MunicipalityName
	}

	log.Info().Int("NumLocations", len(locations)).Msg("location dimension built")

	return locations, nil
}
