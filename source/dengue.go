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
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/epivault/epidata/data"
	"github.com/epivault/epidata/resolver"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// SINAN categorical codes.
const (
	classDiscarded    = 2
	classInconclusive = 8
	classIgnored      = 9
	evolutionDeath    = 2
	codeYes           = 1
)

// CaseRecord is one SINAN dengue notification. Older yearly files carry
// DT_NASC (full birth date), newer ones ANO_NASC (birth year only); gocsv
// leaves the absent column empty so both layouts read through one struct.
type CaseRecord struct {
	NotificationDate string `csv:"DT_NOTIFIC"`
	MunicipalityCode string `csv:"ID_MN_RESI"`
	UF               string `csv:"SG_UF"`
	FinalClass       string `csv:"CLASSI_FIN"`
	Evolution        string `csv:"EVOLUCAO"`
	Hospitalized     string `csv:"HOSPITALIZ"`
	Autochthonous    string `csv:"TPAUTOCTO"`
	Sex              string `csv:"CS_SEXO"`
	BirthDate        string `csv:"DT_NASC"`
	BirthYear        string `csv:"ANO_NASC"`
}

// StreamCases reads every file matching glob and sends records whose
// residence municipality passes keep. Filtering happens per record during
// the scan so non-capital notifications are never buffered. Closes out when
// all files are read.
func StreamCases(ctx context.Context, glob string, keep func(string) bool, out chan<- *CaseRecord) error {
	defer close(out)

	files, err := filepath.Glob(glob)
	if err != nil {
		return fmt.Errorf("expanding case-report glob: %w", err)
	}
	if len(files) == 0 {
		log.Warn().Str("Glob", glob).Msg("no case-report files found")
		return nil
	}
	sort.Strings(files)

	progress := rate.Sometimes{Interval: 10 * time.Second}
	numRead := 0

	for _, fn := range files {
		f, err := os.Open(fn)
		if err != nil {
			return fmt.Errorf("opening case-report file: %w", err)
		}

		log.Info().Str("FileName", filepath.Base(fn)).Msg("scanning case notifications")

		err = gocsv.UnmarshalToCallbackWithError(f, func(rec *CaseRecord) error {
			numRead++
			progress.Do(func() {
				log.Info().Int("NumRecords", numRead).Str("FileName", filepath.Base(fn)).
					Msg("still scanning case notifications")
			})

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
		f.Close()

		if err != nil {
			return fmt.Errorf("reading %s: %w", filepath.Base(fn), err)
		}
	}

	return nil
}

// AggregateCases reduces case notifications to one CaseFact per
// (location, day), summing the per-record flags. Records whose date or
// municipality cannot be resolved are excluded and counted.
func AggregateCases(res *resolver.Resolver, in <-chan *CaseRecord) ([]*data.CaseFact, int, error) {
	facts := make(map[factKey]*data.CaseFact)
	excluded := 0

	for rec := range in {
		notified, err := parseNotificationDate(rec.NotificationDate)
		if err != nil {
			excluded++
			continue
		}

		timeKey, locationKey, err := res.Daily(notified, rec.MunicipalityCode)
		if err != nil {
			excluded++
			continue
		}

		key := factKey{TimeKey: timeKey, LocationKey: locationKey}
		fact, ok := facts[key]
		if !ok {
			fact = &data.CaseFact{TimeKey: timeKey, LocationKey: locationKey}
			facts[key] = fact
		}

		tally(fact, rec, notified.Year())
	}

	rows := make([]*data.CaseFact, 0, len(facts))
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
		Msg("case notifications aggregated")

	return rows, excluded, nil
}

// tally adds one notification to its daily bucket. Missing categorical
// values land in the ignored/unknown counters instead of being dropped.
func tally(fact *data.CaseFact, rec *CaseRecord, notificationYear int) {
	switch parseCode(rec.FinalClass) {
	case classDiscarded, classInconclusive, classIgnored, -1:
		// not a confirmed case, but the notification still counts
		// toward the remaining measures
	default:
		fact.Cases++
	}

	if parseCode(rec.Evolution) == evolutionDeath {
		fact.Deaths++
	}
	if parseCode(rec.Hospitalized) == codeYes {
		fact.Hospitalizations++
	}
	if parseCode(rec.Autochthonous) == codeYes {
		fact.Autochthonous++
	}

	switch rec.Sex {
	case "M":
		fact.Male++
	case "F":
		fact.Female++
	default:
		fact.SexUnknown++
	}

	switch age := caseAge(rec, notificationYear); {
	case age < 0:
		fact.AgeUnknown++
	case age <= 12:
		fact.Children++
	case age <= 17:
		fact.Adolescents++
	case age <= 59:
		fact.Adults++
	default:
		fact.Elderly++
	}
}

// caseAge derives the patient's age in years from the birth date or birth
// year against the notification year. Returns -1 when the age is unknown or
// out of range.
func caseAge(rec *CaseRecord, notificationYear int) int {
	birthYear := 0
	switch {
	case len(rec.BirthDate) >= 4:
		if y, err := strconv.Atoi(rec.BirthDate[:4]); err == nil {
			birthYear = y
		}
	case rec.BirthYear != "":
		if y, err := strconv.Atoi(rec.BirthYear); err == nil {
			birthYear = y
		}
	}

	if birthYear <= 0 || notificationYear <= 0 {
		return -1
	}

	age := notificationYear - birthYear
	if age < 0 || age > 130 {
		return -1
	}
	return age
}

func parseNotificationDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable notification date %q", s)
}
