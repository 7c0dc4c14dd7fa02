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

// Package dimension builds the two warehouse dimensions: the calendar
// (dim_tempo) with epidemiological week numbering, and the canonical set of
// capital locations (dim_local).
package dimension

import (
	"errors"
	"fmt"
	"time"

	"github.com/epivault/epidata/data"
	"github.com/rs/zerolog/log"
)

var ErrInvalidYearRange = errors.New("end year precedes start year")

// TimeKey derives the dim_tempo surrogate key from a date: YYYYMMDD as an
// 8-digit integer. Keys are unique per day and increase with the date.
func TimeKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// weekStart returns the Sunday on or before d.
func weekStart(d time.Time) time.Time {
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// epiWeek1Start returns the Sunday beginning epidemiological week 1 of year.
// Week 1 is the first Sunday-Saturday week holding at least four days of
// January, i.e. the week whose Wednesday falls in January.
func epiWeek1Start(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	ws := weekStart(jan1)
	if ws.AddDate(0, 0, 3).Year() != year {
		ws = ws.AddDate(0, 0, 7)
	}
	return ws
}

// EpiWeek assigns a day to its epidemiological year and week. Weeks run
// Sunday through Saturday; a week belongs to the year that owns its
// Wednesday, so late-December days can land in week 1 of the next epi year
// and early-January days in week 52/53 of the prior one.
func EpiWeek(d time.Time) (epiYear int, epiWeek int) {
	ws := weekStart(d)
	epiYear = ws.AddDate(0, 0, 3).Year()
	epiWeek = int(ws.Sub(epiWeek1Start(epiYear)).Hours()/(24*7)) + 1
	return epiYear, epiWeek
}

// BuildCalendar produces one TimeDay per calendar day from January 1 of
// startYear through December 31 of endYear.
func BuildCalendar(startYear, endYear int) ([]*data.TimeDay, error) {
	if endYear < startYear {
		return nil, fmt.Errorf("%w: %d-%d", ErrInvalidYearRange, startYear, endYear)
	}

	first := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	days := make([]*data.TimeDay, 0, (endYear-startYear+1)*366)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		epiYear, epiWeek := EpiWeek(d)
		days = append(days, &data.TimeDay{
			TimeKey: TimeKey(d),
			Date:    data.Date{Time: d},
			Year:    d.Year(),
			Month:   int(d.Month()),
			Day:     d.Day(),
			EpiYear: epiYear,
			EpiWeek: epiWeek,
		})
	}

	log.Info().Int("StartYear", startYear).Int("EndYear", endYear).
		Int("NumDays", len(days)).Msg("calendar dimension built")

	return days, nil
}
