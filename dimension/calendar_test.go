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
package dimension_test

import (
	"testing"
	"time"

	"github.com/epivault/epidata/dimension"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestTimeKey(t *testing.T) {
	assert.Equal(t, 20230709, dimension.TimeKey(date(2023, time.July, 9)))
	assert.Equal(t, 20200101, dimension.TimeKey(date(2020, time.January, 1)))
	assert.Equal(t, 19991231, dimension.TimeKey(date(1999, time.December, 31)))
}

func TestEpiWeek(t *testing.T) {
	tests := []struct {
		name     string
		day      time.Time
		wantYear int
		wantWeek int
	}{
		{
			// January 1, 2023 is a Sunday, so it opens epi week 1
			name:     "sunday january first",
			day:      date(2023, time.January, 1),
			wantYear: 2023,
			wantWeek: 1,
		},
		{
			// the week of December 25, 2022 has its Wednesday in 2022
			name:     "late december stays in own year",
			day:      date(2022, time.December, 31),
			wantYear: 2022,
			wantWeek: 52,
		},
		{
			// December 29, 2019 starts the week containing January 1, 2020
			name:     "late december rolls into next epi year",
			day:      date(2019, time.December, 29),
			wantYear: 2020,
			wantWeek: 1,
		},
		{
			// January 1, 2016 sits in the last week of epi year 2015
			name:     "early january stays in prior epi year",
			day:      date(2016, time.January, 1),
			wantYear: 2015,
			wantWeek: 52,
		},
		{
			// epi year 2014 runs 53 weeks
			name:     "fifty-three week year",
			day:      date(2014, time.December, 28),
			wantYear: 2014,
			wantWeek: 53,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			epiYear, epiWeek := dimension.EpiWeek(tt.day)
			assert.Equal(t, tt.wantYear, epiYear)
			assert.Equal(t, tt.wantWeek, epiWeek)
		})
	}
}

func TestEpiWeekSameWeekSameAssignment(t *testing.T) {
	// every day Sunday..Saturday of one week maps to the same (year, week)
	sunday := date(2021, time.March, 7)
	wantYear, wantWeek := dimension.EpiWeek(sunday)

	for offset := 1; offset < 7; offset++ {
		epiYear, epiWeek := dimension.EpiWeek(sunday.AddDate(0, 0, offset))
		assert.Equal(t, wantYear, epiYear)
		assert.Equal(t, wantWeek, epiWeek)
	}

	nextYear, nextWeek := dimension.EpiWeek(sunday.AddDate(0, 0, 7))
	assert.False(t, nextYear == wantYear && nextWeek == wantWeek)
}

func TestBuildCalendar(t *testing.T) {
	days, err := dimension.BuildCalendar(2020, 2021)
	require.NoError(t, err)

	// 2020 is a leap year
	require.Len(t, days, 366+365)

	assert.Equal(t, 20200101, days[0].TimeKey)
	assert.Equal(t, 20211231, days[len(days)-1].TimeKey)

	for _, day := range days {
		assert.GreaterOrEqual(t, day.EpiWeek, 1)
		assert.LessOrEqual(t, day.EpiWeek, 53)
	}

	// keys strictly increase with the date
	for i := 1; i < len(days); i++ {
		assert.Greater(t, days[i].TimeKey, days[i-1].TimeKey)
	}
}

func TestBuildCalendarInvalidRange(t *testing.T) {
	_, err := dimension.BuildCalendar(2023, 2020)
	require.ErrorIs(t, err, dimension.ErrInvalidYearRange)
}
