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

// Package resolver maps natural record keys (dates, municipality names and
// codes) onto the warehouse surrogate keys, one resolution function per fact
// grain.
package resolver

import (
	"errors"
	"strings"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/epivault/epidata/data"
	"github.com/epivault/epidata/dimension"
)

// ErrNotFound marks a raw record whose date or location has no surrogate
// key. Callers exclude the record and count it; they do not abort.
var ErrNotFound = errors.New("no surrogate key for record")

// Resolver is built once from the two dimensions and is read-only afterward.
type Resolver struct {
	days *haxmap.Map[int, *data.TimeDay]

	locByCode *haxmap.Map[string, int] // full 7-digit IBGE code
	locByIBGE *haxmap.Map[string, int] // 6-digit code, check digit stripped
	locByName *haxmap.Map[string, int] // normalized municipality name

	weekFirstKey map[int]int // epiYear*100+epiWeek -> time key of first day
	jan1Key      map[int]int // calendar year -> time key of January 1
}

// New indexes the calendar and location dimensions for key resolution.
func New(days []*data.TimeDay, locations []*data.Location) *Resolver {
	r := &Resolver{
		days:         haxmap.New[int, *data.TimeDay](),
		locByCode:    haxmap.New[string, int](),
		locByIBGE:    haxmap.New[string, int](),
		locByName:    haxmap.New[string, int](),
		weekFirstKey: make(map[int]int),
		jan1Key:      make(map[int]int),
	}

	// days arrive in date order, so the first day seen for an epi week is
	// that week's earliest day inside the calendar range
	for _, day := range days {
		r.days.Set(day.TimeKey, day)

		week := day.EpiYear*100 + day.EpiWeek
		if _, ok := r.weekFirstKey[week]; !ok {
			r.weekFirstKey[week] = day.TimeKey
		}

		if day.Month == 1 && day.Day == 1 {
			r.jan1Key[day.Year] = day.TimeKey
		}
	}

	for _, loc := range locations {
		r.locByCode.Set(loc.MunicipalityCode, loc.LocationKey)
		if len(loc.MunicipalityCode) == 7 {
			r.locByIBGE.Set(loc.MunicipalityCode[:6], loc.LocationKey)
		}
		r.locByName.Set(dimension.NormalizeName(loc.MunicipalityName), loc.LocationKey)
	}

	return r
}

// Location resolves a raw location identifier, either an IBGE municipality
// code (7-digit or the 6-digit form without check digit) or a municipality
// name in any casing or accenting.
func (r *Resolver) Location(identifier string) (int, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return 0, ErrNotFound
	}

	if isDigits(identifier) {
		if key, ok := r.locByCode.Get(identifier); ok {
			return key, nil
		}
		if key, ok := r.locByIBGE.Get(identifier); ok {
			return key, nil
		}
		return 0, ErrNotFound
	}

	if key, ok := r.locByName.Get(dimension.NormalizeName(identifier)); ok {
		return key, nil
	}
	return 0, ErrNotFound
}

// HasLocation reports whether an identifier resolves inside the canonical
// set. Source readers use it to drop foreign records before buffering them.
func (r *Resolver) HasLocation(identifier string) bool {
	_, err := r.Location(identifier)
	return err == nil
}

// Day returns the calendar row for a date, if the date is in range.
func (r *Resolver) Day(date time.Time) (*data.TimeDay, error) {
	day, ok := r.days.Get(dimension.TimeKey(date))
	if !ok {
		return nil, ErrNotFound
	}
	return day, nil
}

// Daily resolves a (date, location) pair at daily grain.
func (r *Resolver) Daily(date time.Time, identifier string) (timeKey, locationKey int, err error) {
	day, err := r.Day(date)
	if err != nil {
		return 0, 0, err
	}
	locationKey, err = r.Location(identifier)
	if err != nil {
		return 0, 0, err
	}
	return day.TimeKey, locationKey, nil
}

// Weekly resolves a (date, location) pair at epidemiological-week grain: the
// returned time key belongs to the first day of the week containing date,
// not to date itself.
func (r *Resolver) Weekly(date time.Time, identifier string) (timeKey, locationKey int, err error) {
	day, err := r.Day(date)
	if err != nil {
		return 0, 0, err
	}
	timeKey, ok := r.weekFirstKey[day.EpiYear*100+day.EpiWeek]
	if !ok {
		return 0, 0, ErrNotFound
	}
	locationKey, err = r.Location(identifier)
	if err != nil {
		return 0, 0, err
	}
	return timeKey, locationKey, nil
}

// Annual resolves a (year, location) pair at annual grain: the returned time
// key is always that of January 1 of year.
func (r *Resolver) Annual(year int, identifier string) (timeKey, locationKey int, err error) {
	timeKey, ok := r.jan1Key[year]
	if !ok {
		return 0, 0, ErrNotFound
	}
	locationKey, err = r.Location(identifier)
	if err != nil {
		return 0, 0, err
	}
	return timeKey, locationKey, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
