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
	"strings"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the warehouse contents in markdown
func (wh *Warehouse) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString("# Epidata Warehouse\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	// Database connection string
	if _, err := builder.WriteString(fmt.Sprintf("Database: %s\n\n", wh.DBUrl)); err != nil {
		return "", err
	}

	// Per-table row counts
	if _, err := builder.WriteString("## Tables\n\n"); err != nil {
		return "", err
	}

	for _, table := range []string{"dim_tempo", "dim_local", "fato_casos_dengue", "fato_clima", "fato_saneamento"} {
		count, err := wh.TableCount(ctx, table)
		if err != nil {
			return "", err
		}

		if _, err := builder.WriteString(p.Sprintf("  * %s: %d rows\n", table, count)); err != nil {
			return "", err
		}
	}

	if _, err := builder.WriteString("\n## Last run\n\n"); err != nil {
		return "", err
	}

	report, err := wh.LastRun(ctx)
	if err != nil {
		if errors.Is(err, ErrNoRuns) {
			if _, err := builder.WriteString("Last Updated: Never\n"); err != nil {
				return "", err
			}
			return builder.String(), nil
		}
		return "", err
	}

	age := timeago.English.Format(report.EndTime)

	if _, err := builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, report.EndTime.Local().Format("01/02/2006"))); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Run ID: %s\n", report.ID.String()[:6])); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Duration: %s\n", report.EndTime.Sub(report.StartTime))); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Excluded Records: %d cases, %d weather, %d sanitation\n",
		report.ExcludedCases, report.ExcludedWeather, report.ExcludedSanitation)); err != nil {
		return "", err
	}

	numRuns, err := wh.NumRuns(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("\nTotal Runs: %d\n", numRuns)); err != nil {
		return "", err
	}

	return builder.String(), nil
}
