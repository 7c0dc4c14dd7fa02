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
package cmd

import (
	"context"
	"time"

	"github.com/hako/durafmt"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/epivault/epidata/data"
	"github.com/epivault/epidata/healthcheck"
	"github.com/epivault/epidata/pipeline"
	"github.com/epivault/epidata/warehouse"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the warehouse from the configured raw extracts",
	Long: `The run sub-command executes the full pipeline: it builds the calendar
and location dimensions, aggregates the dengue, weather, and sanitation
extracts against them, and atomically replaces the warehouse contents with
the result. The previous contents survive any failure.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg := &pipeline.Config{
			StartYear:      viper.GetInt("pipeline.start_year"),
			EndYear:        viper.GetInt("pipeline.end_year"),
			GazetteerPath:  viper.GetString("pipeline.gazetteer"),
			DengueGlob:     viper.GetString("pipeline.dengue_glob"),
			WeatherGlob:    viper.GetString("pipeline.weather_glob"),
			SanitationPath: viper.GetString("pipeline.sanitation"),
			SnapshotDir:    viper.GetString("pipeline.snapshot_dir"),
		}

		startTime := time.Now()

		dataset, report, err := pipeline.Run(ctx, cfg)
		if err != nil {
			failRun(&data.RunReport{StartTime: startTime, EndTime: time.Now()}, err, "pipeline run failed")
		}

		wh, err := warehouse.NewFromDB(ctx, viper.GetString("db.url"))
		if err != nil {
			failRun(report, err, "could not connect to warehouse")
		}
		defer wh.Close()

		if err := wh.Replace(ctx, dataset); err != nil {
			failRun(report, err, "could not load warehouse")
		}

		if err := wh.RecordRun(ctx, report); err != nil {
			log.Error().Err(err).Msg("could not record run history")
		}

		if err := healthcheck.Ping(report, false); err != nil {
			log.Error().Err(err).Msg("could not ping health check")
		}

		runTime := time.Since(startTime)
		log.Info().Str("RunTime", durafmt.Parse(runTime).String()).Object("Report", report).
			Msg("warehouse loaded")
	},
}

// failRun pings the health check fail endpoint before exiting so the
// monitoring side sees failed runs, not just missed ones.
func failRun(report *data.RunReport, err error, msg string) {
	if pingErr := healthcheck.Ping(report, true); pingErr != nil {
		log.Error().Err(pingErr).Msg("could not ping health check")
	}

	log.Fatal().Err(err).Msg(msg)
}

func init() {
	rootCmd.AddCommand(runCmd)
}
