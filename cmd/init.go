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
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/epivault/epidata/db"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type dbSettings struct {
	URL string `toml:"url"`
}

type pipelineSettings struct {
	StartYear int `toml:"start_year"`
	EndYear   int `toml:"end_year"`

	Gazetteer   string `toml:"gazetteer"`
	DengueGlob  string `toml:"dengue_glob"`
	WeatherGlob string `toml:"weather_glob"`
	Sanitation  string `toml:"sanitation"`
	SnapshotDir string `toml:"snapshot_dir"`
}

type configFile struct {
	DB       dbSettings       `toml:"db"`
	Pipeline pipelineSettings `toml:"pipeline"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather database configuration and setup schema",
	Run: func(cmd *cobra.Command, args []string) {
		settings := configFile{
			Pipeline: pipelineSettings{
				StartYear: 2013,
				EndYear:   2023,
			},
		}

		form := huh.NewForm(
			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&settings.DB.URL).
					Validate(func(dsn string) error {
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),

			// Gather the locations of the raw extracts
			huh.NewGroup(
				huh.NewInput().
					Title("Path to the IBGE municipality gazetteer CSV:").
					Value(&settings.Pipeline.Gazetteer),

				huh.NewInput().
					Title("Glob matching the SINAN dengue notification CSV files:").
					Value(&settings.Pipeline.DengueGlob),

				huh.NewInput().
					Title("Glob matching the INMET weather station CSV files:").
					Value(&settings.Pipeline.WeatherGlob),

				huh.NewInput().
					Title("Path to the SNIS sanitation indicator CSV:").
					Value(&settings.Pipeline.Sanitation),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering database settings")
		}

		log.Info().Msg("creating database tables")

		// run migration
		dbURL := strings.Replace(settings.DB.URL, "postgres://", "pgx5://", -1)
		err = db.Migrate(dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")

		// save settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".epidata.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving database connection info to config file")
		configData, err := toml.Marshal(settings)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0644)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your warehouse has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
