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

// Package healthcheck pings healthchecks.io after each pipeline run so
// missed or failed schedules page the operator.
package healthcheck

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/epivault/epidata/data"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// Ping reports the outcome of a pipeline run to the configured check URL.
// The run report goes along as the ping body. A run that failed appends
// /fail so the check turns red instead of resetting. No-op when
// healthchecks.pingurl is unset.
func Ping(report *data.RunReport, failed bool) error {
	pingURL := viper.GetString("healthchecks.pingurl")
	if pingURL == "" {
		return nil
	}

	if failed {
		pingURL += "/fail"
	}

	body, err := json.Marshal(report)
	if err != nil {
		return err
	}

	client := resty.New()
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(pingURL)

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
