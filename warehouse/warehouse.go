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

// Package warehouse owns the star-schema side of the pipeline: connection
// management, the atomic full-refresh loader, and the run history table.
package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Warehouse struct {
	DBUrl string

	Pool *pgxpool.Pool
}

// Connect to the configured warehouse database
func (wh *Warehouse) Connect(ctx context.Context) error {
	if wh.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(context.Background(), wh.DBUrl)
	if err != nil {
		return err
	}
	wh.Pool = pool

	return nil
}

// Close the database pool
func (wh *Warehouse) Close() {
	wh.Pool.Close()
}

// NewFromDB connects to the warehouse and verifies the connection
func NewFromDB(ctx context.Context, dbURL string) (*Warehouse, error) {
	wh := &Warehouse{
		DBUrl: dbURL,
	}
	if err := wh.Connect(ctx); err != nil {
		return nil, err
	}

	if err := wh.Pool.Ping(ctx); err != nil {
		wh.Pool.Close()
		return nil, err
	}

	return wh, nil
}

// TableCount returns the number of rows currently in the named table. Only
// tables owned by the schema are accepted.
func (wh *Warehouse) TableCount(ctx context.Context, table string) (int, error) {
	switch table {
	case "dim_tempo", "dim_local", "fato_casos_dengue", "fato_clima", "fato_saneamento", "pipeline_runs":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}

	conn, err := wh.Pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	count := 0
	err = conn.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&count)
	return count, err
}
